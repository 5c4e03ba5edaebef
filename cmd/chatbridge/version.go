package main

import (
	"fmt"
	"io"

	"chatbridge/pkg/version"
)

// printVersion prints the version information
func printVersion(w io.Writer) {
	fmt.Fprint(w, version.Info("chatbridge"))
}
