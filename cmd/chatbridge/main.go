package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chatbridge/pkg/bridge"
	"chatbridge/pkg/config"
	"chatbridge/pkg/display"
	"chatbridge/pkg/logging"
	"chatbridge/pkg/transcript"
	"chatbridge/pkg/ui/chat"

	"golang.org/x/term"
)

type options struct {
	configPath  string
	baseURL     string
	message     string
	file        string
	legacy      bool
	showVersion bool
}

// respondFunc is the shape shared by GetResponse and GetLegacyResponse.
type respondFunc func(ctx context.Context, messages []bridge.Message) string

// GetResponse lets a respondFunc stand in for a chat.Responder.
func (f respondFunc) GetResponse(ctx context.Context, messages []bridge.Message) string {
	return f(ctx, messages)
}

// selectResponder picks the bridge entry point named by -legacy.
func selectResponder(client *bridge.Client, legacy bool) respondFunc {
	if legacy {
		return client.GetLegacyResponse
	}
	return client.GetResponse
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if opts.showVersion {
		printVersion(os.Stdout)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("chatbridge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to config file (default ~/.chatbridge/config.json)")
	fs.StringVar(&opts.baseURL, "base-url", "", "chat backend base URL (overrides config)")
	fs.StringVar(&opts.message, "m", "", "send a single message and print the reply")
	fs.StringVar(&opts.file, "f", "", "send the conversation in a JSON file and print the reply")
	fs.BoolVar(&opts.legacy, "legacy", false, "use the legacy entry point")
	fs.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
		fmt.Fprintln(stderr, err)
		return options{}, err
	}
	if opts.message != "" && opts.file != "" {
		err := errors.New("-m and -f cannot be used together")
		fmt.Fprintln(stderr, err)
		return options{}, err
	}
	return opts, nil
}

func loadConfig(opts options) (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = config.GetConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config %s: %w", configPath, err)
	}
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newClient(cfg config.Config, logger *slog.Logger) *bridge.Client {
	return bridge.New(cfg.BaseURL,
		bridge.WithTimeout(time.Duration(cfg.APITimeoutSeconds)*time.Second),
		bridge.WithLogger(logger),
	)
}

func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logging.Init(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		logger = logging.Discard()
	}
	logger.Info("chatbridge_start", "base_url", cfg.BaseURL, "legacy", opts.legacy)

	respond := selectResponder(newClient(cfg, logger), opts.legacy)

	if opts.message != "" || opts.file != "" {
		messages, err := loadMessages(opts)
		if err != nil {
			return err
		}
		oneShot(ctx, respond, messages, display.ForFile(os.Stdout), os.Stdout)
		return nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		return chat.Run(ctx, respond, transcript.New())
	}
	return lineLoop(ctx, respond, transcript.New(), os.Stdin, os.Stdout, display.New(display.Plain, display.DefaultWidth))
}

// loadMessages builds the one-shot conversation from -m or -f.
func loadMessages(opts options) ([]bridge.Message, error) {
	if opts.file != "" {
		tr, err := transcript.LoadFile(opts.file)
		if err != nil {
			return nil, err
		}
		return tr.Messages(), nil
	}
	return []bridge.Message{{Role: bridge.RoleUser, Content: opts.message}}, nil
}

func oneShot(ctx context.Context, respond respondFunc, messages []bridge.Message, r *display.Renderer, out io.Writer) {
	reply := respond(ctx, messages)
	fmt.Fprint(out, r.RenderReply(reply))
}

// lineLoop treats each non-blank input line as a user message and prints
// the reply, keeping the conversation in tr.
func lineLoop(ctx context.Context, respond respondFunc, tr *transcript.Transcript, in io.Reader, out io.Writer, r *display.Renderer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tr.Append(bridge.RoleUser, line)
		reply := respond(ctx, tr.Messages())
		tr.Append(bridge.RoleAssistant, reply)
		fmt.Fprint(out, r.RenderReply(reply))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
