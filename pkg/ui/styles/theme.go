// Package styles provides the shared palette and lipgloss styles used by the
// terminal renderers and the interactive chat.
package styles

import (
	"charm.land/lipgloss/v2"
)

// Color palette - ANSI 256 colors used throughout the application
var (
	// Primary accent color (purple)
	ColorAccent = lipgloss.Color("141")

	// Text colors
	ColorText      = lipgloss.Color("252") // Primary text
	ColorTextMuted = lipgloss.Color("245") // Secondary/muted text

	// Speaker colors
	ColorUser      = lipgloss.Color("222") // User prefix
	ColorAssistant = lipgloss.Color("141") // Assistant prefix
	ColorSystem    = lipgloss.Color("244") // System prefix

	// Semantic colors
	ColorError   = lipgloss.Color("196")
	ColorWarning = lipgloss.Color("214")

	ColorPlaceholder = lipgloss.Color("240")
	ColorBorder      = lipgloss.Color("141")
)

// Panel/Box styles
var (
	// ReplyBoxStyle frames a single assistant reply
	ReplyBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	// ChatBoxStyle frames the interactive chat
	ChatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	UserPrefixStyle = lipgloss.NewStyle().
			Foreground(ColorUser).
			Bold(true)

	AssistantPrefixStyle = lipgloss.NewStyle().
				Foreground(ColorAssistant).
				Bold(true)

	SystemPrefixStyle = lipgloss.NewStyle().
				Foreground(ColorSystem).
				Italic(true)

	// FooterStyle for footer/help text
	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)

	// PendingStyle marks a request still in flight
	PendingStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Italic(true)

	// ErrorStyle flags a reply that never reached the backend
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(ColorPlaceholder).
				Italic(true)
)
