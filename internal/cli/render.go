// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/venture-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	// Prompt style
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// Welcome banner style
	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// Info style
	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	// Command style
	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	// Warning style
	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// Error style
	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	// Agent label style
	agentStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is lazily initialized; nil means glamour failed and
// replies print as plain text.
var markdownRenderer *glamour.TermRenderer

func init() {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err == nil {
		markdownRenderer = r
	}
}

// renderMarkdown renders markdown for terminal display, falling back to
// the raw text on error.
func renderMarkdown(text string) string {
	if markdownRenderer == nil {
		return text
	}
	out, err := markdownRenderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// displayReply prints an assistant reply, markdown-rendered on a TTY.
func displayReply(agent string, text string) {
	if agent != "" {
		fmt.Println(agentStyle.Render(agent))
	}
	if IsStdoutTTY() {
		fmt.Println(renderMarkdown(text))
	} else {
		fmt.Println(text)
	}
	fmt.Println()
}
