// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"

	"golang.org/x/term"
)

// IsStdoutTTY reports whether stdout is a terminal. Markdown rendering
// and color are disabled when output is piped.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsStdinTTY reports whether stdin is a terminal. The interactive TUI
// requires one; piped input falls back to the plain REPL.
func IsStdinTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
