// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// A TUI owns the terminal, so diagnostics go to a file instead of
// stdout. Logging is off unless VENTURE_DEBUG=1.

var (
	debugMu   sync.Mutex
	debugFile *os.File
	debugOnce sync.Once
)

// DebugEnabled reports whether debug logging is on.
func DebugEnabled() bool {
	return os.Getenv("VENTURE_DEBUG") == "1"
}

// Debugf appends a timestamped line to ~/.venture/debug.log when
// VENTURE_DEBUG=1. Errors opening the log are swallowed; diagnostics
// must never break the app.
func Debugf(format string, args ...any) {
	if !DebugEnabled() {
		return
	}

	debugOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		dir := filepath.Join(home, ".venture")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return
		}
		f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return
		}
		debugFile = f
	})

	debugMu.Lock()
	defer debugMu.Unlock()
	if debugFile == nil {
		return
	}
	fmt.Fprintf(debugFile, "%s "+format+"\n", append([]any{time.Now().Format(time.RFC3339)}, args...)...)
}
