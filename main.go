// venture - A terminal client for the Utopia AI business planning assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/venture-tui/internal/api"
	"github.com/jeranaias/venture-tui/internal/cli"
	"github.com/jeranaias/venture-tui/internal/config"
	"github.com/jeranaias/venture-tui/internal/history"
	"github.com/jeranaias/venture-tui/internal/model"
	"github.com/jeranaias/venture-tui/internal/session"
	"github.com/jeranaias/venture-tui/internal/storage"
	"github.com/jeranaias/venture-tui/internal/ui/chat"
	"github.com/jeranaias/venture-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		serverURL   = flag.String("server", "", "backend server URL (overrides config)")
		modelFlag   = flag.String("model", "", "model to use (overrides config)")
		modeFlag    = flag.String("mode", "", "working mode: entrepreneur or consultant")
		sessionID   = flag.String("session", "", "resume a server session by id, or 'last' for the most recent save")
		plain       = flag.Bool("plain", false, "use the plain REPL instead of the TUI")
		noHistory   = flag.Bool("no-history", false, "disable the local exchange log")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("venture %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg := config.Global()
	cfg.ApplyEnvOverrides()

	// CLI flags override config and environment.
	if *serverURL != "" {
		cfg.Server.URL = *serverURL
	}
	if *modelFlag != "" {
		cfg.DefaultModel = *modelFlag
	}
	if *modeFlag != "" {
		cfg.DefaultMode = *modeFlag
	}
	if *noHistory {
		cfg.History.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:           cfg.Server.URL,
		Timeout:           time.Duration(cfg.Server.TimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
	})
	controller := session.NewController(client)

	mode, modeSet := resolveMode(cfg.DefaultMode)
	if modeSet {
		controller.SetMode(mode)
	}
	if id, err := model.ParseModelID(cfg.DefaultModel); err == nil {
		controller.SelectModel(id)
	}
	var hist *history.Store
	if cfg.History.Enabled {
		histPath, err := cfg.HistoryPath()
		if err == nil {
			hist, err = history.Open(histPath)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: exchange log disabled: %v\n", err)
		} else {
			defer hist.Close()
		}
	}

	var sessions *storage.SessionStore
	sessionsDir, err := cfg.SessionsDir()
	if err == nil {
		sessions, err = storage.NewSessionStoreWithDir(sessionsDir)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: session storage disabled: %v\n", err)
		sessions = nil
	} else {
		sessions.MaxSessions = cfg.Sessions.MaxSessions
	}

	resume := *sessionID
	if resume == "last" {
		resume = ""
		if sessions != nil {
			last, err := sessions.LoadLast()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: no saved session to resume: %v\n", err)
			} else {
				resume = last.ID
				// The saved mode wins unless --mode was given.
				if m, err := model.ParseMode(last.Mode); err == nil && *modeFlag == "" {
					controller.SetMode(m)
				}
			}
		}
	}
	if resume != "" {
		controller.AdoptSession(resume)
	}

	// Piped input cannot drive the TUI.
	if *plain || !cli.IsStdinTTY() {
		runREPL(controller, client, hist, sessions, resume)
		return
	}
	// The mode picker only shows when neither a mode nor a session was
	// given on the command line.
	runTUI(cfg, controller, client, hist, sessions, *modeFlag != "" || resume != "")
}

// resolveMode parses the configured mode; ok is false when unset.
func resolveMode(s string) (model.Mode, bool) {
	if s == "" {
		return model.ModeEntrepreneur, false
	}
	mode, err := model.ParseMode(s)
	if err != nil {
		return model.ModeEntrepreneur, false
	}
	return mode, true
}

// runTUI starts the full-screen interface.
func runTUI(cfg *config.Config, controller *session.Controller, client *api.Client, hist *history.Store, sessions *storage.SessionStore, skipModeSelect bool) {
	m := chat.New(chat.Options{
		Client:         client,
		Controller:     controller,
		History:        hist,
		Sessions:       sessions,
		Theme:          styles.NewThemeForMode(cfg.UI.Theme),
		SkipModeSelect: skipModeSelect,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Config file edits land in the running program as reload messages.
	if watcher, err := config.NewWatcher(func(next *config.Config) {
		p.Send(chat.ConfigReloadMsg{Config: next})
	}); err == nil {
		if err := watcher.Watch(); err == nil {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running venture: %v\n", err)
		os.Exit(1)
	}
}

// runREPL starts the plain-terminal loop.
func runREPL(controller *session.Controller, client *api.Client, hist *history.Store, sessions *storage.SessionStore, sessionID string) {
	ctx := context.Background()

	if err := client.Health(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", api.UserMessage(err))
	}

	// Config file edits repoint the client; the next request uses the
	// new server URL.
	if watcher, err := config.NewWatcher(func(next *config.Config) {
		client.SetBaseURL(next.Server.URL)
	}); err == nil {
		if err := watcher.Watch(); err == nil {
			defer watcher.Close()
		}
	}
	if sessionID != "" {
		if err := controller.Refresh(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not resume session %s: %s\n",
				sessionID, api.UserMessage(err))
		}
	}

	repl := cli.NewREPL(controller, client, hist, sessions)
	if err := repl.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
