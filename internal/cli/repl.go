// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the plain-terminal REPL for venture, used when
// stdin is not a TTY or the user passes --plain. It offers the same
// conversation, slash commands, and structured question flow as the
// TUI, rendered line by line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/venture-tui/internal/api"
	"github.com/jeranaias/venture-tui/internal/config"
	"github.com/jeranaias/venture-tui/internal/history"
	"github.com/jeranaias/venture-tui/internal/model"
	"github.com/jeranaias/venture-tui/internal/session"
	"github.com/jeranaias/venture-tui/internal/storage"
	"github.com/jeranaias/venture-tui/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader wraps liner with persistent input history.
type LineReader struct {
	line        *liner.State
	historyFile string
}

// NewLineReader creates a reader with history loaded from the config
// directory.
func NewLineReader() *LineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	r := &LineReader{
		line:        line,
		historyFile: filepath.Join(configDir, "input_history"),
	}
	r.loadHistory()
	return r
}

func (r *LineReader) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line, recording non-empty input in the history.
func (r *LineReader) ReadInput(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and releases the terminal.
func (r *LineReader) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	r.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the plain-terminal conversation loop.
type REPL struct {
	controller *session.Controller
	client     *api.Client
	history    *history.Store
	sessions   *storage.SessionStore
	input      *LineReader

	startTime time.Time
	turns     int
}

// NewREPL creates a REPL. history and sessions may be nil when those
// features are disabled.
func NewREPL(controller *session.Controller, client *api.Client, hist *history.Store, sessions *storage.SessionStore) *REPL {
	return &REPL{
		controller: controller,
		client:     client,
		history:    hist,
		sessions:   sessions,
		startTime:  time.Now(),
	}
}

// Run executes the conversation loop until the user exits.
func (r *REPL) Run(ctx context.Context) error {
	r.input = NewLineReader()
	defer r.input.Close()

	r.printWelcome()

	for {
		input, err := r.input.ReadInput(promptStyle.Render("venture> "))
		if err != nil {
			// Ctrl+C or Ctrl+D exits gracefully.
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println()
			}
			r.printExitSummary()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			cont, err := r.handleSlashCommand(ctx, input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !cont {
				r.printExitSummary()
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			r.printExitSummary()
			return nil
		}

		if err := r.processTurn(ctx, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("[Error]"), api.UserMessage(err))
		}
	}
}

// =============================================================================
// TURN PROCESSING
// =============================================================================

// processTurn sends one user message and prints the reply, then walks
// any structured questions the advisor asks.
func (r *REPL) processTurn(ctx context.Context, input string) error {
	resp, err := r.controller.Send(ctx, input)
	if err != nil {
		return err
	}

	r.printReply(resp)
	r.recordExchange(input, resp.Message)
	r.turns++

	// Structured questions continue the turn until the advisor has
	// what it needs or the user abandons the form.
	for resp != nil && len(resp.Questions) > 0 {
		responses, ok := r.askQuestions(resp.Questions)
		if !ok {
			fmt.Println(infoStyle.Render("[Questions dismissed]"))
			return nil
		}

		req, ok := r.controller.BeginStructuredSend(responses)
		if !ok {
			return nil
		}
		next, err := r.client.SendChat(ctx, req)
		if err != nil {
			r.controller.ApplyFailure(err)
			return err
		}
		r.controller.ApplyResponse(next)
		r.printReply(next)
		r.recordExchange(model.StructuredResponsePlaceholder, next.Message)
		r.turns++
		resp = next
	}
	return nil
}

// printReply renders the assistant reply and any transition notices.
func (r *REPL) printReply(resp *api.ChatResponse) {
	fmt.Println()
	displayReply(resp.Agent.DisplayName(), resp.Message)

	if resp.IsModuleTransition {
		info := resp.CurrentModule.Info()
		fmt.Println(commandStyle.Render("[Module] " + info.Icon + " " + info.Title))
		fmt.Println()
	}
}

// askQuestions prompts for each structured question in order. Returns
// ok=false when the user aborts with Ctrl+C.
func (r *REPL) askQuestions(questions []model.StructuredQuestion) ([]model.StructuredResponse, bool) {
	answers := make(map[string]string)

	for i, q := range questions {
		fmt.Printf("%s %s",
			infoStyle.Render(fmt.Sprintf("[%d/%d]", i+1, len(questions))),
			q.Question)
		if q.Required {
			fmt.Print(errorStyle.Render(" *"))
		}
		fmt.Println()

		if q.Kind == model.QuestionButtons {
			for j, opt := range q.Options {
				fmt.Printf("  %d. %s\n", j+1, opt)
			}
			fmt.Println(infoStyle.Render("  Pick a number, or type your own answer"))
		}

		for {
			answer, err := r.input.ReadInput("  > ")
			if err != nil {
				return nil, false
			}
			answer = strings.TrimSpace(answer)

			// A number picks the matching option.
			if q.Kind == model.QuestionButtons && answer != "" {
				if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(q.Options) {
					answer = q.Options[n-1]
				}
			}

			if answer == "" && q.Required {
				fmt.Println(warningStyle.Render("  An answer is required"))
				continue
			}
			if answer != "" {
				answers[q.ID] = answer
			}
			break
		}
	}

	return model.BuildResponses(questions, answers), true
}

// recordExchange logs a completed turn. Best effort.
func (r *REPL) recordExchange(prompt, reply string) {
	if r.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = r.history.Record(ctx, history.Exchange{
		SessionID: r.controller.SessionID(),
		Mode:      r.controller.Mode().String(),
		Module:    r.controller.CurrentModule().String(),
		Agent:     r.controller.CurrentAgent().String(),
		Model:     r.controller.ActiveModel().String(),
		Prompt:    prompt,
		Reply:     reply,
	})
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes a slash command. Returns cont=false to
// exit the loop.
func (r *REPL) handleSlashCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		r.printHelp()
		return true, nil

	case "/clear", "/c", "/new":
		mode := r.controller.Mode()
		if err := r.controller.Reset(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "%s server session not cleared: %s\n",
				warningStyle.Render("[Warning]"), api.UserMessage(err))
		}
		r.controller.SetMode(mode)
		fmt.Println(commandStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/model", "/m":
		return r.handleModelCommand(ctx, args)

	case "/models":
		return r.handleModelsCommand(ctx)

	case "/module":
		return r.handleModuleCommand(args)

	case "/next", "/n":
		return r.handleNextCommand()

	case "/status", "/s":
		r.printStatus()
		return true, nil

	case "/history":
		return r.handleHistoryCommand(ctx, args)

	case "/save":
		return r.handleSaveCommand()

	case "/sessions":
		return r.handleSessionsCommand()

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

func (r *REPL) handleModelCommand(ctx context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		fmt.Printf("%s Current model: %s\n",
			infoStyle.Render("[Model]"),
			commandStyle.Render(r.controller.ActiveModel().DisplayName()))
		return true, nil
	}

	id, err := model.ParseModelID(args[0])
	if err != nil {
		return true, fmt.Errorf("unknown model '%s' (try /models)", args[0])
	}
	r.controller.SelectModel(id)
	fmt.Printf("%s Switched to model: %s\n",
		commandStyle.Render("[OK]"), id.DisplayName())
	return true, nil
}

func (r *REPL) handleModelsCommand(ctx context.Context) (bool, error) {
	models, err := r.client.ListModels(ctx)
	if err != nil {
		return true, err
	}

	fmt.Println()
	fmt.Println(welcomeStyle.Render("Available Models"))
	for _, m := range models {
		marker := "  "
		if m.Current {
			marker = commandStyle.Render("* ")
		}
		line := fmt.Sprintf("%s%-16s %s", marker, m.ID, m.Name)
		if m.Default {
			line += infoStyle.Render(" (default)")
		}
		fmt.Println(line)
		if m.Description != "" {
			fmt.Println(infoStyle.Render("    " + m.Description))
		}
	}
	fmt.Println()
	return true, nil
}

func (r *REPL) handleModuleCommand(args []string) (bool, error) {
	if len(args) == 0 {
		r.printModules()
		return true, nil
	}

	mod, err := model.ParseModuleType(args[0])
	if err != nil {
		return true, fmt.Errorf("unknown module '%s'", args[0])
	}
	if err := r.controller.SelectModule(mod); err != nil {
		return true, err
	}
	info := mod.Info()
	fmt.Println(commandStyle.Render("[OK] Switched to " + info.Title))
	return true, nil
}

func (r *REPL) handleNextCommand() (bool, error) {
	_, transition, done, err := r.controller.AdvanceModule()
	if err != nil {
		return true, err
	}
	if done {
		fmt.Println(commandStyle.Render(model.PlanCompleteMessage))
		return true, nil
	}
	fmt.Println(commandStyle.Render(transition))
	return true, nil
}

func (r *REPL) handleHistoryCommand(ctx context.Context, args []string) (bool, error) {
	if r.history == nil {
		fmt.Println(warningStyle.Render("[History is disabled]"))
		return true, nil
	}

	query := strings.Join(args, " ")
	var (
		exchanges []history.Exchange
		err       error
	)
	if query == "" {
		exchanges, err = r.history.Recent(ctx, 10)
	} else {
		exchanges, err = r.history.Search(ctx, query, 10)
	}
	if err != nil {
		return true, err
	}
	if len(exchanges) == 0 {
		fmt.Println(infoStyle.Render("[No matching exchanges]"))
		return true, nil
	}

	fmt.Println()
	for _, ex := range exchanges {
		prompt := util.TruncateRunes(strings.ReplaceAll(ex.Prompt, "\n", " "), 80)
		fmt.Printf("  %s  %s\n",
			infoStyle.Render(ex.CreatedAt.Format("2006-01-02 15:04")),
			prompt)
	}
	fmt.Println()
	return true, nil
}

func (r *REPL) handleSaveCommand() (bool, error) {
	if r.sessions == nil {
		fmt.Println(warningStyle.Render("[Session storage is disabled]"))
		return true, nil
	}
	id := r.controller.SessionID()
	if id == "" {
		fmt.Println(warningStyle.Render("[Nothing to save yet]"))
		return true, nil
	}

	err := r.sessions.Save(&storage.StoredSession{
		ID:            id,
		Mode:          r.controller.Mode().String(),
		CurrentModule: r.controller.CurrentModule().String(),
		Model:         r.controller.ActiveModel().String(),
		Messages:      r.controller.Messages(),
	})
	if err != nil {
		return true, err
	}
	fmt.Println(commandStyle.Render("[OK] Session saved: " + id))
	return true, nil
}

func (r *REPL) handleSessionsCommand() (bool, error) {
	if r.sessions == nil {
		fmt.Println(warningStyle.Render("[Session storage is disabled]"))
		return true, nil
	}
	metas, err := r.sessions.List()
	if err != nil {
		return true, err
	}
	if len(metas) == 0 {
		fmt.Println(infoStyle.Render("[No saved sessions]"))
		return true, nil
	}

	fmt.Println()
	for _, meta := range metas {
		fmt.Printf("  %s  %s  %d messages\n",
			commandStyle.Render(meta.ID),
			infoStyle.Render(meta.UpdatedAt.Format("2006-01-02 15:04")),
			meta.MessageCount)
		if meta.Preview != "" {
			fmt.Println(infoStyle.Render("    " + meta.Preview))
		}
	}
	fmt.Println()
	return true, nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func (r *REPL) printWelcome() {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("Welcome to Utopia AI"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Mode: "),
		commandStyle.Render(r.controller.Mode().DisplayName()))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(r.controller.ActiveModel().DisplayName()))
	fmt.Println()
	fmt.Println(infoStyle.Render("I'm here to help you build your business plan."))
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

func (r *REPL) printHelp() {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/clear, /c", "Start a fresh conversation"},
		{"/model [id]", "Show or switch model"},
		{"/models", "List available models"},
		{"/module [name]", "Show modules or jump to one"},
		{"/next, /n", "Advance to the next module"},
		{"/status, /s", "Show session status"},
		{"/history [query]", "Browse the exchange log"},
		{"/save", "Save the session locally"},
		{"/sessions", "List saved sessions"},
		{"/quit, /q", "Exit"},
	}
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-17s", c.cmd)),
			infoStyle.Render(c.desc))
	}
	fmt.Println()
}

// printModules lists the plan modules with their progression status.
func (r *REPL) printModules() {
	snap := r.controller.Session()
	var completed, started model.ModuleSet
	hasData := func(model.ModuleType) bool { return false }
	if snap != nil {
		completed = snap.Completed()
		started = snap.Started()
		hasData = snap.BucketHasData
	}
	current := r.controller.CurrentModule()

	fmt.Println()
	for _, mod := range model.ModuleOrder {
		info := mod.Info()
		var marker string
		switch {
		case completed[mod]:
			marker = commandStyle.Render("[OK]")
		case mod == current:
			marker = promptStyle.Render("[*] ")
		case model.Accessible(mod, started, hasData):
			marker = "[ ] "
		default:
			marker = infoStyle.Render("[-] ")
		}
		line := fmt.Sprintf("  %s %s %s %s", marker, info.Icon, mod.String(), info.Title)
		if mod == current {
			line += infoStyle.Render("  (current)")
		}
		fmt.Println(line)
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("Use /module <name> to jump to an unlocked module"))
	fmt.Println()
}

func (r *REPL) printStatus() {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("Session Status"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	if id := r.controller.SessionID(); id != "" {
		fmt.Printf("  %s %s\n", infoStyle.Render("Session:"), id)
	} else {
		fmt.Printf("  %s %s\n", infoStyle.Render("Session:"), infoStyle.Render("(not started)"))
	}
	fmt.Printf("  %s %s\n", infoStyle.Render("Mode:   "), r.controller.Mode().DisplayName())
	info := r.controller.CurrentModule().Info()
	fmt.Printf("  %s %s\n", infoStyle.Render("Module: "), info.Title)
	fmt.Printf("  %s %s\n", infoStyle.Render("Model:  "), r.controller.ActiveModel().DisplayName())
	if snap := r.controller.Session(); snap != nil {
		fmt.Printf("  %s %d%%\n", infoStyle.Render("Progress:"),
			model.ProgressPercent(snap.Completed()))
	}
	fmt.Printf("  %s %d\n", infoStyle.Render("Turns:  "), r.turns)
	fmt.Println()
}

func (r *REPL) printExitSummary() {
	if r.turns == 0 {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}
	elapsed := time.Since(r.startTime).Round(time.Second)
	fmt.Println()
	fmt.Printf("%s %d turns in %s\n",
		infoStyle.Render("[Session]"), r.turns, elapsed)
	fmt.Println(infoStyle.Render("Goodbye!"))
}
