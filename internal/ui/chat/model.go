// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/venture-tui/internal/api"
	"github.com/jeranaias/venture-tui/internal/config"
	"github.com/jeranaias/venture-tui/internal/history"
	"github.com/jeranaias/venture-tui/internal/model"
	"github.com/jeranaias/venture-tui/internal/session"
	"github.com/jeranaias/venture-tui/internal/storage"
	"github.com/jeranaias/venture-tui/internal/ui/components"
	"github.com/jeranaias/venture-tui/internal/ui/styles"
	"github.com/jeranaias/venture-tui/internal/util"
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the root Bubble Tea model for the chat interface.
type Model struct {
	theme      *styles.Theme
	controller *session.Controller
	client     *api.Client
	history    *history.Store
	sessions   *storage.SessionStore

	// Components
	header      *components.Header
	dashboard   *components.Dashboard
	modeSelect  *components.ModeSelect
	modelPicker *components.ModelPicker
	toasts      *components.ToastManager
	activeForm  *components.QuestionForm

	// Bubbles
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	// Markdown rendering. Nil when glamour init failed; messages then
	// render as plain text.
	renderer      *glamour.TermRenderer
	rendererWidth int

	// Layout
	width  int
	height int
	ready  bool

	// Overlays
	choosingMode    bool
	showDashboard   bool
	showModelPicker bool
	showHelp        bool

	// lastPrompt is the user text of the in-flight request, kept for
	// the exchange log.
	lastPrompt string
}

// Options configures a new chat model.
type Options struct {
	Client     *api.Client
	Controller *session.Controller
	History    *history.Store
	Sessions   *storage.SessionStore
	Theme      *styles.Theme

	// SkipModeSelect starts directly in the chat view, e.g. when a
	// mode was given on the command line or a session was resumed.
	SkipModeSelect bool
}

// New creates the chat model.
func New(opts Options) *Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 30,
	}
	sp.Style = theme.Spinner

	vp := viewport.New(80, 20)

	m := &Model{
		theme:        theme,
		controller:   opts.Controller,
		client:       opts.Client,
		history:      opts.History,
		sessions:     opts.Sessions,
		header:       components.NewHeader(theme),
		dashboard:    components.NewDashboard(theme),
		modeSelect:   components.NewModeSelect(theme),
		modelPicker:  components.NewModelPicker(theme),
		toasts:       components.NewToastManager(),
		viewport:     vp,
		input:        ti,
		spin:         sp,
		choosingMode: !opts.SkipModeSelect,
	}
	m.initRenderer(80)
	return m
}

// initRenderer builds the glamour renderer for the given wrap width.
func (m *Model) initRenderer(width int) {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = r
	m.rendererWidth = width
}

// Init starts background work: backend health check, model list, and
// the toast ticker.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		checkHealthCmd(m.client),
		loadModelsCmd(m.client),
		components.ToastTickCmd(),
	}
	if id := m.controller.SessionID(); id != "" {
		cmds = append(cmds, refreshSessionCmd(m.client, id))
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles incoming messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.controller.IsLoading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case components.ToastTickMsg:
		m.toasts.TickToasts()
		return m, components.ToastTickCmd()

	case ChatResultMsg:
		return m.handleChatResult(msg)

	case SnapshotMsg:
		// Background refresh. Failures are silent; the next turn
		// refreshes again.
		if msg.Err == nil && msg.Data != nil {
			m.controller.ApplySnapshot(msg.Data)
			m.refreshViewport()
		}
		return m, nil

	case ResetResultMsg:
		if msg.Err != nil {
			m.toasts.AddWarning("Server session could not be cleared: " + api.UserMessage(msg.Err))
		}
		return m, nil

	case ModelsMsg:
		if msg.Err != nil {
			m.toasts.AddWarning("Could not load model list: " + api.UserMessage(msg.Err))
			return m, nil
		}
		m.modelPicker.SetModels(msg.Models, m.controller.ActiveModel())
		return m, nil

	case HealthMsg:
		if msg.Err != nil {
			m.toasts.AddError(api.UserMessage(msg.Err))
		}
		return m, nil

	case HistoryMsg:
		m.showHistory(msg)
		return m, nil

	case SessionSavedMsg:
		if msg.Err != nil {
			m.toasts.AddError("Save failed: " + msg.Err.Error())
		} else {
			m.toasts.AddSuccess("Session saved (" + msg.ID + ")")
		}
		return m, nil

	case ConfigReloadMsg:
		m.applyConfig(msg.Config)
		return m, nil
	}

	return m, nil
}

// handleResize recomputes the layout.
func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	// Header, status bar, input line.
	chromeHeight := 4
	m.viewport.Width = msg.Width
	m.viewport.Height = msg.Height - chromeHeight
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.input.Width = msg.Width - 4

	wrap := msg.Width - 6
	if wrap > 100 {
		wrap = 100
	}
	if wrap != m.rendererWidth {
		m.initRenderer(wrap)
	}

	m.ready = true
	m.refreshViewport()
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C always quits, regardless of overlay.
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch {
	case m.choosingMode:
		return m.handleModeSelectKey(msg)
	case m.showModelPicker:
		return m.handleModelPickerKey(msg)
	case m.showDashboard:
		return m.handleDashboardKey(msg)
	case m.showHelp:
		m.showHelp = false
		return m, nil
	case m.activeForm != nil && m.activeForm.Active():
		return m.handleFormKey(msg)
	}

	return m.handleChatKey(msg)
}

func (m *Model) handleModeSelectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.modeSelect.MoveLeft()
	case "right", "l", "tab":
		m.modeSelect.MoveRight()
	case "enter":
		// Picking a mode starts a fresh logical conversation: the
		// transcript and any server session from the previous mode are
		// dropped. The pending model choice survives.
		selected := m.controller.SelectedModel()
		m.controller.ClearLocal()
		m.controller.SetMode(m.modeSelect.Selected())
		if selected != "" {
			m.controller.SelectModel(selected)
		}
		m.activeForm = nil
		m.choosingMode = false
		m.addWelcome()
		m.refreshViewport()
	case "q", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleModelPickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.modelPicker.MoveUp()
	case "down", "j":
		m.modelPicker.MoveDown()
	case "enter":
		if info, ok := m.modelPicker.Selected(); ok {
			m.selectModel(info.ID)
		}
		m.showModelPicker = false
	case "esc", "q":
		m.showModelPicker = false
	}
	return m, nil
}

func (m *Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "esc", "q", "ctrl+d":
		m.showDashboard = false
		return m, nil
	}

	// Digits jump straight to a module.
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		i := int(key[0] - '1')
		if i < len(model.ModuleOrder) {
			m.enterModule(model.ModuleOrder[i])
			m.showDashboard = false
			m.refreshViewport()
		}
	}
	return m, nil
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := m.activeForm
	q, _ := form.Current()

	switch msg.Type {
	case tea.KeyEnter:
		if msg.Alt && q.Kind == model.QuestionTextarea {
			form.Newline()
			return m, nil
		}
		if form.Submit() && form.Complete() {
			return m.submitForm()
		}
		return m, nil

	case tea.KeyEsc:
		if form.Skip() {
			if form.Complete() {
				return m.submitForm()
			}
			return m, nil
		}
		// Required question: abandon the whole form.
		m.activeForm = nil
		m.refreshViewport()
		return m, nil

	case tea.KeyBackspace:
		form.Backspace()
		return m, nil

	case tea.KeyUp:
		form.MoveUp()
		return m, nil

	case tea.KeyDown:
		form.MoveDown()
		return m, nil

	case tea.KeySpace:
		form.TypeRune(' ')
		return m, nil

	case tea.KeyRunes:
		form.TypeString(string(msg.Runes))
		return m, nil
	}
	return m, nil
}

func (m *Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submitInput()
	case "ctrl+d":
		m.showDashboard = !m.showDashboard
		return m, nil
	case "ctrl+p":
		m.showModelPicker = true
		return m, loadModelsCmd(m.client)
	case "ctrl+n":
		return m.advanceModule()
	case "ctrl+r":
		if id := m.controller.SessionID(); id != "" {
			return m, refreshSessionCmd(m.client, id)
		}
		return m, nil
	case "pgup":
		m.viewport.HalfViewUp()
		return m, nil
	case "pgdown":
		m.viewport.HalfViewDown()
		return m, nil
	case "esc":
		m.input.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

// submitInput sends the current input line, dispatching slash commands
// to the command registry.
func (m *Model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.handleCommand(text)
	}

	req, ok := m.controller.BeginSend(text)
	if !ok {
		return m, nil
	}
	m.lastPrompt = text
	m.input.Reset()
	m.refreshViewport()
	return m, tea.Batch(m.spin.Tick, sendChatCmd(m.client, req))
}

// submitForm ships the collected structured responses.
func (m *Model) submitForm() (tea.Model, tea.Cmd) {
	form := m.activeForm
	m.activeForm = nil

	req, ok := m.controller.BeginStructuredSend(form.Responses())
	if !ok {
		m.refreshViewport()
		return m, nil
	}
	m.lastPrompt = model.StructuredResponsePlaceholder
	m.refreshViewport()
	return m, tea.Batch(m.spin.Tick, sendChatCmd(m.client, req))
}

// handleChatResult folds the backend reply into local state.
func (m *Model) handleChatResult(msg ChatResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		text := m.controller.ApplyFailure(msg.Err)
		if api.IsInvalidModel(msg.Err) {
			m.toasts.AddWarning(text)
		} else {
			m.toasts.AddError(text)
		}
		m.refreshViewport()
		return m, nil
	}

	reply, refresh := m.controller.ApplyResponse(msg.Response)

	var cmds []tea.Cmd
	if refresh {
		cmds = append(cmds, refreshSessionCmd(m.client, m.controller.SessionID()))
	}
	if cmd := m.recordExchange(reply); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if len(msg.Response.Questions) > 0 {
		m.activeForm = components.NewQuestionForm(m.theme, msg.Response.Questions)
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(cmds...)
}

// recordExchange logs the completed turn to the local exchange log.
func (m *Model) recordExchange(reply model.Message) tea.Cmd {
	if m.history == nil || m.lastPrompt == "" {
		return nil
	}
	ex := history.Exchange{
		SessionID: m.controller.SessionID(),
		Mode:      m.controller.Mode().String(),
		Module:    m.controller.CurrentModule().String(),
		Agent:     m.controller.CurrentAgent().String(),
		Model:     m.controller.ActiveModel().String(),
		Prompt:    m.lastPrompt,
		Reply:     reply.Content,
	}
	m.lastPrompt = ""
	return recordExchangeCmd(m.history, ex)
}

// selectModel switches the active model.
func (m *Model) selectModel(id model.ModelID) {
	m.controller.SelectModel(id)
	m.toasts.AddStatus("Model set to " + id.DisplayName())
}

// enterModule moves the module pointer if progression allows it.
func (m *Model) enterModule(mod model.ModuleType) {
	if err := m.controller.SelectModule(mod); err != nil {
		m.toasts.AddError(err.Error())
		return
	}
	info := mod.Info()
	m.toasts.AddStatus("Switched to " + info.Title)
}

// advanceModule moves on to the next module in the progression.
func (m *Model) advanceModule() (tea.Model, tea.Cmd) {
	_, transition, done, err := m.controller.AdvanceModule()
	if err != nil {
		m.toasts.AddError(err.Error())
		return m, nil
	}
	if done {
		m.controller.AddSystemMessage(model.PlanCompleteMessage)
	} else if transition != "" {
		m.controller.AddSystemMessage(transition)
	}
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// applyConfig applies a reloaded config file to the running UI. The
// backend URL takes effect on the next request; the theme is rebuilt
// in place so every component sees the new styles.
func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if m.client != nil {
		m.client.SetBaseURL(cfg.Server.URL)
	}
	*m.theme = *styles.NewThemeForMode(cfg.UI.Theme)
	m.refreshViewport()
	m.toasts.AddStatus("Configuration reloaded")
}

// addWelcome greets the user after a mode was picked.
func (m *Model) addWelcome() {
	if m.controller.MessageCount() > 0 {
		return
	}
	m.controller.AddSystemMessage("Welcome to Utopia AI\n\n" +
		"I'm here to help you build your business plan. What would you like to explore?")
}

// showHistory renders an exchange log query as a system message.
func (m *Model) showHistory(msg HistoryMsg) {
	if msg.Err != nil {
		m.toasts.AddError("History lookup failed: " + msg.Err.Error())
		return
	}
	if len(msg.Exchanges) == 0 {
		if msg.Query == "" {
			m.controller.AddSystemMessage("No history yet.")
		} else {
			m.controller.AddSystemMessage("No history matching '" + msg.Query + "'.")
		}
		m.refreshViewport()
		return
	}

	var b strings.Builder
	if msg.Query == "" {
		b.WriteString("Recent exchanges:\n")
	} else {
		b.WriteString("Exchanges matching '" + msg.Query + "':\n")
	}
	for _, ex := range msg.Exchanges {
		prompt := util.TruncateRunes(ex.Prompt, 60)
		b.WriteString("  " + ex.CreatedAt.Format("2006-01-02 15:04") + "  " + prompt + "\n")
	}
	m.controller.AddSystemMessage(strings.TrimRight(b.String(), "\n"))
	m.refreshViewport()
	m.viewport.GotoBottom()
}

// saveSessionCmd snapshots the current session to local storage.
func (m *Model) saveSessionCmd() tea.Cmd {
	if m.sessions == nil {
		return nil
	}
	if m.controller.SessionID() == "" {
		m.toasts.AddWarning("Nothing to save yet: no server session")
		return nil
	}
	sess := &storage.StoredSession{
		ID:            m.controller.SessionID(),
		Mode:          m.controller.Mode().String(),
		CurrentModule: m.controller.CurrentModule().String(),
		Model:         m.controller.ActiveModel().String(),
		Messages:      m.controller.Messages(),
	}
	store := m.sessions
	return func() tea.Msg {
		err := store.Save(sess)
		return SessionSavedMsg{ID: sess.ID, Err: err}
	}
}
