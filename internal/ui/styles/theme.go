// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/venture-tui/internal/model"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style
	HeaderBrand    lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SystemBubble    lipgloss.Style
	AgentLabel      lipgloss.Style
	Timestamp       lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputText        lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusModel  lipgloss.Style
	StatusModule lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// DASHBOARD STYLES
	// ==========================================================================

	DashboardBox       lipgloss.Style
	ModuleRow          lipgloss.Style
	ModuleRowActive    lipgloss.Style
	ModuleRowCompleted lipgloss.Style
	ModuleRowLocked    lipgloss.Style
	ProgressFill       lipgloss.Style
	ProgressEmpty      lipgloss.Style
	ProgressLabel      lipgloss.Style

	// ==========================================================================
	// PICKER AND CARD STYLES
	// ==========================================================================

	PickerBox      lipgloss.Style
	PickerItem     lipgloss.Style
	PickerSelected lipgloss.Style
	PickerBadge    lipgloss.Style
	PickerDesc     lipgloss.Style

	ModeCard         lipgloss.Style
	ModeCardSelected lipgloss.Style
	ModeCardTitle    lipgloss.Style
	ModeCardTagline  lipgloss.Style
	ModeCardFeature  lipgloss.Style

	// ==========================================================================
	// STRUCTURED QUESTION FORM STYLES
	// ==========================================================================

	FormBox        lipgloss.Style
	FormQuestion   lipgloss.Style
	FormRequired   lipgloss.Style
	FormOption     lipgloss.Style
	FormOptionSel  lipgloss.Style
	FormHint       lipgloss.Style

	// ==========================================================================
	// SPINNER AND LOADING STYLES
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style

	// ==========================================================================
	// ERROR AND STATUS STYLES
	// ==========================================================================

	ErrorBox     lipgloss.Style
	ErrorTitle   lipgloss.Style
	ErrorMessage lipgloss.Style
	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	InfoStyle    lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	return NewThemeForMode("auto")
}

// NewThemeForMode builds a theme for a configured background mode:
// "dark", "light", or "auto" (detect from the terminal). The adaptive
// color resolution follows the chosen background.
func NewThemeForMode(mode string) *Theme {
	colorProfile := termenv.ColorProfile()
	hasTrueColor := colorProfile == termenv.TrueColor

	var isDark bool
	switch mode {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: hasTrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// App container
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 2).
		Align(lipgloss.Center)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 2).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		Background(AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 2).
		MarginRight(4)

	t.SystemBubble = lipgloss.NewStyle().
		Foreground(SystemBubbleFg).
		Background(SystemBubbleBg).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(SystemBubbleBorder).
		Padding(0, 2).
		Align(lipgloss.Center)

	t.AgentLabel = lipgloss.NewStyle().
		Bold(true)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.InputText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusModel = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.StatusModule = lipgloss.NewStyle().
		Foreground(Blue).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Dashboard
	t.DashboardBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.ModuleRow = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.ModuleRowActive = lipgloss.NewStyle().
		Foreground(ModuleActive).
		Bold(true).
		Padding(0, 1)

	t.ModuleRowCompleted = lipgloss.NewStyle().
		Foreground(ModuleCompleted).
		Padding(0, 1)

	t.ModuleRowLocked = lipgloss.NewStyle().
		Foreground(ModuleLocked).
		Padding(0, 1)

	t.ProgressFill = lipgloss.NewStyle().
		Foreground(Emerald)

	t.ProgressEmpty = lipgloss.NewStyle().
		Foreground(OverlayDim)

	t.ProgressLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Pickers
	t.PickerBox = lipgloss.NewStyle().
		Background(Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.PickerItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.PickerSelected = lipgloss.NewStyle().
		Background(Purple).
		Foreground(TextInverse).
		Bold(true).
		Padding(0, 1)

	t.PickerBadge = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.PickerDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Mode cards
	t.ModeCard = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(1, 2).
		MarginRight(2)

	t.ModeCardSelected = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(1, 2).
		MarginRight(2)

	t.ModeCardTitle = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.ModeCardTagline = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.ModeCardFeature = lipgloss.NewStyle().
		Foreground(TextPrimary)

	// Structured question forms
	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(1, 2)

	t.FormQuestion = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Bold(true)

	t.FormRequired = lipgloss.NewStyle().
		Foreground(Rose)

	t.FormOption = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.FormOptionSel = lipgloss.NewStyle().
		Background(Blue).
		Foreground(TextInverse).
		Bold(true).
		Padding(0, 1)

	t.FormHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Spinner and loading
	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Errors
	t.ErrorBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Rose).
		Background(RoseDeep).
		Padding(1, 2)

	t.ErrorTitle = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.ErrorMessage = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SuccessStyle = lipgloss.NewStyle().
		Foreground(SuccessHighContrast).
		Bold(true)

	t.ErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorHighContrast).
		Bold(true)

	t.WarningStyle = lipgloss.NewStyle().
		Foreground(WarningHighContrast).
		Bold(true)

	t.InfoStyle = lipgloss.NewStyle().
		Foreground(InfoHighContrast).
		Bold(true)
}

// AgentColor returns the accent color for an advisor.
func AgentColor(agent model.AgentType) lipgloss.AdaptiveColor {
	switch agent {
	case model.AgentIdea:
		return AgentIdea
	case model.AgentStrategy:
		return AgentStrategy
	case model.AgentFinance:
		return AgentFinance
	case model.AgentOperations:
		return AgentOperations
	default:
		return Purple
	}
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
