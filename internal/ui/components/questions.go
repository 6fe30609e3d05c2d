// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/venture-tui/internal/model"
	"github.com/jeranaias/venture-tui/internal/ui/styles"
)

// =============================================================================
// STRUCTURED QUESTION FORM
// =============================================================================

// QuestionForm walks the user through the structured questions attached
// to an assistant message, one question at a time. Buttons questions
// also offer a free-text escape hatch.
type QuestionForm struct {
	theme     *styles.Theme
	questions []model.StructuredQuestion
	answers   map[string]string

	idx          int
	optionCursor int
	freeText     bool
	input        string
}

// NewQuestionForm creates a form for the given questions.
func NewQuestionForm(theme *styles.Theme, questions []model.StructuredQuestion) *QuestionForm {
	return &QuestionForm{
		theme:     theme,
		questions: questions,
		answers:   make(map[string]string),
	}
}

// Active reports whether the form still has questions to answer.
func (f *QuestionForm) Active() bool {
	return f.idx < len(f.questions)
}

// Current returns the question being answered.
func (f *QuestionForm) Current() (model.StructuredQuestion, bool) {
	if !f.Active() {
		return model.StructuredQuestion{}, false
	}
	return f.questions[f.idx], true
}

// InFreeText reports whether the buttons escape hatch is engaged.
func (f *QuestionForm) InFreeText() bool {
	return f.freeText
}

// TypeRune appends typed text to the current answer.
func (f *QuestionForm) TypeRune(r rune) {
	f.input += string(r)
}

// TypeString appends a string (e.g. a paste) to the current answer.
func (f *QuestionForm) TypeString(s string) {
	f.input += s
}

// Backspace removes the last rune from the current answer.
func (f *QuestionForm) Backspace() {
	runes := []rune(f.input)
	if len(runes) > 0 {
		f.input = string(runes[:len(runes)-1])
	}
}

// Newline inserts a line break (textarea questions only).
func (f *QuestionForm) Newline() {
	if q, ok := f.Current(); ok && q.Kind == model.QuestionTextarea {
		f.input += "\n"
	}
}

// MoveUp moves the option cursor up (buttons questions).
func (f *QuestionForm) MoveUp() {
	if f.optionCursor > 0 {
		f.optionCursor--
	}
}

// MoveDown moves the option cursor down (buttons questions).
func (f *QuestionForm) MoveDown() {
	q, ok := f.Current()
	if !ok {
		return
	}
	// The last slot is the free-text escape hatch.
	if f.optionCursor < len(q.Options) {
		f.optionCursor++
	}
}

// Submit commits the current answer and advances to the next question.
// It returns false when a required question is left unanswered.
func (f *QuestionForm) Submit() bool {
	q, ok := f.Current()
	if !ok {
		return false
	}

	var answer string
	switch {
	case q.Kind == model.QuestionButtons && !f.freeText:
		if f.optionCursor >= len(q.Options) {
			// Escape hatch selected: switch to typing
			f.freeText = true
			return false
		}
		answer = q.Options[f.optionCursor]
	default:
		answer = strings.TrimSpace(f.input)
	}

	if answer == "" && q.Required {
		return false
	}

	f.answers[q.ID] = answer
	f.idx++
	f.optionCursor = 0
	f.freeText = false
	f.input = ""
	return true
}

// Skip skips an optional question.
func (f *QuestionForm) Skip() bool {
	q, ok := f.Current()
	if !ok || q.Required {
		return false
	}
	f.answers[q.ID] = ""
	f.idx++
	f.optionCursor = 0
	f.freeText = false
	f.input = ""
	return true
}

// Complete reports whether every required question has been answered.
func (f *QuestionForm) Complete() bool {
	return !f.Active() && model.Answered(f.questions, f.answers)
}

// Responses returns the collected answers paired with their questions.
func (f *QuestionForm) Responses() []model.StructuredResponse {
	return model.BuildResponses(f.questions, f.answers)
}

// =============================================================================
// RENDERING
// =============================================================================

// Render renders the form for the current question.
func (f *QuestionForm) Render(width int) string {
	q, ok := f.Current()
	if !ok {
		return ""
	}

	var lines []string

	progress := fmt.Sprintf("Question %d of %d", f.idx+1, len(f.questions))
	lines = append(lines, f.theme.FormHint.Render(progress), "")

	label := q.Question
	if q.Required {
		label += f.theme.FormRequired.Render(" *")
	}
	lines = append(lines, f.theme.FormQuestion.Render(label), "")

	switch {
	case q.Kind == model.QuestionButtons && !f.freeText:
		for i, opt := range q.Options {
			if i == f.optionCursor {
				lines = append(lines, f.theme.FormOptionSel.Render("> "+opt))
			} else {
				lines = append(lines, f.theme.FormOption.Render("  "+opt))
			}
		}
		hatch := model.FreeTextPrompt
		if f.optionCursor == len(q.Options) {
			lines = append(lines, f.theme.FormOptionSel.Render("> "+hatch))
		} else {
			lines = append(lines, f.theme.FormHint.Render("  "+hatch))
		}
		lines = append(lines, "", f.theme.ShortcutDesc.Render("↑/↓ choose  enter select"))

	default:
		if f.input == "" {
			placeholder := q.Placeholder
			if placeholder == "" {
				placeholder = "Type your answer..."
			}
			lines = append(lines, f.theme.InputPlaceholder.Render(placeholder))
		} else {
			lines = append(lines, f.theme.InputText.Render(f.input+"█"))
		}
		hint := "enter submit"
		if q.Kind == model.QuestionTextarea {
			hint = "enter submit  alt+enter newline"
		}
		if !q.Required {
			hint += "  esc skip"
		}
		lines = append(lines, "", f.theme.ShortcutDesc.Render(hint))
	}

	box := f.theme.FormBox
	if width > 8 {
		box = box.Width(width - 4)
	}
	return box.Render(strings.Join(lines, "\n"))
}
