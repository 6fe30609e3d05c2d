// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// STRUCTURED QUESTIONS
// =============================================================================

// QuestionKind selects the input control for a structured question.
type QuestionKind string

const (
	// QuestionText is a single-line free-text answer.
	QuestionText QuestionKind = "text"
	// QuestionTextarea is a multi-line free-text answer.
	QuestionTextarea QuestionKind = "textarea"
	// QuestionButtons offers preset options plus a free-text escape hatch.
	QuestionButtons QuestionKind = "buttons"
)

// FreeTextPrompt is the placeholder for the free-text escape hatch on
// buttons questions.
const FreeTextPrompt = "Or describe your specific situation..."

// StructuredQuestion is a form field the assistant attaches to a
// message when it wants specific answers rather than free chat.
type StructuredQuestion struct {
	ID          string       `json:"id"`
	Question    string       `json:"question"`
	Kind        QuestionKind `json:"type"`
	Placeholder string       `json:"placeholder,omitempty"`
	Options     []string     `json:"options,omitempty"`
	Required    bool         `json:"required,omitempty"`
}

// StructuredResponse is the user's answer to one structured question.
type StructuredResponse struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Response   string `json:"response"`
}

// Answered reports whether every required question has a non-empty
// answer in the given responses.
func Answered(questions []StructuredQuestion, responses map[string]string) bool {
	for _, q := range questions {
		if q.Required && responses[q.ID] == "" {
			return false
		}
	}
	return true
}

// BuildResponses pairs the collected answers with their questions,
// preserving question order. Unanswered questions get empty responses.
func BuildResponses(questions []StructuredQuestion, answers map[string]string) []StructuredResponse {
	responses := make([]StructuredResponse, 0, len(questions))
	for _, q := range questions {
		responses = append(responses, StructuredResponse{
			QuestionID: q.ID,
			Question:   q.Question,
			Response:   answers[q.ID],
		})
	}
	return responses
}
