// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "fmt"

// =============================================================================
// PLANNING MODE
// =============================================================================

// Mode selects the assistant's overall posture: building a plan from
// scratch, or diagnosing and improving an existing business.
type Mode string

const (
	ModeEntrepreneur Mode = "entrepreneur"
	ModeConsultant   Mode = "consultant"
)

// Modes lists every valid mode in presentation order.
var Modes = []Mode{ModeEntrepreneur, ModeConsultant}

// ParseMode converts a wire value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeEntrepreneur, ModeConsultant:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// String returns the wire representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// DisplayName returns a human-readable name for the mode.
func (m Mode) DisplayName() string {
	switch m {
	case ModeEntrepreneur:
		return "Entrepreneur"
	case ModeConsultant:
		return "Consultant"
	default:
		return string(m)
	}
}

// Tagline returns the one-line pitch shown on the mode card.
func (m Mode) Tagline() string {
	switch m {
	case ModeEntrepreneur:
		return "Start a new business from an idea"
	case ModeConsultant:
		return "Improve a business you already run"
	default:
		return ""
	}
}

// Features returns the three selling points shown under each mode card.
func (m Mode) Features() []string {
	switch m {
	case ModeEntrepreneur:
		return []string{"Idea Incubation", "Market Intelligence", "Growth Blueprint"}
	case ModeConsultant:
		return []string{"Deep Diagnosis", "Strategic Solutions", "Performance Boost"}
	default:
		return nil
	}
}
