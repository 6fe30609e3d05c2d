// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "fmt"

// =============================================================================
// LANGUAGE MODEL ID
// =============================================================================

// ModelID identifies one of the language models the backend can serve.
// The authoritative list comes from GET /models; this type covers the
// models the backend is known to offer so the client can render them
// without an extra round trip.
type ModelID string

const (
	ModelGPT4o      ModelID = "gpt-4o"
	ModelGPT4oMini  ModelID = "gpt-4o-mini"
	ModelGPT4Turbo  ModelID = "gpt-4-turbo"
	ModelGPT4       ModelID = "gpt-4"
	ModelGPT35Turbo ModelID = "gpt-3.5-turbo"
)

// ModelIDs lists the known models in presentation order.
var ModelIDs = []ModelID{
	ModelGPT4o,
	ModelGPT4oMini,
	ModelGPT4Turbo,
	ModelGPT4,
	ModelGPT35Turbo,
}

// DefaultModel is used when the server does not report one.
const DefaultModel = ModelGPT4oMini

// ParseModelID converts a wire value into a ModelID.
func ParseModelID(s string) (ModelID, error) {
	for _, m := range ModelIDs {
		if ModelID(s) == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown model %q", s)
}

// String returns the wire representation of the model id.
func (m ModelID) String() string {
	return string(m)
}

// DisplayName returns the marketing name for the model.
func (m ModelID) DisplayName() string {
	switch m {
	case ModelGPT4o:
		return "GPT-4o"
	case ModelGPT4oMini:
		return "GPT-4o mini"
	case ModelGPT4Turbo:
		return "GPT-4 Turbo"
	case ModelGPT4:
		return "GPT-4"
	case ModelGPT35Turbo:
		return "GPT-3.5 Turbo"
	default:
		return string(m)
	}
}

// IsDefault reports whether this is the fallback model.
func (m ModelID) IsDefault() bool {
	return m == DefaultModel
}
