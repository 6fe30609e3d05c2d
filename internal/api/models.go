// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/jeranaias/venture-tui/internal/model"
)

// =============================================================================
// MODEL LISTING
// =============================================================================

// ModelInfo describes one language model the backend offers.
type ModelInfo struct {
	ID          model.ModelID
	Name        string
	Description string
	Default     bool
	Current     bool
}

type modelsResponseWire struct {
	Models            []string          `json:"models"`
	ModelDescriptions map[string]string `json:"modelDescriptions"`
	DefaultModel      string            `json:"defaultModel"`
	CurrentModel      string            `json:"currentModel,omitempty"`
}

// ListModels retrieves the models the backend offers. Models this
// client does not know are dropped so the picker never shows an entry
// it cannot request.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var wire modelsResponseWire
	if err := decode(resp, &wire); err != nil {
		return nil, err
	}

	infos := make([]ModelInfo, 0, len(wire.Models))
	for _, raw := range wire.Models {
		id, err := model.ParseModelID(raw)
		if err != nil {
			continue
		}
		desc := wire.ModelDescriptions[raw]
		if desc == "" {
			desc = "AI model"
		}
		infos = append(infos, ModelInfo{
			ID:          id,
			Name:        id.DisplayName(),
			Description: desc,
			Default:     raw == wire.DefaultModel,
			Current:     raw == wire.CurrentModel,
		})
	}
	return infos, nil
}
