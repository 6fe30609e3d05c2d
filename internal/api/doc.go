// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the venture planning
// backend: sending chat turns, fetching session snapshots, clearing
// sessions, listing models, and health checks.
//
// Every response field carrying an enumerated value is parsed into the
// closed types in internal/model before it leaves this package. Errors
// are categorized into a small taxonomy (ClientError) whose messages
// are user-facing; the UI shows UserMessage(err) verbatim.
package api
