// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the domain types for venture: planning modes,
// agents, the business-plan module progression, chat messages, and
// session state as exchanged with the planning backend.
//
// All enumerated wire values are parsed into closed types at the API
// boundary. Code inside this module never sees an invalid Mode,
// AgentType, ModuleType, or ModelID.
package model
