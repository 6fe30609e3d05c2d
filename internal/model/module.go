// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// =============================================================================
// MODULE TYPE
// =============================================================================

// ModuleType identifies one of the seven business-plan modules.
type ModuleType string

const (
	ModuleIdeaConcept       ModuleType = "idea_concept"
	ModuleTargetMarket      ModuleType = "target_market"
	ModuleValueProposition  ModuleType = "value_proposition"
	ModuleBusinessModel     ModuleType = "business_model"
	ModuleMarketingStrategy ModuleType = "marketing_strategy"
	ModuleOperationsPlan    ModuleType = "operations_plan"
	ModuleFinancialPlan     ModuleType = "financial_plan"
)

// ModuleOrder is the canonical progression through the plan.
var ModuleOrder = []ModuleType{
	ModuleIdeaConcept,
	ModuleTargetMarket,
	ModuleValueProposition,
	ModuleBusinessModel,
	ModuleMarketingStrategy,
	ModuleOperationsPlan,
	ModuleFinancialPlan,
}

// ParseModuleType converts a wire value into a ModuleType.
func ParseModuleType(s string) (ModuleType, error) {
	for _, m := range ModuleOrder {
		if ModuleType(s) == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown module %q", s)
}

// String returns the wire representation of the module.
func (m ModuleType) String() string {
	return string(m)
}

// Index returns the module's position in the progression, or -1 when
// the value is not a known module. Parsed values always have an index.
func (m ModuleType) Index() int {
	for i, mod := range ModuleOrder {
		if mod == m {
			return i
		}
	}
	return -1
}

// Next returns the module after m. ok is false at the end of the plan.
func (m ModuleType) Next() (next ModuleType, ok bool) {
	i := m.Index()
	if i < 0 || i >= len(ModuleOrder)-1 {
		return "", false
	}
	return ModuleOrder[i+1], true
}

// Previous returns the module before m. ok is false at the start.
func (m ModuleType) Previous() (prev ModuleType, ok bool) {
	i := m.Index()
	if i <= 0 {
		return "", false
	}
	return ModuleOrder[i-1], true
}

// =============================================================================
// MODULE REGISTRY
// =============================================================================

// ModuleInfo carries the presentation metadata for a module.
type ModuleInfo struct {
	Title       string
	Icon        string
	Description string
}

var moduleInfo = map[ModuleType]ModuleInfo{
	ModuleIdeaConcept:       {Title: "Your Idea", Icon: "💡", Description: "Define and refine your business concept"},
	ModuleTargetMarket:      {Title: "Target Market", Icon: "👥", Description: "Identify your ideal customers"},
	ModuleValueProposition:  {Title: "Value Proposition", Icon: "💎", Description: "What unique value do you offer?"},
	ModuleBusinessModel:     {Title: "Business Model", Icon: "🏢", Description: "How will you make money?"},
	ModuleMarketingStrategy: {Title: "Marketing Strategy", Icon: "📣", Description: "How will you reach customers?"},
	ModuleOperationsPlan:    {Title: "Operations Plan", Icon: "⚙", Description: "How will you deliver your product/service?"},
	ModuleFinancialPlan:     {Title: "Financial Plan", Icon: "💰", Description: "Numbers and projections"},
}

// Info returns the presentation metadata for a module.
func (m ModuleType) Info() ModuleInfo {
	return moduleInfo[m]
}

// Title returns the module's display title.
func (m ModuleType) Title() string {
	if info, ok := moduleInfo[m]; ok {
		return info.Title
	}
	return strings.ReplaceAll(string(m), "_", " ")
}

// =============================================================================
// PROGRESSION POLICY
// =============================================================================

// ModuleSet is a set of modules, used for completed/started tracking.
type ModuleSet map[ModuleType]bool

// NewModuleSet builds a set from a slice of modules.
func NewModuleSet(mods ...ModuleType) ModuleSet {
	s := make(ModuleSet, len(mods))
	for _, m := range mods {
		s[m] = true
	}
	return s
}

// Accessible reports whether the user may enter module m.
//
// The first module is always open. Any other module is open when every
// earlier module has at least been started, or when m itself already
// holds data from an earlier visit (the backend may park the user in a
// later module; they must be able to return to it).
func Accessible(m ModuleType, started ModuleSet, hasData func(ModuleType) bool) bool {
	i := m.Index()
	if i <= 0 {
		return i == 0
	}
	if hasData != nil && hasData(m) {
		return true
	}
	for _, prev := range ModuleOrder[:i] {
		if !started[prev] {
			return false
		}
	}
	return true
}

// ProgressPercent returns plan completion as a 0-100 percentage.
func ProgressPercent(completed ModuleSet) int {
	n := 0
	for _, m := range ModuleOrder {
		if completed[m] {
			n++
		}
	}
	return n * 100 / len(ModuleOrder)
}

// PlanCompleteMessage is shown when the user advances past the last module.
const PlanCompleteMessage = "Congratulations! You've completed all modules!"

// transitionMessages maps from->to pairs to hand-written transitions.
var transitionMessages = map[[2]ModuleType]string{
	{ModuleIdeaConcept, ModuleTargetMarket}:          "Great! Now that we have your business idea clear, let's identify who your customers will be.",
	{ModuleTargetMarket, ModuleValueProposition}:     "Perfect! Now that we know your target market, let's define what unique value you'll offer them.",
	{ModuleValueProposition, ModuleBusinessModel}:    "Excellent! With your value proposition defined, let's figure out how you'll make money.",
	{ModuleBusinessModel, ModuleMarketingStrategy}:   "Great! Now that we understand your business model, let's plan how to reach your customers.",
	{ModuleMarketingStrategy, ModuleOperationsPlan}:  "Wonderful! With your marketing strategy in place, let's work on how you'll deliver your product/service.",
	{ModuleOperationsPlan, ModuleFinancialPlan}:      "Perfect! Now let's put together the financial projections for your business.",
}

// TransitionMessage returns the message shown when moving between
// modules. Pairs without a hand-written message get a generic one.
func TransitionMessage(from, to ModuleType) string {
	if msg, ok := transitionMessages[[2]ModuleType{from, to}]; ok {
		return msg
	}
	return "Let's move on to working on your " + strings.ToLower(to.Title()) + "."
}
