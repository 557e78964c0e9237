package loader

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/seren/safari/engine/registry"
	"github.com/seren/safari/types"
)

// ValidationError collects all configuration errors and warnings found in a
// guild config. A config with errors is rejected before publication.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

var validTriggers = map[types.TriggerType]bool{
	types.TriggerButton: true,
	types.TriggerModal:  true,
	types.TriggerSelect: true,
}

var validCombinators = map[types.Combinator]bool{
	types.CombinatorAnd: true,
	types.CombinatorOr:  true,
}

var validScopes = map[types.ClaimScope]bool{
	types.ScopeNone:   true,
	types.ScopePlayer: true,
	types.ScopeSeason: true,
}

var validConditionOperators = map[types.ConditionType]map[types.Operator]bool{
	types.ConditionCurrency: {types.OpGTE: true, types.OpLTE: true, types.OpEqZero: true},
	types.ConditionItem:     {types.OpHas: true, types.OpNotHas: true},
	types.ConditionRole:     {types.OpHas: true, types.OpNotHas: true},
}

// validate checks the compiled guild definition for bounds and referential
// integrity.
func validate(def *types.GuildDef) error {
	ve := &ValidationError{}

	if def.GuildID == "" {
		ve.Errors = append(ve.Errors, "Guild.id is required")
	}
	if len(def.Name) > registry.MaxNameLength {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"guild name exceeds %d characters", registry.MaxNameLength))
	}
	if len(def.Currency.Name) > registry.MaxNameLength {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"currency name exceeds %d characters", registry.MaxNameLength))
	}

	if len(def.Attributes) > registry.MaxAttributesPerGuild {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"guild defines %d attributes, limit is %d",
			len(def.Attributes), registry.MaxAttributesPerGuild))
	}
	for _, id := range sortedKeys(def.Attributes) {
		ve.Errors = append(ve.Errors, registry.ValidateDefinition(def.Attributes[id])...)
		if _, ok := registry.Preset(id); ok {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"attribute %q shadows a built-in preset", id))
		}
	}

	for _, id := range sortedKeys(def.Items) {
		if len(def.Items[id].Name) > registry.MaxNameLength {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"item %q name exceeds %d characters", id, registry.MaxNameLength))
		}
	}

	if len(def.Actions) > registry.MaxActionsPerGuild {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"guild defines %d actions, limit is %d",
			len(def.Actions), registry.MaxActionsPerGuild))
	}
	for _, id := range sortedKeys(def.Actions) {
		validateAction(def.Actions[id], def, ve)
	}

	for _, w := range ve.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateAction(action types.CustomAction, def *types.GuildDef, ve *ValidationError) {
	if len(action.Name) > registry.MaxNameLength {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"action %q name exceeds %d characters", action.ID, registry.MaxNameLength))
	}
	if !validTriggers[action.Trigger] {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"action %q has unknown trigger %q", action.ID, action.Trigger))
	}

	validateConditionSet(action, def, ve)

	if len(action.Steps) > registry.MaxStepsPerAction {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"action %q has %d steps, limit is %d",
			action.ID, len(action.Steps), registry.MaxStepsPerAction))
	}
	for i, step := range action.Steps {
		validateStep(action.ID, i, step, def, ve)
	}
}

func validateConditionSet(action types.CustomAction, def *types.GuildDef, ve *ValidationError) {
	set := action.Conditions
	if !validCombinators[set.Combinator] {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"action %q has unknown combinator %q", action.ID, set.Combinator))
	}
	if len(set.Conditions) > registry.MaxConditionsPerSet {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"action %q has %d conditions, limit is %d",
			action.ID, len(set.Conditions), registry.MaxConditionsPerSet))
	}

	for i, cond := range set.Conditions {
		operators, ok := validConditionOperators[cond.Type]
		if !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"action %q condition %d has unknown type %q", action.ID, i+1, cond.Type))
			continue
		}
		if !operators[cond.Operator] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"action %q condition %d: operator %q not valid for %q conditions",
				action.ID, i+1, cond.Operator, cond.Type))
		}
		switch cond.Type {
		case types.ConditionCurrency:
			if cond.Operator != types.OpEqZero && cond.Value < 0 {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"action %q condition %d: currency threshold must not be negative",
					action.ID, i+1))
			}
		case types.ConditionItem:
			if _, ok := def.Items[cond.ItemID]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"action %q condition %d references undefined item %q",
					action.ID, i+1, cond.ItemID))
			}
		case types.ConditionRole:
			if cond.RoleID == "" {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"action %q condition %d: role reference is required", action.ID, i+1))
			}
		}
	}
}

func validateStep(actionID string, index int, step types.ActionStep, def *types.GuildDef, ve *ValidationError) {
	if !validScopes[step.Limit] {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"action %q step %d has unknown limit %q", actionID, index+1, step.Limit))
	}

	switch step.Type {
	case types.StepDisplayText:
		if step.Content == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"action %q step %d: display text content is required", actionID, index+1))
		}
	case types.StepGiveCurrency:
		if step.Amount == 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"action %q step %d: currency amount must not be zero", actionID, index+1))
		}
	case types.StepGiveItem:
		if _, ok := def.Items[step.ItemID]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"action %q step %d references undefined item %q", actionID, index+1, step.ItemID))
		}
		if step.Quantity == 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"action %q step %d: item quantity must not be zero", actionID, index+1))
		}
	case types.StepFollowUp:
		if _, ok := def.Actions[step.ActionID]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"action %q step %d follows up undefined action %q", actionID, index+1, step.ActionID))
		}
		if step.ActionID == actionID {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"action %q step %d follows up itself; the chain will be cut at runtime",
				actionID, index+1))
		}
	default:
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"action %q step %d has unknown type %q", actionID, index+1, step.Type))
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
