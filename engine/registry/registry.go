// Package registry holds the attribute catalog: built-in presets, per-guild
// custom definitions, and the bounds every published definition must satisfy.
package registry

import (
	"fmt"
	"sort"

	"github.com/seren/safari/types"
)

// Limits on admin-supplied configuration. Definitions outside these bounds
// are rejected before persistence.
const (
	MinRegenInterval = 1     // minutes
	MaxRegenInterval = 10080 // one week in minutes

	MinAttributeValue = 0
	MaxAttributeValue = 1_000_000

	MaxNameLength         = 50
	MaxAttributesPerGuild = 30
	MaxActionsPerGuild    = 100
	MaxStepsPerAction     = 20
	MaxConditionsPerSet   = 10

	// Depth cap on follow-up chains, a backstop beside the visited set.
	MaxFollowUpDepth = 8
)

// presets are the built-in attribute catalog. Guild definitions with the
// same id shadow these.
var presets = []types.AttributeDefinition{
	{
		ID: "hp", Name: "HP", Category: types.CategoryResource,
		Min: 0, Max: 100, Preset: true,
		Regen: types.Regeneration{Type: types.RegenIncremental, IntervalMinutes: 30, Amount: 10},
	},
	{
		ID: "mana", Name: "Mana", Category: types.CategoryResource,
		Min: 0, Max: 50, Preset: true,
		Regen: types.Regeneration{Type: types.RegenFullReset, IntervalMinutes: 60, AmountIsMax: true},
	},
	{
		ID: "stamina", Name: "Stamina", Category: types.CategoryResource,
		Min: 0, Max: 100, Preset: true,
		Regen: types.Regeneration{Type: types.RegenIncremental, IntervalMinutes: 15, Amount: 5},
	},
	{
		ID: "strength", Name: "Strength", Category: types.CategoryStat,
		Default: 10, Preset: true,
	},
	{
		ID: "agility", Name: "Agility", Category: types.CategoryStat,
		Default: 10, Preset: true,
	},
}

// Presets returns the built-in catalog in stable id order.
func Presets() []types.AttributeDefinition {
	out := make([]types.AttributeDefinition, len(presets))
	copy(out, presets)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Preset looks up one built-in definition by id.
func Preset(id string) (types.AttributeDefinition, bool) {
	for _, def := range presets {
		if def.ID == id {
			return def, true
		}
	}
	return types.AttributeDefinition{}, false
}

// Merge layers guild-defined attributes over the preset catalog. Guild
// entries shadow presets with the same id.
func Merge(guild map[string]types.AttributeDefinition) map[string]types.AttributeDefinition {
	out := make(map[string]types.AttributeDefinition, len(presets)+len(guild))
	for _, def := range presets {
		out[def.ID] = def
	}
	for id, def := range guild {
		out[id] = def
	}
	return out
}

// ValidateDefinition checks one attribute definition against the limits
// table. It returns every problem found, not just the first.
func ValidateDefinition(def types.AttributeDefinition) []string {
	var problems []string

	if def.ID == "" {
		problems = append(problems, "attribute id is required")
	}
	if len(def.Name) > MaxNameLength {
		problems = append(problems, fmt.Sprintf(
			"attribute %q name exceeds %d characters", def.ID, MaxNameLength))
	}

	switch def.Category {
	case types.CategoryResource:
		problems = append(problems, validateResource(def)...)
	case types.CategoryStat:
		if def.Default < MinAttributeValue || def.Default > MaxAttributeValue {
			problems = append(problems, fmt.Sprintf(
				"attribute %q default %d outside [%d, %d]",
				def.ID, def.Default, MinAttributeValue, MaxAttributeValue))
		}
		if def.Regen.Type != "" && def.Regen.Type != types.RegenNone {
			problems = append(problems, fmt.Sprintf(
				"attribute %q is a stat and cannot regenerate", def.ID))
		}
	default:
		problems = append(problems, fmt.Sprintf(
			"attribute %q has unknown category %q", def.ID, def.Category))
	}

	return problems
}

func validateResource(def types.AttributeDefinition) []string {
	var problems []string

	if def.Min < MinAttributeValue || def.Max > MaxAttributeValue {
		problems = append(problems, fmt.Sprintf(
			"attribute %q bounds [%d, %d] outside [%d, %d]",
			def.ID, def.Min, def.Max, MinAttributeValue, MaxAttributeValue))
	}
	if def.Max <= def.Min {
		problems = append(problems, fmt.Sprintf(
			"attribute %q max %d must exceed min %d", def.ID, def.Max, def.Min))
	}

	switch def.Regen.Type {
	case types.RegenNone, "":
		// Static resource; nothing further to check.
	case types.RegenFullReset, types.RegenIncremental:
		if def.Regen.IntervalMinutes < MinRegenInterval || def.Regen.IntervalMinutes > MaxRegenInterval {
			problems = append(problems, fmt.Sprintf(
				"attribute %q regen interval %d outside [%d, %d] minutes",
				def.ID, def.Regen.IntervalMinutes, MinRegenInterval, MaxRegenInterval))
		}
		if def.Regen.Type == types.RegenIncremental && !def.Regen.AmountIsMax && def.Regen.Amount <= 0 {
			problems = append(problems, fmt.Sprintf(
				"attribute %q incremental regen amount %d must be positive",
				def.ID, def.Regen.Amount))
		}
	default:
		problems = append(problems, fmt.Sprintf(
			"attribute %q has unknown regen type %q", def.ID, def.Regen.Type))
	}

	return problems
}
