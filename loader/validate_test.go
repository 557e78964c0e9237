package loader

import (
	"strings"
	"testing"

	"github.com/seren/safari/engine/registry"
	"github.com/seren/safari/types"
)

func validGuild() *types.GuildDef {
	return &types.GuildDef{
		GuildID:  "guild-1",
		Name:     "Guild",
		SeasonID: "season-1",
		Currency: types.CurrencyDefinition{Name: "Coins"},
		Attributes: map[string]types.AttributeDefinition{},
		Items: map[string]types.ItemDefinition{
			"rope": {ID: "rope", Name: "Rope"},
		},
		Actions: map[string]types.CustomAction{},
	}
}

func errorsOf(t *testing.T, def *types.GuildDef) []string {
	t.Helper()
	err := validate(def)
	if err == nil {
		return nil
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("unexpected error type %T: %v", err, err)
	}
	return ve.Errors
}

func wantError(t *testing.T, def *types.GuildDef, substr string) {
	t.Helper()
	for _, e := range errorsOf(t, def) {
		if strings.Contains(e, substr) {
			return
		}
	}
	t.Errorf("no error containing %q; got %v", substr, errorsOf(t, def))
}

func TestValidate_ValidGuild(t *testing.T) {
	def := validGuild()
	def.Actions["a"] = types.CustomAction{
		ID: "a", Trigger: types.TriggerButton,
		Conditions: types.ConditionSet{Combinator: types.CombinatorAnd},
		Steps: []types.ActionStep{
			{Type: types.StepGiveItem, ItemID: "rope", Quantity: 1, Limit: types.ScopeNone},
		},
	}
	if err := validate(def); err != nil {
		t.Errorf("unexpected errors: %v", err)
	}
}

func TestValidate_GuildID(t *testing.T) {
	def := validGuild()
	def.GuildID = ""
	wantError(t, def, "Guild.id is required")
}

func TestValidate_NameLengths(t *testing.T) {
	long := strings.Repeat("x", registry.MaxNameLength+1)

	def := validGuild()
	def.Name = long
	wantError(t, def, "guild name exceeds")

	def = validGuild()
	def.Currency.Name = long
	wantError(t, def, "currency name exceeds")

	def = validGuild()
	def.Items["rope"] = types.ItemDefinition{ID: "rope", Name: long}
	wantError(t, def, "item \"rope\" name exceeds")
}

func TestValidate_AttributeBounds(t *testing.T) {
	def := validGuild()
	def.Attributes["bad"] = types.AttributeDefinition{
		ID: "bad", Category: types.CategoryResource, Min: 10, Max: 10,
	}
	wantError(t, def, "must exceed min")
}

func TestValidate_ActionChecks(t *testing.T) {
	def := validGuild()
	def.Actions["a"] = types.CustomAction{
		ID: "a", Trigger: "hover",
		Conditions: types.ConditionSet{
			Combinator: "xor",
			Conditions: []types.Condition{
				{Type: types.ConditionItem, Operator: types.OpHas, ItemID: "ghost"},
				{Type: types.ConditionCurrency, Operator: types.OpHas},
				{Type: types.ConditionCurrency, Operator: types.OpGTE, Value: -5},
				{Type: types.ConditionRole, Operator: types.OpHas},
			},
		},
		Steps: []types.ActionStep{
			{Type: types.StepDisplayText, Limit: types.ScopeNone},
			{Type: types.StepGiveCurrency, Limit: "daily"},
			{Type: types.StepGiveItem, ItemID: "ghost", Quantity: 1, Limit: types.ScopeNone},
			{Type: "teleport", Limit: types.ScopeNone},
			{Type: types.StepFollowUp, ActionID: "nowhere", Limit: types.ScopeNone},
		},
	}

	for _, substr := range []string{
		"unknown trigger",
		"unknown combinator",
		"references undefined item \"ghost\"",
		"operator \"has\" not valid",
		"threshold must not be negative",
		"role reference is required",
		"content is required",
		"amount must not be zero",
		"unknown limit",
		"step 3 references undefined item",
		"unknown type \"teleport\"",
		"follows up undefined action",
	} {
		wantError(t, def, substr)
	}
}

func TestValidate_SelfFollowUpIsWarningOnly(t *testing.T) {
	def := validGuild()
	def.Actions["loop"] = types.CustomAction{
		ID: "loop", Trigger: types.TriggerButton,
		Conditions: types.ConditionSet{Combinator: types.CombinatorAnd},
		Steps: []types.ActionStep{
			{Type: types.StepFollowUp, ActionID: "loop", Limit: types.ScopeNone},
		},
	}
	if err := validate(def); err != nil {
		t.Errorf("self follow-up should validate with a warning, got %v", err)
	}
}

func TestValidate_CountLimits(t *testing.T) {
	def := validGuild()
	steps := make([]types.ActionStep, registry.MaxStepsPerAction+1)
	for i := range steps {
		steps[i] = types.ActionStep{
			Type: types.StepDisplayText, Content: "x", Limit: types.ScopeNone,
		}
	}
	def.Actions["long"] = types.CustomAction{
		ID: "long", Trigger: types.TriggerButton,
		Conditions: types.ConditionSet{Combinator: types.CombinatorAnd},
		Steps:      steps,
	}
	wantError(t, def, "steps, limit is")

	conds := make([]types.Condition, registry.MaxConditionsPerSet+1)
	for i := range conds {
		conds[i] = types.Condition{Type: types.ConditionCurrency, Operator: types.OpGTE, Value: 1}
	}
	def = validGuild()
	def.Actions["picky"] = types.CustomAction{
		ID: "picky", Trigger: types.TriggerButton,
		Conditions: types.ConditionSet{Combinator: types.CombinatorAnd, Conditions: conds},
	}
	wantError(t, def, "conditions, limit is")
}
