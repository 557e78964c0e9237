package loader

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/seren/safari/types"
)

// rawAttribute holds an attribute table before compilation.
type rawAttribute struct {
	id    string
	table *lua.LTable
}

// rawItem holds an item table before compilation.
type rawItem struct {
	id    string
	table *lua.LTable
}

// rawAction holds a custom action table before compilation.
type rawAction struct {
	id    string
	table *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getInt returns an integer field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int64 {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return int64(n)
	}
	return 0
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	if b, ok := tbl.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if t, ok := tbl.RawGetString(key).(*lua.LTable); ok {
		return t
	}
	return nil
}

// compile turns collected Lua tables into a typed guild definition.
// Structural problems (duplicate ids, unmarked tables in condition or step
// lists) are compile errors; bounds and reference checks happen in validate.
func compile(coll *collector) (*types.GuildDef, error) {
	def := &types.GuildDef{
		SeasonID:   "season-1",
		Currency:   types.CurrencyDefinition{Name: "Coins"},
		Attributes: map[string]types.AttributeDefinition{},
		Items:      map[string]types.ItemDefinition{},
		Actions:    map[string]types.CustomAction{},
	}

	if coll.guild != nil {
		def.GuildID = getString(coll.guild, "id")
		def.Name = getString(coll.guild, "name")
		if season := getString(coll.guild, "season"); season != "" {
			def.SeasonID = season
		}
	}

	if coll.currency != nil {
		if name := getString(coll.currency, "name"); name != "" {
			def.Currency.Name = name
		}
		def.Currency.Symbol = getString(coll.currency, "symbol")
	}

	for _, raw := range coll.attrs {
		if _, exists := def.Attributes[raw.id]; exists {
			return nil, fmt.Errorf("duplicate attribute %q", raw.id)
		}
		attr, err := compileAttribute(raw)
		if err != nil {
			return nil, err
		}
		def.Attributes[raw.id] = attr
	}

	for _, raw := range coll.items {
		if _, exists := def.Items[raw.id]; exists {
			return nil, fmt.Errorf("duplicate item %q", raw.id)
		}
		item := types.ItemDefinition{
			ID:          raw.id,
			Name:        getString(raw.table, "name"),
			Description: getString(raw.table, "description"),
		}
		if item.Name == "" {
			item.Name = raw.id
		}
		def.Items[raw.id] = item
	}

	for _, raw := range coll.actions {
		if _, exists := def.Actions[raw.id]; exists {
			return nil, fmt.Errorf("duplicate action %q", raw.id)
		}
		action, err := compileAction(raw)
		if err != nil {
			return nil, err
		}
		def.Actions[raw.id] = action
	}

	return def, nil
}

func compileAttribute(raw rawAttribute) (types.AttributeDefinition, error) {
	attr := types.AttributeDefinition{
		ID:       raw.id,
		Name:     getString(raw.table, "name"),
		Category: types.AttributeCategory(getString(raw.table, "category")),
		Min:      getInt(raw.table, "min"),
		Max:      getInt(raw.table, "max"),
		Default:  getInt(raw.table, "default"),
	}
	if attr.Name == "" {
		attr.Name = raw.id
	}

	if regen := getTable(raw.table, "regen"); regen != nil {
		attr.Regen = types.Regeneration{
			Type:            types.RegenType(getString(regen, "type")),
			IntervalMinutes: getInt(regen, "interval"),
		}
		switch amount := regen.RawGetString("amount").(type) {
		case lua.LNumber:
			attr.Regen.Amount = int64(amount)
		case lua.LString:
			if string(amount) != "max" {
				return types.AttributeDefinition{}, fmt.Errorf(
					"attribute %q regen amount must be a number or \"max\"", raw.id)
			}
			attr.Regen.AmountIsMax = true
		case *lua.LNilType:
			// full_reset implies restoration to max.
			if attr.Regen.Type == types.RegenFullReset {
				attr.Regen.AmountIsMax = true
			}
		default:
			return types.AttributeDefinition{}, fmt.Errorf(
				"attribute %q regen amount must be a number or \"max\"", raw.id)
		}
	} else {
		attr.Regen = types.Regeneration{Type: types.RegenNone}
	}

	return attr, nil
}

func compileAction(raw rawAction) (types.CustomAction, error) {
	action := types.CustomAction{
		ID:      raw.id,
		Name:    getString(raw.table, "name"),
		Trigger: types.TriggerType(getString(raw.table, "trigger")),
	}
	if action.Name == "" {
		action.Name = raw.id
	}
	if action.Trigger == "" {
		action.Trigger = types.TriggerButton
	}

	set, err := compileConditionSet(raw)
	if err != nil {
		return types.CustomAction{}, err
	}
	action.Conditions = set

	steps := getTable(raw.table, "steps")
	if steps != nil {
		for i := 1; i <= steps.MaxN(); i++ {
			entry, ok := steps.RawGetInt(i).(*lua.LTable)
			if !ok || !getBool(entry, "__step", false) {
				return types.CustomAction{}, fmt.Errorf(
					"action %q step %d is not a step constructor", raw.id, i)
			}
			step, err := compileStep(raw.id, i, entry)
			if err != nil {
				return types.CustomAction{}, err
			}
			action.Steps = append(action.Steps, step)
		}
	}

	return action, nil
}

// compileConditionSet accepts either an All/Any wrapper or a bare list of
// condition constructors, which defaults to AND.
func compileConditionSet(raw rawAction) (types.ConditionSet, error) {
	set := types.ConditionSet{Combinator: types.CombinatorAnd}

	conds := getTable(raw.table, "conditions")
	if conds == nil {
		return set, nil
	}

	list := conds
	if getBool(conds, "__condition_set", false) {
		set.Combinator = types.Combinator(getString(conds, "combinator"))
		list = getTable(conds, "conditions")
		if list == nil {
			return set, nil
		}
	}

	for i := 1; i <= list.MaxN(); i++ {
		entry, ok := list.RawGetInt(i).(*lua.LTable)
		if !ok || !getBool(entry, "__condition", false) {
			return types.ConditionSet{}, fmt.Errorf(
				"action %q condition %d is not a condition constructor", raw.id, i)
		}
		set.Conditions = append(set.Conditions, types.Condition{
			Type:     types.ConditionType(getString(entry, "type")),
			Operator: types.Operator(getString(entry, "operator")),
			Value:    getInt(entry, "value"),
			ItemID:   getString(entry, "item"),
			RoleID:   getString(entry, "role"),
		})
	}

	return set, nil
}

func compileStep(actionID string, index int, tbl *lua.LTable) (types.ActionStep, error) {
	step := types.ActionStep{
		Type:      types.StepType(getString(tbl, "step_type")),
		ExecuteOn: getBool(tbl, "execute_on", true),
		Title:     getString(tbl, "title"),
		Content:   getString(tbl, "content"),
		Amount:    getInt(tbl, "amount"),
		ItemID:    getString(tbl, "item"),
		Quantity:  getInt(tbl, "quantity"),
		ActionID:  getString(tbl, "action"),
		Limit:     types.ClaimScope(getString(tbl, "limit")),
	}
	if step.Limit == "" {
		step.Limit = types.ScopeNone
	}
	if step.Type == types.StepGiveItem && step.Quantity == 0 {
		step.Quantity = 1
	}
	if step.Type == "" {
		return types.ActionStep{}, fmt.Errorf(
			"action %q step %d has no type", actionID, index)
	}
	return step, nil
}
