package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers the closed set of Lua constructors and helpers as
// globals. Anything outside this vocabulary fails compilation or validation.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerConditionHelpers(L)
	registerStepHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Guild { id = "...", name = "...", season = "..." }
	L.SetGlobal("Guild", L.NewFunction(func(L *lua.LState) int {
		coll.guild = L.CheckTable(1)
		return 0
	}))

	// Currency { name = "Gold", symbol = "g" }
	L.SetGlobal("Currency", L.NewFunction(func(L *lua.LState) int {
		coll.currency = L.CheckTable(1)
		return 0
	}))

	// Attribute "id" { ... } — curried: Attribute("id") returns a function
	// that takes the definition table.
	L.SetGlobal("Attribute", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.attrs = append(coll.attrs, rawAttribute{id: id, table: tbl})
			return 0
		}))
		return 1
	}))

	// Item "id" { ... } — curried.
	L.SetGlobal("Item", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.items = append(coll.items, rawItem{id: id, table: tbl})
			return 0
		}))
		return 1
	}))

	// Action "id" { ... } — curried.
	L.SetGlobal("Action", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.actions = append(coll.actions, rawAction{id: id, table: tbl})
			return 0
		}))
		return 1
	}))

	// All { cond, cond, ... } — AND combinator.
	L.SetGlobal("All", L.NewFunction(func(L *lua.LState) int {
		L.Push(conditionSet(L, L.CheckTable(1), "and"))
		return 1
	}))

	// Any { cond, cond, ... } — OR combinator.
	L.SetGlobal("Any", L.NewFunction(func(L *lua.LState) int {
		L.Push(conditionSet(L, L.CheckTable(1), "or"))
		return 1
	}))
}

func conditionSet(L *lua.LState, conds *lua.LTable, combinator string) *lua.LTable {
	set := L.NewTable()
	set.RawSetString("__condition_set", lua.LTrue)
	set.RawSetString("combinator", lua.LString(combinator))
	set.RawSetString("conditions", conds)
	return set
}

func registerConditionHelpers(L *lua.LState) {
	// Balance.gte(n) / Balance.lte(n) / Balance.empty()
	balance := L.NewTable()
	balance.RawSetString("gte", L.NewFunction(func(L *lua.LState) int {
		L.Push(condition(L, "currency", "gte", map[string]lua.LValue{
			"value": lua.LNumber(L.CheckNumber(1)),
		}))
		return 1
	}))
	balance.RawSetString("lte", L.NewFunction(func(L *lua.LState) int {
		L.Push(condition(L, "currency", "lte", map[string]lua.LValue{
			"value": lua.LNumber(L.CheckNumber(1)),
		}))
		return 1
	}))
	balance.RawSetString("empty", L.NewFunction(func(L *lua.LState) int {
		L.Push(condition(L, "currency", "eq_zero", nil))
		return 1
	}))
	L.SetGlobal("Balance", balance)

	// HasItem "id" / LacksItem "id"
	L.SetGlobal("HasItem", L.NewFunction(func(L *lua.LState) int {
		L.Push(condition(L, "item", "has", map[string]lua.LValue{
			"item": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))
	L.SetGlobal("LacksItem", L.NewFunction(func(L *lua.LState) int {
		L.Push(condition(L, "item", "not_has", map[string]lua.LValue{
			"item": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))

	// HasRole "ref" / LacksRole "ref"
	L.SetGlobal("HasRole", L.NewFunction(func(L *lua.LState) int {
		L.Push(condition(L, "role", "has", map[string]lua.LValue{
			"role": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))
	L.SetGlobal("LacksRole", L.NewFunction(func(L *lua.LState) int {
		L.Push(condition(L, "role", "not_has", map[string]lua.LValue{
			"role": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))
}

func condition(L *lua.LState, condType, operator string, fields map[string]lua.LValue) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("__condition", lua.LTrue)
	tbl.RawSetString("type", lua.LString(condType))
	tbl.RawSetString("operator", lua.LString(operator))
	for k, v := range fields {
		tbl.RawSetString(k, v)
	}
	return tbl
}

func registerStepHelpers(L *lua.LState) {
	// Text { title = "...", content = "..." }
	L.SetGlobal("Text", L.NewFunction(func(L *lua.LState) int {
		L.Push(step(L, "display_text", L.CheckTable(1)))
		return 1
	}))

	// GiveCurrency { amount = 50, limit = "once_per_player" }
	L.SetGlobal("GiveCurrency", L.NewFunction(func(L *lua.LState) int {
		L.Push(step(L, "give_currency", L.CheckTable(1)))
		return 1
	}))

	// GiveItem { item = "sword", quantity = 1, limit = "once_per_season" }
	L.SetGlobal("GiveItem", L.NewFunction(func(L *lua.LState) int {
		L.Push(step(L, "give_item", L.CheckTable(1)))
		return 1
	}))

	// FollowUp "action_id"
	L.SetGlobal("FollowUp", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("action", lua.LString(L.CheckString(1)))
		L.Push(step(L, "follow_up", tbl))
		return 1
	}))

	// OnFail(step) tags a step onto the false branch.
	L.SetGlobal("OnFail", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		tbl.RawSetString("execute_on", lua.LFalse)
		L.Push(tbl)
		return 1
	}))
}

func step(L *lua.LState, stepType string, tbl *lua.LTable) *lua.LTable {
	tbl.RawSetString("__step", lua.LTrue)
	tbl.RawSetString("step_type", lua.LString(stepType))
	if tbl.RawGetString("execute_on") == lua.LNil {
		tbl.RawSetString("execute_on", lua.LTrue)
	}
	return tbl
}
