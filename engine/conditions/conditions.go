// Package conditions decides whether a custom action's gate passes for a
// given player snapshot.
package conditions

import (
	"fmt"

	"github.com/seren/safari/types"
)

// Eval evaluates a single condition against the snapshot. Unknown or
// malformed conditions evaluate to false and report a warning; they never
// abort the set.
func Eval(c types.Condition, snap types.Snapshot) (bool, []string) {
	switch c.Type {
	case types.ConditionCurrency:
		switch c.Operator {
		case types.OpGTE:
			return snap.Ledger.CurrencyBalance >= c.Value, nil
		case types.OpLTE:
			return snap.Ledger.CurrencyBalance <= c.Value, nil
		case types.OpEqZero:
			return snap.Ledger.CurrencyBalance == 0, nil
		default:
			return false, []string{fmt.Sprintf("currency condition: unknown operator %q", c.Operator)}
		}

	case types.ConditionItem:
		held := snap.Ledger.Inventory[c.ItemID] > 0
		switch c.Operator {
		case types.OpHas:
			return held, nil
		case types.OpNotHas:
			return !held, nil
		default:
			return false, []string{fmt.Sprintf("item condition: unknown operator %q", c.Operator)}
		}

	case types.ConditionRole:
		member := snap.Roles[c.RoleID]
		switch c.Operator {
		case types.OpHas:
			return member, nil
		case types.OpNotHas:
			return !member, nil
		default:
			return false, []string{fmt.Sprintf("role condition: unknown operator %q", c.Operator)}
		}

	default:
		return false, []string{fmt.Sprintf("unknown condition type %q", c.Type)}
	}
}

// Evaluate reduces a condition set to a single verdict. An empty set is
// vacuously true. AND short-circuits on the first false, OR on the first
// true. Warnings from malformed conditions are collected for the caller to
// log as data-integrity issues.
func Evaluate(set types.ConditionSet, snap types.Snapshot) (bool, []string) {
	if len(set.Conditions) == 0 {
		return true, nil
	}

	var warnings []string
	or := set.Combinator == types.CombinatorOr
	for _, c := range set.Conditions {
		ok, warns := Eval(c, snap)
		warnings = append(warnings, warns...)
		if or && ok {
			return true, warnings
		}
		if !or && !ok {
			return false, warnings
		}
	}
	// AND with no false seen passes; OR with no true seen fails.
	return !or, warnings
}
