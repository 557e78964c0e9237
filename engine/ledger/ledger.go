// Package ledger applies bounded mutations to a player's economic state.
// Every mutation is all-or-nothing: a delta that would drive the balance or
// an item quantity below zero is rejected and the ledger is left untouched.
package ledger

import (
	"errors"
	"math"

	"github.com/seren/safari/types"
)

// ErrInsufficientFunds rejects a currency debit that would underflow.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInsufficientItems rejects an item removal that would underflow.
var ErrInsufficientItems = errors.New("insufficient items")

// New returns an empty ledger with a non-nil inventory.
func New() types.PlayerLedger {
	return types.PlayerLedger{Inventory: map[string]int64{}}
}

// Clone deep-copies a ledger so snapshots do not alias live state.
func Clone(l types.PlayerLedger) types.PlayerLedger {
	out := types.PlayerLedger{
		CurrencyBalance: l.CurrencyBalance,
		Inventory:       make(map[string]int64, len(l.Inventory)),
	}
	for id, qty := range l.Inventory {
		out.Inventory[id] = qty
	}
	return out
}

// ApplyCurrency adds amount (which may be negative) to the balance.
func ApplyCurrency(l *types.PlayerLedger, amount int64) error {
	next := saturatingAdd(l.CurrencyBalance, amount)
	if next < 0 {
		return ErrInsufficientFunds
	}
	l.CurrencyBalance = next
	return nil
}

// ApplyItem adds quantity (which may be negative) to one item's count.
// A count that reaches zero is dropped from the inventory map.
func ApplyItem(l *types.PlayerLedger, itemID string, quantity int64) error {
	if l.Inventory == nil {
		l.Inventory = map[string]int64{}
	}
	next := saturatingAdd(l.Inventory[itemID], quantity)
	if next < 0 {
		return ErrInsufficientItems
	}
	if next == 0 {
		delete(l.Inventory, itemID)
	} else {
		l.Inventory[itemID] = next
	}
	return nil
}

// saturatingAdd clamps at the int64 extremes instead of wrapping.
func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}
