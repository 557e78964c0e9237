package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/seren/safari/types"
)

func TestApplyCurrency(t *testing.T) {
	l := New()

	if err := ApplyCurrency(&l, 100); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if err := ApplyCurrency(&l, -40); err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if l.CurrencyBalance != 60 {
		t.Errorf("balance = %d, want 60", l.CurrencyBalance)
	}
}

func TestApplyCurrency_RejectsUnderflow(t *testing.T) {
	l := New()
	l.CurrencyBalance = 30

	err := ApplyCurrency(&l, -31)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if l.CurrencyBalance != 30 {
		t.Errorf("rejected debit mutated the balance: %d", l.CurrencyBalance)
	}

	// Draining to exactly zero is allowed.
	if err := ApplyCurrency(&l, -30); err != nil {
		t.Fatalf("drain to zero failed: %v", err)
	}
	if l.CurrencyBalance != 0 {
		t.Errorf("balance = %d, want 0", l.CurrencyBalance)
	}
}

func TestApplyItem(t *testing.T) {
	l := New()

	if err := ApplyItem(&l, "rope", 3); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if err := ApplyItem(&l, "rope", -1); err != nil {
		t.Fatalf("removal failed: %v", err)
	}
	if l.Inventory["rope"] != 2 {
		t.Errorf("rope = %d, want 2", l.Inventory["rope"])
	}
}

func TestApplyItem_RejectsUnderflow(t *testing.T) {
	l := New()
	l.Inventory["rope"] = 1

	err := ApplyItem(&l, "rope", -2)
	if !errors.Is(err, ErrInsufficientItems) {
		t.Fatalf("err = %v, want ErrInsufficientItems", err)
	}
	if l.Inventory["rope"] != 1 {
		t.Errorf("rejected removal mutated the count: %d", l.Inventory["rope"])
	}

	err = ApplyItem(&l, "lantern", -1)
	if !errors.Is(err, ErrInsufficientItems) {
		t.Fatalf("removing an unheld item: err = %v, want ErrInsufficientItems", err)
	}
}

func TestApplyItem_ZeroCountDropsKey(t *testing.T) {
	l := New()
	l.Inventory["rope"] = 2

	if err := ApplyItem(&l, "rope", -2); err != nil {
		t.Fatalf("removal failed: %v", err)
	}
	if _, ok := l.Inventory["rope"]; ok {
		t.Error("zero-count item should be dropped from the inventory map")
	}
}

func TestApplyItem_NilInventory(t *testing.T) {
	var l types.PlayerLedger

	if err := ApplyItem(&l, "rope", 1); err != nil {
		t.Fatalf("grant on nil inventory failed: %v", err)
	}
	if l.Inventory["rope"] != 1 {
		t.Errorf("rope = %d, want 1", l.Inventory["rope"])
	}
}

func TestSaturatingAdd(t *testing.T) {
	l := New()
	l.CurrencyBalance = math.MaxInt64 - 5

	if err := ApplyCurrency(&l, 100); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if l.CurrencyBalance != math.MaxInt64 {
		t.Errorf("balance = %d, want saturation at MaxInt64", l.CurrencyBalance)
	}
}

func TestClone(t *testing.T) {
	l := New()
	l.CurrencyBalance = 10
	l.Inventory["rope"] = 2

	c := Clone(l)
	c.Inventory["rope"] = 99
	c.CurrencyBalance = 0

	if l.Inventory["rope"] != 2 || l.CurrencyBalance != 10 {
		t.Errorf("clone aliased the original: %+v", l)
	}
}
