package clock

import (
	"errors"
	"testing"
	"time"

	"github.com/seren/safari/types"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func incrementalDef() types.AttributeDefinition {
	return types.AttributeDefinition{
		ID:       "hp",
		Category: types.CategoryResource,
		Min:      0,
		Max:      100,
		Regen: types.Regeneration{
			Type:            types.RegenIncremental,
			IntervalMinutes: 30,
			Amount:          10,
		},
	}
}

func fullResetDef() types.AttributeDefinition {
	return types.AttributeDefinition{
		ID:       "mana",
		Category: types.CategoryResource,
		Min:      0,
		Max:      50,
		Regen: types.Regeneration{
			Type:            types.RegenFullReset,
			IntervalMinutes: 60,
			AmountIsMax:     true,
		},
	}
}

func TestAdvance_IncrementalPartialProgress(t *testing.T) {
	def := incrementalDef()
	st := types.AttributeState{AttributeID: "hp", Current: 40, Max: 100, LastUpdate: t0}

	// 45 minutes = one whole interval plus 15 minutes of partial progress.
	next, changed, err := Advance(st, def, t0.Add(45*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Fatal("expected a write-back")
	}
	if next.Current != 50 {
		t.Errorf("current = %d, want 50", next.Current)
	}
	if !next.LastUpdate.Equal(t0.Add(30 * time.Minute)) {
		t.Errorf("timestamp = %v, want %v", next.LastUpdate, t0.Add(30*time.Minute))
	}

	// Reading 15 minutes later picks up the preserved partial progress.
	after, changed, err := Advance(next, def, t0.Add(60*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed || after.Current != 60 {
		t.Errorf("current = %d (changed=%v), want 60 after the second tick", after.Current, changed)
	}
}

func TestAdvance_IncrementalMultipleIntervals(t *testing.T) {
	def := incrementalDef()
	st := types.AttributeState{AttributeID: "hp", Current: 50, Max: 100, LastUpdate: t0}

	// 65 minutes holds two whole intervals; timestamp lands on t0+60m.
	next, changed, err := Advance(st, def, t0.Add(65*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Fatal("expected a write-back")
	}
	if next.Current != 70 {
		t.Errorf("current = %d, want 70", next.Current)
	}
	if !next.LastUpdate.Equal(t0.Add(60 * time.Minute)) {
		t.Errorf("timestamp = %v, want %v", next.LastUpdate, t0.Add(60*time.Minute))
	}
}

func TestAdvance_IncrementalClampsAtMax(t *testing.T) {
	def := incrementalDef()
	st := types.AttributeState{AttributeID: "hp", Current: 95, Max: 100, LastUpdate: t0}

	next, _, err := Advance(st, def, t0.Add(10*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Current != 100 {
		t.Errorf("current = %d, want clamp at 100", next.Current)
	}
}

func TestAdvance_Idempotent(t *testing.T) {
	def := incrementalDef()
	st := types.AttributeState{AttributeID: "hp", Current: 40, Max: 100, LastUpdate: t0}
	now := t0.Add(45 * time.Minute)

	once, _, err := Advance(st, def, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, changed, err := Advance(once, def, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Error("second advance at the same instant should be a no-op")
	}
	if twice.Current != once.Current || !twice.LastUpdate.Equal(once.LastUpdate) {
		t.Errorf("second advance drifted: %+v vs %+v", twice, once)
	}
}

func TestAdvance_BeforeFirstInterval(t *testing.T) {
	def := incrementalDef()
	st := types.AttributeState{AttributeID: "hp", Current: 40, Max: 100, LastUpdate: t0}

	next, changed, err := Advance(st, def, t0.Add(29*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Error("no whole interval has elapsed; state should be unchanged")
	}
	if next.Current != 40 || !next.LastUpdate.Equal(t0) {
		t.Errorf("state mutated: %+v", next)
	}
}

func TestAdvance_FullResetSingleReset(t *testing.T) {
	def := fullResetDef()
	st := types.AttributeState{AttributeID: "mana", Current: 5, Max: 50, LastUpdate: t0}

	// Three intervals elapsed still means one reset, anchored at now.
	now := t0.Add(3 * time.Hour)
	next, changed, err := Advance(st, def, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Fatal("expected a write-back")
	}
	if next.Current != 50 {
		t.Errorf("current = %d, want full 50", next.Current)
	}
	if !next.LastUpdate.Equal(now) {
		t.Errorf("timestamp = %v, want %v", next.LastUpdate, now)
	}
}

func TestAdvance_FullResetNotDue(t *testing.T) {
	def := fullResetDef()
	st := types.AttributeState{AttributeID: "mana", Current: 5, Max: 50, LastUpdate: t0}

	next, changed, err := Advance(st, def, t0.Add(59*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed || next.Current != 5 {
		t.Errorf("reset fired early: %+v", next)
	}
}

func TestAdvance_StatIsInert(t *testing.T) {
	def := types.AttributeDefinition{ID: "strength", Category: types.CategoryStat, Default: 10}
	st := types.AttributeState{AttributeID: "strength", Current: 12, LastUpdate: t0}

	next, changed, err := Advance(st, def, t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed || next.Current != 12 {
		t.Errorf("stat regenerated: %+v", next)
	}
}

func TestAdvance_NoneRegen(t *testing.T) {
	def := types.AttributeDefinition{
		ID:       "charges",
		Category: types.CategoryResource,
		Max:      3,
		Regen:    types.Regeneration{Type: types.RegenNone},
	}
	st := types.AttributeState{AttributeID: "charges", Current: 1, Max: 3, LastUpdate: t0}

	next, changed, err := Advance(st, def, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed || next.Current != 1 {
		t.Errorf("none-regen attribute changed: %+v", next)
	}
}

func TestAdvance_BadDefinitionFreezes(t *testing.T) {
	def := incrementalDef()
	def.Regen.IntervalMinutes = 0
	st := types.AttributeState{AttributeID: "hp", Current: 40, Max: 100, LastUpdate: t0}

	next, changed, err := Advance(st, def, t0.Add(time.Hour))
	if !errors.Is(err, ErrBadDefinition) {
		t.Fatalf("err = %v, want ErrBadDefinition", err)
	}
	if changed || next != st {
		t.Errorf("state moved despite bad definition: %+v", next)
	}

	def = incrementalDef()
	def.Regen.Type = "hourly"
	_, _, err = Advance(st, def, t0.Add(time.Hour))
	if !errors.Is(err, ErrBadDefinition) {
		t.Fatalf("unknown regen type: err = %v, want ErrBadDefinition", err)
	}
}

func TestNewState(t *testing.T) {
	res := NewState(incrementalDef(), t0)
	if res.Current != 100 || res.Max != 100 {
		t.Errorf("resource seeds at %d/%d, want full 100/100", res.Current, res.Max)
	}
	if !res.LastUpdate.Equal(t0) {
		t.Errorf("timestamp = %v, want %v", res.LastUpdate, t0)
	}

	stat := NewState(types.AttributeDefinition{ID: "agility", Category: types.CategoryStat, Default: 10}, t0)
	if stat.Current != 10 {
		t.Errorf("stat seeds at %d, want default 10", stat.Current)
	}
}

func TestLive(t *testing.T) {
	def := incrementalDef()
	st := types.AttributeState{AttributeID: "hp", Current: 40, Max: 100, LastUpdate: t0}

	live, err := Live(st, def, t0.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if live.Current != 50 || live.Max != 100 {
		t.Errorf("live = %d/%d, want 50/100", live.Current, live.Max)
	}
}
