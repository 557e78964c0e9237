package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/seren/safari/engine/claims"
	"github.com/seren/safari/storage"
	"github.com/seren/safari/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "safari.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var key = storage.PlayerKey{GuildID: "guild-1", PlayerID: "player-1"}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected an error for a blank path")
	}
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "safari.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening replays no migrations and loses no data.
	s, err = Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s.Close()
}

func TestAttributeStateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetAttributeState(ctx, key, "hp"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := types.AttributeState{AttributeID: "hp", Current: 40, Max: 100, LastUpdate: when}
	if err := s.PutAttributeState(ctx, key, st); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.GetAttributeState(ctx, key, "hp")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Current != 40 || got.Max != 100 || !got.LastUpdate.Equal(when) {
		t.Errorf("got %+v", got)
	}

	// Upsert replaces.
	st.Current = 60
	if err := s.PutAttributeState(ctx, key, st); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _ = s.GetAttributeState(ctx, key, "hp")
	if got.Current != 60 {
		t.Errorf("current = %d, want 60", got.Current)
	}
}

func TestPutAttributeState_RequiresID(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutAttributeState(context.Background(), key, types.AttributeState{}); err == nil {
		t.Fatal("expected an error for a blank attribute id")
	}
}

func TestLedgerRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetLedger(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	led := types.PlayerLedger{
		CurrencyBalance: 75,
		Inventory:       map[string]int64{"rope": 2, "lantern": 1},
	}
	if err := s.PutLedger(ctx, key, led); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.GetLedger(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrencyBalance != 75 || got.Inventory["rope"] != 2 || got.Inventory["lantern"] != 1 {
		t.Errorf("got %+v", got)
	}

	// A replacement drops items no longer held.
	led.Inventory = map[string]int64{"rope": 1}
	if err := s.PutLedger(ctx, key, led); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ = s.GetLedger(ctx, key)
	if len(got.Inventory) != 1 || got.Inventory["rope"] != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestPutLedger_RejectsNegatives(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutLedger(ctx, key, types.PlayerLedger{CurrencyBalance: -1}); err == nil {
		t.Error("expected an error for a negative balance")
	}
	err := s.PutLedger(ctx, key, types.PlayerLedger{
		Inventory: map[string]int64{"rope": -1},
	})
	if err == nil {
		t.Error("expected an error for a negative quantity")
	}
	// The rejected write must not leave a partial ledger behind.
	if _, err := s.GetLedger(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after rejected writes", err)
	}
}

func TestTryConsumeClaim(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ck := claims.Key{
		GuildID: "guild-1", SeasonID: "season-1",
		ActionID: "trophy", StepIndex: 0, Scope: types.ScopeSeason,
	}

	ok, err := s.TryConsumeClaim(ctx, ck, "")
	if err != nil || !ok {
		t.Fatalf("first consume = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = s.TryConsumeClaim(ctx, ck, "")
	if err != nil || ok {
		t.Fatalf("second consume = (%v, %v), want (false, nil)", ok, err)
	}

	// Season roll, fresh key.
	ck.SeasonID = "season-2"
	if ok, _ := s.TryConsumeClaim(ctx, ck, ""); !ok {
		t.Error("new season should open the claim")
	}

	// Player scope: independent per consumer, and independent per step.
	pk := claims.Key{
		GuildID: "guild-1", SeasonID: "season-1",
		ActionID: "starter", StepIndex: 0, Scope: types.ScopePlayer,
	}
	if ok, _ := s.TryConsumeClaim(ctx, pk, "player-1"); !ok {
		t.Error("player-1's claim should succeed")
	}
	if ok, _ := s.TryConsumeClaim(ctx, pk, "player-2"); !ok {
		t.Error("player-2's claim should succeed")
	}
	pk.StepIndex = 1
	if ok, _ := s.TryConsumeClaim(ctx, pk, "player-1"); !ok {
		t.Error("a different step index is a different claim")
	}
}

func TestSeasonRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetSeason(ctx, "guild-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := s.PutSeason(ctx, "guild-1", "season-2"); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.GetSeason(ctx, "guild-1")
	if err != nil || got != "season-2" {
		t.Errorf("got (%q, %v), want season-2", got, err)
	}

	if err := s.PutSeason(ctx, "guild-1", ""); err == nil {
		t.Error("expected an error for a blank season id")
	}
}

func TestNilStoreIsSafe(t *testing.T) {
	var s *Store
	if _, err := s.GetLedger(context.Background(), key); err == nil {
		t.Error("nil store should report a configuration error")
	}
	if err := s.Close(); err != nil {
		t.Errorf("nil close: %v", err)
	}
}
