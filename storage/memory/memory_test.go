package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/seren/safari/engine/claims"
	"github.com/seren/safari/storage"
	"github.com/seren/safari/types"
)

var key = storage.PlayerKey{GuildID: "guild-1", PlayerID: "player-1"}

func TestAttributeStateRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.GetAttributeState(ctx, key, "hp")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	st := types.AttributeState{
		AttributeID: "hp", Current: 40, Max: 100,
		LastUpdate: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.PutAttributeState(ctx, key, st); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, err := s.GetAttributeState(ctx, key, "hp")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != st {
		t.Errorf("got %+v, want %+v", got, st)
	}

	// Other players are isolated.
	other := storage.PlayerKey{GuildID: "guild-1", PlayerID: "player-2"}
	if _, err := s.GetAttributeState(ctx, other, "hp"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for another player", err)
	}
}

func TestLedgerRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.GetLedger(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	led := types.PlayerLedger{
		CurrencyBalance: 75,
		Inventory:       map[string]int64{"rope": 2},
	}
	if err := s.PutLedger(ctx, key, led); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := s.GetLedger(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.CurrencyBalance != 75 || got.Inventory["rope"] != 2 {
		t.Errorf("got %+v", got)
	}

	// The stored ledger must not alias the caller's maps.
	led.Inventory["rope"] = 99
	got.Inventory["rope"] = 50
	fresh, _ := s.GetLedger(ctx, key)
	if fresh.Inventory["rope"] != 2 {
		t.Errorf("stored ledger aliased: %+v", fresh)
	}
}

func TestPutLedger_RejectsNegatives(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.PutLedger(ctx, key, types.PlayerLedger{CurrencyBalance: -50}); err == nil {
		t.Error("expected an error for a negative balance")
	}
	err := s.PutLedger(ctx, key, types.PlayerLedger{
		Inventory: map[string]int64{"rope": -3},
	})
	if err == nil {
		t.Error("expected an error for a negative quantity")
	}
	// The rejected writes must not leave any ledger behind.
	if _, err := s.GetLedger(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after rejected writes", err)
	}
}

func TestTryConsumeClaim(t *testing.T) {
	s := New()
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

	// A different season is a fresh claim.
	ck.SeasonID = "season-2"
	if ok, _ := s.TryConsumeClaim(ctx, ck, ""); !ok {
		t.Error("new season should open the claim")
	}

	// Player scope keys on the consumer.
	pk := claims.Key{
		GuildID: "guild-1", SeasonID: "season-1",
		ActionID: "starter", StepIndex: 0, Scope: types.ScopePlayer,
	}
	if ok, _ := s.TryConsumeClaim(ctx, pk, "player-1"); !ok {
		t.Error("player-1's first claim should succeed")
	}
	if ok, _ := s.TryConsumeClaim(ctx, pk, "player-2"); !ok {
		t.Error("player-2 should have an independent claim")
	}
	if ok, _ := s.TryConsumeClaim(ctx, pk, "player-1"); ok {
		t.Error("player-1's repeat claim should fail")
	}
}

func TestTryConsumeClaim_SingleWinnerUnderConcurrency(t *testing.T) {
	s := New()
	ck := claims.Key{
		GuildID: "guild-1", SeasonID: "season-1",
		ActionID: "trophy", StepIndex: 0, Scope: types.ScopeSeason,
	}

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.TryConsumeClaim(context.Background(), ck, "")
			if err != nil {
				t.Errorf("consume failed: %v", err)
				return
			}
			if ok {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	if n := len(wins); n != 1 {
		t.Errorf("%d winners, want exactly 1", n)
	}
}

func TestSeasonRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.GetSeason(ctx, "guild-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := s.PutSeason(ctx, "guild-1", "season-2"); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, err := s.GetSeason(ctx, "guild-1")
	if err != nil || got != "season-2" {
		t.Errorf("got (%q, %v), want season-2", got, err)
	}
}

func TestContextCancellation(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.GetLedger(ctx, key); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if err := s.PutSeason(ctx, "guild-1", "season-2"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
