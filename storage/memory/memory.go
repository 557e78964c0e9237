// Package memory provides an in-memory store for the sandbox consoles and
// tests. All operations are guarded by one mutex, which also makes claim
// consumption atomic.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/seren/safari/engine/claims"
	"github.com/seren/safari/storage"
	"github.com/seren/safari/types"
)

type attrKey struct {
	player      storage.PlayerKey
	attributeID string
}

type claimKey struct {
	key      claims.Key
	consumer string
}

// Store keeps all player state in process memory.
type Store struct {
	mu     sync.Mutex
	attrs  map[attrKey]types.AttributeState
	ledger map[storage.PlayerKey]types.PlayerLedger
	claims map[claimKey]bool
	season map[string]string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		attrs:  map[attrKey]types.AttributeState{},
		ledger: map[storage.PlayerKey]types.PlayerLedger{},
		claims: map[claimKey]bool{},
		season: map[string]string{},
	}
}

// GetAttributeState returns one persisted attribute state.
func (s *Store) GetAttributeState(ctx context.Context, key storage.PlayerKey, attributeID string) (types.AttributeState, error) {
	if err := ctx.Err(); err != nil {
		return types.AttributeState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.attrs[attrKey{player: key, attributeID: attributeID}]
	if !ok {
		return types.AttributeState{}, storage.ErrNotFound
	}
	return st, nil
}

// PutAttributeState stores one attribute state.
func (s *Store) PutAttributeState(ctx context.Context, key storage.PlayerKey, st types.AttributeState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs[attrKey{player: key, attributeID: st.AttributeID}] = st
	return nil
}

// GetLedger returns a copy of one player's economic ledger.
func (s *Store) GetLedger(ctx context.Context, key storage.PlayerKey) (types.PlayerLedger, error) {
	if err := ctx.Err(); err != nil {
		return types.PlayerLedger{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	led, ok := s.ledger[key]
	if !ok {
		return types.PlayerLedger{}, storage.ErrNotFound
	}
	return copyLedger(led), nil
}

// PutLedger stores a copy of one player's economic ledger. Negative
// balances and quantities are rejected, matching the SQLite store.
func (s *Store) PutLedger(ctx context.Context, key storage.PlayerKey, led types.PlayerLedger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if led.CurrencyBalance < 0 {
		return fmt.Errorf("currency balance must not be negative")
	}
	for itemID, quantity := range led.Inventory {
		if quantity < 0 {
			return fmt.Errorf("item %q quantity must not be negative", itemID)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger[key] = copyLedger(led)
	return nil
}

// TryConsumeClaim atomically records a claim if its uniqueness key is free.
func (s *Store) TryConsumeClaim(ctx context.Context, key claims.Key, consumerID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ck := claimKey{key: key, consumer: consumerID}
	if s.claims[ck] {
		return false, nil
	}
	s.claims[ck] = true
	return true, nil
}

// GetSeason returns the guild's active season id.
func (s *Store) GetSeason(ctx context.Context, guildID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	season, ok := s.season[guildID]
	if !ok {
		return "", storage.ErrNotFound
	}
	return season, nil
}

// PutSeason sets the guild's active season id.
func (s *Store) PutSeason(ctx context.Context, guildID, seasonID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.season[guildID] = seasonID
	return nil
}

func copyLedger(l types.PlayerLedger) types.PlayerLedger {
	out := types.PlayerLedger{
		CurrencyBalance: l.CurrencyBalance,
		Inventory:       make(map[string]int64, len(l.Inventory)),
	}
	for id, qty := range l.Inventory {
		out.Inventory[id] = qty
	}
	return out
}

var _ storage.Store = (*Store)(nil)
