// Package snapshot implements JSON export and import of one player's
// persisted state, for backups and for moving sandbox fixtures around.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/seren/safari/storage"
	"github.com/seren/safari/types"
)

// Version is written into every export so future format changes can be
// detected on load.
const Version = 1

// Data is the JSON-serializable snapshot format.
type Data struct {
	Version    int                    `json:"version"`
	GuildID    string                 `json:"guild_id"`
	PlayerID   string                 `json:"player_id"`
	ExportedAt time.Time              `json:"exported_at"`
	Ledger     types.PlayerLedger     `json:"ledger"`
	Attributes []types.AttributeState `json:"attributes"`
}

// Gather reads one player's ledger and the given attributes from the store
// and assembles a snapshot. Missing records are simply absent from the
// result.
func Gather(ctx context.Context, store storage.Store, key storage.PlayerKey, attributeIDs []string, now time.Time) (Data, error) {
	d := Data{
		Version:    Version,
		GuildID:    key.GuildID,
		PlayerID:   key.PlayerID,
		ExportedAt: now,
	}

	led, err := store.GetLedger(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Data{}, fmt.Errorf("gather ledger: %w", err)
	}
	if err == nil {
		d.Ledger = led
	}

	ids := append([]string(nil), attributeIDs...)
	sort.Strings(ids)
	for _, id := range ids {
		st, err := store.GetAttributeState(ctx, key, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return Data{}, fmt.Errorf("gather attribute %s: %w", id, err)
		}
		d.Attributes = append(d.Attributes, st)
	}
	return d, nil
}

// Marshal serializes a snapshot to indented JSON.
func Marshal(d Data) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Unmarshal deserializes snapshot bytes, guarding against nil maps and
// ledger values no store would accept.
func Unmarshal(data []byte) (*Data, error) {
	var d Data
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	if d.Version != Version {
		return nil, fmt.Errorf("unsupported snapshot version %d", d.Version)
	}
	if d.Ledger.CurrencyBalance < 0 {
		return nil, fmt.Errorf("snapshot balance must not be negative")
	}
	for itemID, quantity := range d.Ledger.Inventory {
		if quantity < 0 {
			return nil, fmt.Errorf("snapshot item %q quantity must not be negative", itemID)
		}
	}
	if d.Ledger.Inventory == nil {
		d.Ledger.Inventory = map[string]int64{}
	}
	return &d, nil
}

// Apply writes the snapshot's state back into a store under the given key,
// replacing the player's ledger and each included attribute state.
func (d *Data) Apply(ctx context.Context, store storage.Store, key storage.PlayerKey) error {
	if err := store.PutLedger(ctx, key, d.Ledger); err != nil {
		return fmt.Errorf("apply ledger: %w", err)
	}
	for _, st := range d.Attributes {
		if err := store.PutAttributeState(ctx, key, st); err != nil {
			return fmt.Errorf("apply attribute %s: %w", st.AttributeID, err)
		}
	}
	return nil
}
