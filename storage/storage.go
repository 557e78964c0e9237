// Package storage declares the persistence boundary of the Safari engine.
// All player state is keyed by (guild, player); implementations must make
// TryConsumeClaim atomic per claim key.
package storage

import (
	"context"
	"errors"

	"github.com/seren/safari/engine/claims"
	"github.com/seren/safari/types"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// PlayerKey addresses one player's state within a guild.
type PlayerKey struct {
	GuildID  string
	PlayerID string
}

// AttributeStore persists per-player attribute states.
type AttributeStore interface {
	GetAttributeState(ctx context.Context, key PlayerKey, attributeID string) (types.AttributeState, error)
	PutAttributeState(ctx context.Context, key PlayerKey, st types.AttributeState) error
}

// LedgerStore persists per-player economic ledgers.
type LedgerStore interface {
	GetLedger(ctx context.Context, key PlayerKey) (types.PlayerLedger, error)
	PutLedger(ctx context.Context, key PlayerKey, l types.PlayerLedger) error
}

// ClaimStore records consumption of limited action steps.
//
// TryConsumeClaim returns true and records the claim only if the claim's
// uniqueness key is still free: for player scope the consumer must not have
// claimed before, for season scope nobody may have. The check and the record
// are one atomic operation; concurrent callers on the same key see exactly
// one success.
type ClaimStore interface {
	TryConsumeClaim(ctx context.Context, key claims.Key, consumerID string) (bool, error)
}

// GuildStore persists small per-guild runtime facts, currently the active
// season id.
type GuildStore interface {
	GetSeason(ctx context.Context, guildID string) (string, error)
	PutSeason(ctx context.Context, guildID, seasonID string) error
}

// Store is the full persistence surface the engine needs.
type Store interface {
	AttributeStore
	LedgerStore
	ClaimStore
	GuildStore
}
