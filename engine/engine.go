// Package engine wires the condition evaluator, action executor, resource
// clock, and ledgers behind a single entry point. One Invoke call is one
// player's one attempt to fire one custom action; all mutations for a given
// player are serialized by a per-player lock, and season-scope claim
// exclusivity is settled atomically in the store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seren/safari/engine/actions"
	"github.com/seren/safari/engine/clock"
	"github.com/seren/safari/engine/ledger"
	"github.com/seren/safari/engine/registry"
	"github.com/seren/safari/storage"
	"github.com/seren/safari/types"
)

// ErrUnknownGuild reports an invocation for a guild with no published config.
var ErrUnknownGuild = errors.New("unknown guild")

// ErrUnknownAction reports an invocation of an undefined action id.
var ErrUnknownAction = errors.New("unknown action")

// ErrUnknownAttribute reports a read of an undefined attribute id.
var ErrUnknownAttribute = errors.New("unknown attribute")

// Engine is the rules engine façade. Guild configurations are published to
// it by the admin surface; player state lives in the store.
type Engine struct {
	store storage.Store
	exec  *actions.Executor
	warnf func(format string, args ...any)

	mu     sync.RWMutex
	guilds map[string]*types.GuildDef
	attrs  map[string]map[string]types.AttributeDefinition

	lockMu sync.Mutex
	locks  map[storage.PlayerKey]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithWarnf routes data-integrity warnings to the given sink instead of the
// standard logger.
func WithWarnf(warnf func(format string, args ...any)) Option {
	return func(e *Engine) { e.warnf = warnf }
}

// New creates an engine over the given store.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		warnf:  log.Printf,
		guilds: map[string]*types.GuildDef{},
		attrs:  map[string]map[string]types.AttributeDefinition{},
		locks:  map[storage.PlayerKey]*sync.Mutex{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.exec = actions.New(store, func(format string, args ...any) { e.warnf(format, args...) })
	return e
}

// PublishGuild installs or replaces one guild's configuration. The attribute
// catalog seen by reads is the preset catalog with guild definitions layered
// on top.
func (e *Engine) PublishGuild(def *types.GuildDef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.guilds[def.GuildID] = def
	e.attrs[def.GuildID] = registry.Merge(def.Attributes)
}

// Guild returns a published guild configuration.
func (e *Engine) Guild(guildID string) (*types.GuildDef, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	def, ok := e.guilds[guildID]
	return def, ok
}

// Invoke fires one custom action for one player. Role membership is supplied
// by the caller; the engine has no host-platform access. The returned result
// always carries a transcript — step-level rejections (insufficient funds,
// exhausted claims, truncated chains) are recorded there, not surfaced as
// errors. Only unknown ids and storage failures return an error.
func (e *Engine) Invoke(ctx context.Context, guildID, actionID, playerID string, roles map[string]bool, now time.Time) (types.ExecutionResult, error) {
	defs, ok := e.Guild(guildID)
	if !ok {
		return types.ExecutionResult{}, fmt.Errorf("%w: %s", ErrUnknownGuild, guildID)
	}
	action, ok := defs.Actions[actionID]
	if !ok {
		return types.ExecutionResult{}, fmt.Errorf("%w: %s", ErrUnknownAction, actionID)
	}

	key := storage.PlayerKey{GuildID: guildID, PlayerID: playerID}
	unlock := e.lockPlayer(key)
	defer unlock()

	season, err := e.season(ctx, guildID, defs)
	if err != nil {
		return types.ExecutionResult{}, err
	}

	led, err := e.loadLedger(ctx, key)
	if err != nil {
		return types.ExecutionResult{}, err
	}

	req := actions.Request{
		GuildID:  guildID,
		SeasonID: season,
		PlayerID: playerID,
		Roles:    roles,
	}
	transcript, verdict := e.exec.Execute(ctx, defs, action, req, &led)

	if err := e.store.PutLedger(ctx, key, led); err != nil {
		return types.ExecutionResult{}, fmt.Errorf("persist ledger: %w", err)
	}

	return types.ExecutionResult{
		InvocationID: uuid.NewString(),
		ActionID:     actionID,
		Verdict:      verdict,
		Transcript:   transcript,
		Ledger:       ledger.Clone(led),
	}, nil
}

// GetLiveAttributeValue returns the regenerated view of one attribute.
// With persist set, the regenerated state is written back (materialized);
// otherwise the read is a pure peek. A malformed definition freezes the
// attribute at its last known value and is reported alongside it.
func (e *Engine) GetLiveAttributeValue(ctx context.Context, guildID, playerID, attributeID string, now time.Time, persist bool) (types.LiveAttribute, error) {
	def, ok := e.attribute(guildID, attributeID)
	if !ok {
		return types.LiveAttribute{}, fmt.Errorf("%w: %s", ErrUnknownAttribute, attributeID)
	}

	key := storage.PlayerKey{GuildID: guildID, PlayerID: playerID}
	unlock := e.lockPlayer(key)
	defer unlock()

	st, err := e.store.GetAttributeState(ctx, key, attributeID)
	if errors.Is(err, storage.ErrNotFound) {
		st = clock.NewState(def, now)
		if persist {
			if err := e.store.PutAttributeState(ctx, key, st); err != nil {
				return types.LiveAttribute{}, fmt.Errorf("persist attribute state: %w", err)
			}
		}
		return liveOf(st, def), nil
	}
	if err != nil {
		return types.LiveAttribute{}, err
	}

	next, changed, clockErr := clock.Advance(st, def, now)
	if clockErr != nil {
		e.warnf("attribute %s frozen for player %s: %v", attributeID, playerID, clockErr)
		return liveOf(st, def), clockErr
	}
	if changed && persist {
		if err := e.store.PutAttributeState(ctx, key, next); err != nil {
			return types.LiveAttribute{}, fmt.Errorf("persist attribute state: %w", err)
		}
	}
	return liveOf(next, def), nil
}

// ApplyAttributeDelta adjusts a player's attribute by a signed amount after
// materializing any pending regeneration, clamping to the attribute bounds.
func (e *Engine) ApplyAttributeDelta(ctx context.Context, guildID, playerID, attributeID string, delta int64, now time.Time) (types.LiveAttribute, error) {
	def, ok := e.attribute(guildID, attributeID)
	if !ok {
		return types.LiveAttribute{}, fmt.Errorf("%w: %s", ErrUnknownAttribute, attributeID)
	}

	key := storage.PlayerKey{GuildID: guildID, PlayerID: playerID}
	unlock := e.lockPlayer(key)
	defer unlock()

	st, err := e.store.GetAttributeState(ctx, key, attributeID)
	if errors.Is(err, storage.ErrNotFound) {
		st = clock.NewState(def, now)
	} else if err != nil {
		return types.LiveAttribute{}, err
	} else {
		next, _, clockErr := clock.Advance(st, def, now)
		if clockErr == nil {
			st = next
		}
	}

	st.Current += delta
	max := st.Max
	if max <= 0 {
		max = def.Max
	}
	if def.Category == types.CategoryResource {
		if st.Current > max {
			st.Current = max
		}
		if st.Current < def.Min {
			st.Current = def.Min
		}
	}
	if err := e.store.PutAttributeState(ctx, key, st); err != nil {
		return types.LiveAttribute{}, fmt.Errorf("persist attribute state: %w", err)
	}
	return liveOf(st, def), nil
}

// PlayerStatus returns a player's ledger plus the live view of every
// published attribute, for display surfaces. Reads are peeks; nothing is
// materialized.
func (e *Engine) PlayerStatus(ctx context.Context, guildID, playerID string, now time.Time) (types.PlayerLedger, []types.LiveAttribute, error) {
	e.mu.RLock()
	catalog := e.attrs[guildID]
	e.mu.RUnlock()
	if catalog == nil {
		return types.PlayerLedger{}, nil, fmt.Errorf("%w: %s", ErrUnknownGuild, guildID)
	}

	key := storage.PlayerKey{GuildID: guildID, PlayerID: playerID}
	led, err := e.loadLedger(ctx, key)
	if err != nil {
		return types.PlayerLedger{}, nil, err
	}

	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var live []types.LiveAttribute
	for _, id := range ids {
		la, err := e.GetLiveAttributeValue(ctx, guildID, playerID, id, now, false)
		if err != nil && !errors.Is(err, clock.ErrBadDefinition) {
			return types.PlayerLedger{}, nil, err
		}
		live = append(live, la)
	}
	return led, live, nil
}

// AdvanceSeason sets the guild's active season. Claims recorded under past
// seasons remain; season-scoped steps become claimable again.
func (e *Engine) AdvanceSeason(ctx context.Context, guildID, seasonID string) error {
	if seasonID == "" {
		return fmt.Errorf("season id is required")
	}
	return e.store.PutSeason(ctx, guildID, seasonID)
}

// Season returns the guild's active season id.
func (e *Engine) Season(ctx context.Context, guildID string) (string, error) {
	defs, ok := e.Guild(guildID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownGuild, guildID)
	}
	return e.season(ctx, guildID, defs)
}

func (e *Engine) season(ctx context.Context, guildID string, defs *types.GuildDef) (string, error) {
	season, err := e.store.GetSeason(ctx, guildID)
	if errors.Is(err, storage.ErrNotFound) {
		return defs.SeasonID, nil
	}
	if err != nil {
		return "", err
	}
	return season, nil
}

func (e *Engine) loadLedger(ctx context.Context, key storage.PlayerKey) (types.PlayerLedger, error) {
	led, err := e.store.GetLedger(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return ledger.New(), nil
	}
	if err != nil {
		return types.PlayerLedger{}, err
	}
	if led.Inventory == nil {
		led.Inventory = map[string]int64{}
	}
	return led, nil
}

func (e *Engine) attribute(guildID, attributeID string) (types.AttributeDefinition, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	catalog, ok := e.attrs[guildID]
	if !ok {
		return types.AttributeDefinition{}, false
	}
	def, ok := catalog[attributeID]
	return def, ok
}

func liveOf(st types.AttributeState, def types.AttributeDefinition) types.LiveAttribute {
	max := st.Max
	if max <= 0 {
		max = def.Max
	}
	return types.LiveAttribute{AttributeID: st.AttributeID, Current: st.Current, Max: max}
}

// lockPlayer serializes mutations for one player. Locks are created on
// first use and retained; the set of active players per process is small.
func (e *Engine) lockPlayer(key storage.PlayerKey) func() {
	e.lockMu.Lock()
	mu, ok := e.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[key] = mu
	}
	e.lockMu.Unlock()
	mu.Lock()
	return mu.Unlock
}
