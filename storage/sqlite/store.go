// Package sqlite provides the persistent Safari store. All player state is
// keyed by (guild, player); claim consumption relies on the claims table's
// primary key so the check-and-record is a single atomic insert.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/seren/safari/engine/claims"
	"github.com/seren/safari/storage"
	"github.com/seren/safari/storage/sqlite/migrations"
	"github.com/seren/safari/types"
	_ "modernc.org/sqlite"
)

// Store persists Safari player state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store at the provided path and applies embedded
// migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetAttributeState returns one persisted attribute state.
func (s *Store) GetAttributeState(ctx context.Context, key storage.PlayerKey, attributeID string) (types.AttributeState, error) {
	if err := s.ready(ctx); err != nil {
		return types.AttributeState{}, err
	}

	var current, max, lastUpdate int64
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT current, max, last_update_ms
		FROM attribute_states
		WHERE guild_id = ? AND player_id = ? AND attribute_id = ?`,
		key.GuildID, key.PlayerID, attributeID,
	).Scan(&current, &max, &lastUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return types.AttributeState{}, storage.ErrNotFound
	}
	if err != nil {
		return types.AttributeState{}, fmt.Errorf("query attribute state: %w", err)
	}

	return types.AttributeState{
		AttributeID: attributeID,
		Current:     current,
		Max:         max,
		LastUpdate:  fromMillis(lastUpdate),
	}, nil
}

// PutAttributeState upserts one attribute state.
func (s *Store) PutAttributeState(ctx context.Context, key storage.PlayerKey, st types.AttributeState) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(st.AttributeID) == "" {
		return fmt.Errorf("attribute id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO attribute_states (guild_id, player_id, attribute_id, current, max, last_update_ms)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (guild_id, player_id, attribute_id)
		DO UPDATE SET current = excluded.current, max = excluded.max, last_update_ms = excluded.last_update_ms`,
		key.GuildID, key.PlayerID, st.AttributeID, st.Current, st.Max, toMillis(st.LastUpdate),
	)
	if err != nil {
		return fmt.Errorf("upsert attribute state: %w", err)
	}
	return nil
}

// GetLedger returns one player's economic ledger.
func (s *Store) GetLedger(ctx context.Context, key storage.PlayerKey) (types.PlayerLedger, error) {
	if err := s.ready(ctx); err != nil {
		return types.PlayerLedger{}, err
	}

	var balance int64
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT currency_balance FROM ledgers
		WHERE guild_id = ? AND player_id = ?`,
		key.GuildID, key.PlayerID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return types.PlayerLedger{}, storage.ErrNotFound
	}
	if err != nil {
		return types.PlayerLedger{}, fmt.Errorf("query ledger: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT item_id, quantity FROM inventories
		WHERE guild_id = ? AND player_id = ?`,
		key.GuildID, key.PlayerID,
	)
	if err != nil {
		return types.PlayerLedger{}, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	led := types.PlayerLedger{CurrencyBalance: balance, Inventory: map[string]int64{}}
	for rows.Next() {
		var itemID string
		var quantity int64
		if err := rows.Scan(&itemID, &quantity); err != nil {
			return types.PlayerLedger{}, fmt.Errorf("scan inventory row: %w", err)
		}
		led.Inventory[itemID] = quantity
	}
	if err := rows.Err(); err != nil {
		return types.PlayerLedger{}, fmt.Errorf("iterate inventory: %w", err)
	}
	return led, nil
}

// PutLedger replaces one player's economic ledger in a single transaction.
func (s *Store) PutLedger(ctx context.Context, key storage.PlayerKey, led types.PlayerLedger) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if led.CurrencyBalance < 0 {
		return fmt.Errorf("currency balance must not be negative")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ledgers (guild_id, player_id, currency_balance, updated_at_ms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (guild_id, player_id)
		DO UPDATE SET currency_balance = excluded.currency_balance, updated_at_ms = excluded.updated_at_ms`,
		key.GuildID, key.PlayerID, led.CurrencyBalance, toMillis(time.Now()),
	); err != nil {
		return fmt.Errorf("upsert ledger: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM inventories WHERE guild_id = ? AND player_id = ?`,
		key.GuildID, key.PlayerID,
	); err != nil {
		return fmt.Errorf("clear inventory: %w", err)
	}

	for itemID, quantity := range led.Inventory {
		if quantity < 0 {
			return fmt.Errorf("item %q quantity must not be negative", itemID)
		}
		if quantity == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO inventories (guild_id, player_id, item_id, quantity)
			VALUES (?, ?, ?, ?)`,
			key.GuildID, key.PlayerID, itemID, quantity,
		); err != nil {
			return fmt.Errorf("insert inventory row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

// TryConsumeClaim records a claim if its uniqueness key is still free. The
// insert either takes the claims primary key or is ignored, so concurrent
// consumers on the same key see exactly one success.
func (s *Store) TryConsumeClaim(ctx context.Context, key claims.Key, consumerID string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}

	res, err := s.sqlDB.ExecContext(ctx, `
		INSERT OR IGNORE INTO claims (guild_id, season_id, action_id, step_index, scope, consumer_id, claimed_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key.GuildID, key.SeasonID, key.ActionID, key.StepIndex, string(key.Scope), consumerID,
		toMillis(time.Now()),
	)
	if err != nil {
		return false, fmt.Errorf("insert claim: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return affected == 1, nil
}

// GetSeason returns the guild's active season id.
func (s *Store) GetSeason(ctx context.Context, guildID string) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}

	var seasonID string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT season_id FROM guild_meta WHERE guild_id = ?`, guildID,
	).Scan(&seasonID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query season: %w", err)
	}
	return seasonID, nil
}

// PutSeason sets the guild's active season id.
func (s *Store) PutSeason(ctx context.Context, guildID, seasonID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(seasonID) == "" {
		return fmt.Errorf("season id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO guild_meta (guild_id, season_id) VALUES (?, ?)
		ON CONFLICT (guild_id) DO UPDATE SET season_id = excluded.season_id`,
		guildID, seasonID,
	)
	if err != nil {
		return fmt.Errorf("upsert season: %w", err)
	}
	return nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
