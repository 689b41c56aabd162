// Package history records opened packs in SQLite and answers the packs
// opened and cards pulled counters.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/arcanaland/boosterpack/internal/pack"
	"github.com/arcanaland/boosterpack/internal/rarity"
)

// Record is one stored pack.
type Record struct {
	ID        string      `json:"id"`
	Expansion string      `json:"expansion"`
	OpenedAt  time.Time   `json:"opened_at"`
	HasRare   bool        `json:"has_rare"`
	Slots     []pack.Slot `json:"slots"`
}

// CardCount is how many times a card was pulled.
type CardCount struct {
	CardID string      `json:"card_id"`
	Name   string      `json:"name"`
	Tier   rarity.Tier `json:"tier"`
	Count  int         `json:"count"`
}

// Store handles all database operations
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the history database at path
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs database migrations
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS packs (
			id TEXT PRIMARY KEY,
			expansion TEXT NOT NULL DEFAULT '',
			opened_at INTEGER NOT NULL,
			has_rare INTEGER NOT NULL DEFAULT 0,
			slots TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_packs_opened ON packs(opened_at)`,
		`CREATE TABLE IF NOT EXISTS pulls (
			pack_id TEXT NOT NULL REFERENCES packs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			card_id TEXT NOT NULL,
			card_name TEXT NOT NULL,
			tier TEXT NOT NULL,
			forced INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (pack_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pulls_card ON pulls(card_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// RecordPack stores p and its pulls. A pack without an ID gets a new one,
// which is returned.
func (s *Store) RecordPack(ctx context.Context, p pack.Pack) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	slots, err := json.Marshal(p.Slots)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO packs (id, expansion, opened_at, has_rare, slots)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Expansion, s.now().UnixNano(), p.HasRare(), string(slots))
	if err != nil {
		return "", fmt.Errorf("insert pack: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pulls (pack_id, position, card_id, card_name, tier, forced)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, slot := range p.Slots {
		if _, err := stmt.ExecContext(ctx, p.ID, slot.Position, slot.Card.ID, slot.Card.Name,
			slot.Tier.String(), slot.Forced); err != nil {
			return "", fmt.Errorf("insert pull: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return p.ID, nil
}

// Recent returns the latest packs, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, expansion, opened_at, has_rare, slots
		FROM packs ORDER BY opened_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var openedAt int64
		var slots string
		if err := rows.Scan(&r.ID, &r.Expansion, &openedAt, &r.HasRare, &slots); err != nil {
			return nil, err
		}
		r.OpenedAt = time.Unix(0, openedAt).UTC()
		if err := json.Unmarshal([]byte(slots), &r.Slots); err != nil {
			return nil, fmt.Errorf("decode pack %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Counts returns how often each card was pulled, most pulled first. An
// empty expansion counts every pack.
func (s *Store) Counts(ctx context.Context, expansion string) ([]CardCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pl.card_id, MAX(pl.card_name), MAX(pl.tier), COUNT(*) AS n
		FROM pulls pl JOIN packs p ON p.id = pl.pack_id
		WHERE ? = '' OR p.expansion = ?
		GROUP BY pl.card_id
		ORDER BY n DESC, pl.card_id
	`, expansion, expansion)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []CardCount
	for rows.Next() {
		var c CardCount
		var tier string
		if err := rows.Scan(&c.CardID, &c.Name, &tier, &c.Count); err != nil {
			return nil, err
		}
		if c.Tier, err = rarity.ParseTier(tier); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// TotalPacks returns the number of packs recorded, optionally for one
// expansion only
func (s *Store) TotalPacks(ctx context.Context, expansion string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM packs WHERE ? = '' OR expansion = ?`, expansion, expansion).Scan(&n)
	return n, err
}
