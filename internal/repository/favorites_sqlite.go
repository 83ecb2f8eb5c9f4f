package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domrepo "KryptoMarket/internal/domain/repository"
	"KryptoMarket/pkg/sqlite"
)

var favoritesMigrations = []string{
	`CREATE TABLE IF NOT EXISTS favorites (
		owner      TEXT    NOT NULL,
		symbol     TEXT    NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (owner, symbol)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_favorites_owner_created ON favorites(owner, created_at)`,
}

// SQLiteFavorites persists favorites in a local SQLite file.
type SQLiteFavorites struct {
	db *sql.DB
}

var _ domrepo.FavoritesStore = (*SQLiteFavorites)(nil)

// NewSQLiteFavorites opens (or creates) the database at path and migrates it.
func NewSQLiteFavorites(ctx context.Context, path string) (*SQLiteFavorites, error) {
	db, err := sqlite.Open(ctx, path, favoritesMigrations)
	if err != nil {
		return nil, fmt.Errorf("favorites store: %w", err)
	}
	return &SQLiteFavorites{db: db}, nil
}

func (s *SQLiteFavorites) List(ctx context.Context, owner string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol FROM favorites WHERE owner = ? ORDER BY created_at, symbol`, owner)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *SQLiteFavorites) Add(ctx context.Context, owner, symbol string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (owner, symbol, created_at) VALUES (?, ?, ?)`,
		owner, symbol, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (s *SQLiteFavorites) Remove(ctx context.Context, owner, symbol string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE owner = ? AND symbol = ?`, owner, symbol)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

func (s *SQLiteFavorites) Contains(ctx context.Context, owner, symbol string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM favorites WHERE owner = ? AND symbol = ?`, owner, symbol).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("contains favorite: %w", err)
	}
	return true, nil
}

func (s *SQLiteFavorites) Close() error {
	return s.db.Close()
}
