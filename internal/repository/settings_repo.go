package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

var _ SettingsRepo = (*SettingsSQLite)(nil)

const (
	upsertSettingSQL = `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`
	selectSettingSQL = `SELECT value FROM settings WHERE key = ?`
	deleteSettingSQL = `DELETE FROM settings WHERE key = ?`
)

// Get returns the stored blob for key, or (nil, nil) if there is none.
func (r *SettingsSQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	if err := r.db.QueryRowContext(ctx, selectSettingSQL, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select setting %q: %w", key, err)
	}
	return []byte(value), nil
}

// Put inserts or replaces the blob stored under key.
func (r *SettingsSQLite) Put(ctx context.Context, key string, value []byte) error {
	if _, err := r.db.ExecContext(ctx, upsertSettingSQL, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert setting %q: %w", key, err)
	}
	return nil
}

// Delete removes key; deleting a missing key is not an error.
func (r *SettingsSQLite) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, deleteSettingSQL, key); err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}
