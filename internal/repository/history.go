package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// appendTrimmed runs insert and then deletes everything but the keep most recently
// inserted rows of table, both inside one transaction so the cap holds after every insert.
func appendTrimmed(ctx context.Context, db *sql.DB, table, insertSQL string, keep int, args ...any) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s append: %w", table, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, insertSQL, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	if keep > 0 {
		if _, err := tx.ExecContext(ctx, trimSQL(table), keep); err != nil {
			return fmt.Errorf("trim %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s append: %w", table, err)
	}
	return nil
}

// trimSQL ranks rows by rowid, i.e. insertion order. occurred_at is wall clock
// and may step backwards, so it is never used to pick what to drop.
func trimSQL(table string) string {
	return `DELETE FROM ` + table + ` WHERE rowid NOT IN (SELECT rowid FROM ` + table +
		` ORDER BY rowid DESC LIMIT ?)`
}

func clearTable(ctx context.Context, db *sql.DB, table string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
