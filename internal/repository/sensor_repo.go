package repository

import (
	"context"
	"database/sql"
	"fmt"

	"aquastream/internal/models"

	"github.com/google/uuid"
)

const sensorHistoryTable = "sensor_history"

const (
	insertSensorSQL = `
		INSERT INTO sensor_history (id, occurred_at, temp, ph, tds)
		VALUES (?, ?, ?, ?, ?)
	`
	selectSensorsSQL = `
		SELECT id, occurred_at, temp, ph, tds
		FROM sensor_history ORDER BY rowid DESC
	`
)

type SensorSQLite struct {
	db *sql.DB
}

func NewSensorSQLite(db *sql.DB) *SensorSQLite { return &SensorSQLite{db: db} }

var _ SensorRepo = (*SensorSQLite)(nil)

func (r *SensorSQLite) Append(ctx context.Context, e models.SensorHistoryEntry, keep int) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return appendTrimmed(ctx, r.db, sensorHistoryTable, insertSensorSQL, keep,
		e.ID, toMillis(e.Timestamp), e.Temp, e.PH, e.TDS)
}

// List returns all snapshots in reverse insertion order.
func (r *SensorSQLite) List(ctx context.Context) ([]models.SensorHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, selectSensorsSQL)
	if err != nil {
		return nil, fmt.Errorf("query sensor history: %w", err)
	}
	defer rows.Close()

	out := make([]models.SensorHistoryEntry, 0, models.MaxSensorHistory)
	for rows.Next() {
		var (
			e  models.SensorHistoryEntry
			ms int64
		)
		if err := rows.Scan(&e.ID, &ms, &e.Temp, &e.PH, &e.TDS); err != nil {
			return nil, fmt.Errorf("scan sensor history: %w", err)
		}
		e.Timestamp = fromMillis(ms)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SensorSQLite) Clear(ctx context.Context) error {
	return clearTable(ctx, r.db, sensorHistoryTable)
}
