package repository

import (
	"context"
	"database/sql"
	"fmt"

	"aquastream/internal/models"

	"github.com/google/uuid"
)

const automationHistoryTable = "automation_history"

const (
	insertEventSQL = `
		INSERT INTO automation_history (id, occurred_at, type, ph, temp, tds, duration_s, trigger_metric)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	selectEventsSQL = `
		SELECT id, occurred_at, type, ph, temp, tds, duration_s, trigger_metric
		FROM automation_history ORDER BY rowid DESC
	`
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

var _ EventRepo = (*EventSQLite)(nil)

// Append inserts e, generating an ID when empty, and keeps only the newest keep events.
func (r *EventSQLite) Append(ctx context.Context, e models.HistoryEvent, keep int) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	var trigger *string
	if e.Trigger != "" {
		s := string(e.Trigger)
		trigger = &s
	}
	return appendTrimmed(ctx, r.db, automationHistoryTable, insertEventSQL, keep,
		e.ID,
		toMillis(e.Timestamp),
		string(e.Type),
		nullFloat(e.PH),
		nullFloat(e.Temp),
		nullFloat(e.TDS),
		nullInt(e.Duration),
		nullString(trigger),
	)
}

// List returns all events in reverse insertion order.
func (r *EventSQLite) List(ctx context.Context) ([]models.HistoryEvent, error) {
	rows, err := r.db.QueryContext(ctx, selectEventsSQL)
	if err != nil {
		return nil, fmt.Errorf("query automation history: %w", err)
	}
	defer rows.Close()

	out := make([]models.HistoryEvent, 0, models.MaxAutomationHistory)
	for rows.Next() {
		var (
			ev        models.HistoryEvent
			ms        int64
			typ       string
			ph, temp  sql.NullFloat64
			tds       sql.NullFloat64
			duration  sql.NullInt64
			triggerNS sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ms, &typ, &ph, &temp, &tds, &duration, &triggerNS); err != nil {
			return nil, fmt.Errorf("scan automation history: %w", err)
		}
		ev.Timestamp = fromMillis(ms)
		ev.Type = models.EventType(typ)
		ev.PH = floatPtr(ph)
		ev.Temp = floatPtr(temp)
		ev.TDS = floatPtr(tds)
		if duration.Valid {
			d := int(duration.Int64)
			ev.Duration = &d
		}
		if triggerNS.Valid {
			ev.Trigger = models.Metric(triggerNS.String)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EventSQLite) Clear(ctx context.Context) error {
	return clearTable(ctx, r.db, automationHistoryTable)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
