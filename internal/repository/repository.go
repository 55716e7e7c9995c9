package repository

import (
	"context"
	"database/sql"

	"aquastream/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

// SettingsRepo stores opaque JSON blobs by key.
type SettingsRepo interface {
	// Get returns (nil, nil) when key was never written.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// EventRepo is the bounded automation/manual event log.
type EventRepo interface {
	// Append inserts e and trims the log to the newest keep entries in one transaction.
	Append(ctx context.Context, e models.HistoryEvent, keep int) error
	// List returns entries newest first.
	List(ctx context.Context) ([]models.HistoryEvent, error)
	Clear(ctx context.Context) error
}

// SensorRepo is the bounded sensor snapshot log.
type SensorRepo interface {
	Append(ctx context.Context, e models.SensorHistoryEntry, keep int) error
	List(ctx context.Context) ([]models.SensorHistoryEntry, error)
	Clear(ctx context.Context) error
}

type Repository struct {
	Settings SettingsRepo
	Events   EventRepo
	Sensors  SensorRepo
	Auth     Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Settings: NewSettingsSQLite(db),
		Events:   NewEventSQLite(db),
		Sensors:  NewSensorSQLite(db),
		Auth:     NewUserRepository(db),
	}
}
