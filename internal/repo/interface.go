package repo

import (
	"context"
	"io/fs"
	"time"
)

// Repository defines the interface for data persistence. Two implementations
// exist: Postgres (client-server) and SQLite (file-based). The one in use is
// selected at startup by configuration; callers never depend on which backend
// is active.
type Repository interface {
	// Lifecycle
	Close()
	Ping(ctx context.Context) error
	RunMigrations(ctx context.Context, filesystem fs.FS) error

	// Users
	UpsertUser(ctx context.Context, profile UserProfile) (*User, error)

	// Plants
	AddPlant(ctx context.Context, userID int64, name string, details PlantDetails) (*Plant, error)
	ListPlants(ctx context.Context, userID int64) ([]Plant, error)
	GetPlant(ctx context.Context, plantID int64) (*Plant, error)
	DeletePlant(ctx context.Context, plantID int64) error

	// Watering schedule. SetWateringSchedule arms (or re-arms) the schedule:
	// it sets the interval and resets last_watered_at to now in one
	// transactional step. MarkWatered only advances last_watered_at.
	SetWateringSchedule(ctx context.Context, plantID int64, intervalDays int) error
	MarkWatered(ctx context.Context, plantID int64) error
	ListPlantsNeedingWatering(ctx context.Context, now time.Time) ([]DuePlant, error)

	// Care history
	ListCareHistory(ctx context.Context, plantID int64, limit int) ([]CareEvent, error)
}
