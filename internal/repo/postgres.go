package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"plantbot/internal/schedule"
)

// PostgresRepository provides typed access to a Postgres database.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres opens a new connection pool to the database.
func NewPostgres(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	r := &PostgresRepository{
		pool:   pool,
		logger: logger.With("component", "repo_postgres"),
	}

	if err := r.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Ping ensures the database is reachable.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// WithTx executes fn within a database transaction.
func (r *PostgresRepository) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

// RunMigrations applies schema migrations on the connected database.
func (r *PostgresRepository) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	return ApplyMigrations(ctx, r.pool, filesystem)
}

// UpsertUser stores or updates the user profile keyed by chat id. Safe to
// call on every interaction; display fields are last-write-wins.
func (r *PostgresRepository) UpsertUser(ctx context.Context, profile UserProfile) (*User, error) {
	const q = `
INSERT INTO users (chat_id, username, first_name, last_name)
VALUES ($1, $2, $3, $4)
ON CONFLICT (chat_id) DO UPDATE SET
    username = EXCLUDED.username,
    first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name
RETURNING id, chat_id, username, first_name, last_name, created_at;
`
	row := r.pool.QueryRow(ctx, q,
		profile.ChatID,
		profile.Username,
		profile.FirstName,
		profile.LastName,
	)

	var u User
	if err := row.Scan(&u.ID, &u.ChatID, &u.Username, &u.FirstName, &u.LastName, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}

// AddPlant creates a plant for the user. Only the name is required.
func (r *PostgresRepository) AddPlant(ctx context.Context, userID int64, name string, details PlantDetails) (*Plant, error) {
	const q = `
INSERT INTO plants (user_id, name, type, photo_file_id)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at;
`
	p := Plant{
		UserID:      userID,
		Name:        name,
		Type:        details.Type,
		PhotoFileID: details.PhotoFileID,
	}
	err := r.pool.QueryRow(ctx, q, userID, name, details.Type, details.PhotoFileID).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add plant: %w", err)
	}
	return &p, nil
}

// ListPlants returns the user's plants, most recently created first.
func (r *PostgresRepository) ListPlants(ctx context.Context, userID int64) ([]Plant, error) {
	const q = `
SELECT id, user_id, name, type, photo_file_id, watering_every_days, last_watered_at, created_at
FROM plants
WHERE user_id = $1
ORDER BY created_at DESC, id DESC;
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	defer rows.Close()

	var plants []Plant
	for rows.Next() {
		var p Plant
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Type, &p.PhotoFileID, &p.WateringEveryDays, &p.LastWateredAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plant: %w", err)
		}
		plants = append(plants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plants: %w", err)
	}
	return plants, nil
}

// GetPlant returns a plant by id, or ErrNotFound.
func (r *PostgresRepository) GetPlant(ctx context.Context, plantID int64) (*Plant, error) {
	const q = `
SELECT id, user_id, name, type, photo_file_id, watering_every_days, last_watered_at, created_at
FROM plants
WHERE id = $1;
`
	var p Plant
	err := r.pool.QueryRow(ctx, q, plantID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Type, &p.PhotoFileID, &p.WateringEveryDays, &p.LastWateredAt, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plant: %w", err)
	}
	return &p, nil
}

// DeletePlant removes the plant and its care history. Deleting a plant that
// no longer exists is not an error.
func (r *PostgresRepository) DeletePlant(ctx context.Context, plantID int64) error {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM care_history WHERE plant_id = $1`, plantID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM plants WHERE id = $1`, plantID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete plant: %w", err)
	}
	return nil
}

// SetWateringSchedule sets the interval and resets last_watered_at to now,
// arming the schedule in one transactional step.
func (r *PostgresRepository) SetWateringSchedule(ctx context.Context, plantID int64, intervalDays int) error {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
UPDATE plants SET watering_every_days = $2, last_watered_at = NOW()
WHERE id = $1;
`, plantID, intervalDays)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		note := fmt.Sprintf("every %d days", intervalDays)
		_, err = tx.Exec(ctx, `
INSERT INTO care_history (plant_id, action, note) VALUES ($1, $2, $3);
`, plantID, ActionScheduleSet, note)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("set watering schedule: %w", err)
	}
	return nil
}

// MarkWatered advances last_watered_at to now. The interval is untouched.
// Marking twice in a row is harmless.
func (r *PostgresRepository) MarkWatered(ctx context.Context, plantID int64) error {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `UPDATE plants SET last_watered_at = NOW() WHERE id = $1`, plantID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		_, err = tx.Exec(ctx, `INSERT INTO care_history (plant_id, action) VALUES ($1, $2)`, plantID, ActionWatered)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("mark watered: %w", err)
	}
	return nil
}

// ListPlantsNeedingWatering returns every schedulable plant that is due at
// now, joined with the owner's chat id. The due decision itself lives in the
// schedule package.
func (r *PostgresRepository) ListPlantsNeedingWatering(ctx context.Context, now time.Time) ([]DuePlant, error) {
	const q = `
SELECT p.id, p.name, p.watering_every_days, p.last_watered_at, u.chat_id
FROM plants p
JOIN users u ON u.id = p.user_id
WHERE p.watering_every_days IS NOT NULL AND p.last_watered_at IS NOT NULL
ORDER BY p.id;
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list plants needing watering: %w", err)
	}
	defer rows.Close()

	var due []DuePlant
	for rows.Next() {
		var d DuePlant
		if err := rows.Scan(&d.PlantID, &d.Name, &d.IntervalDays, &d.LastWateredAt, &d.OwnerChatID); err != nil {
			return nil, fmt.Errorf("scan due plant: %w", err)
		}
		if schedule.IsDue(now, d.LastWateredAt, d.IntervalDays) {
			due = append(due, d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due plants: %w", err)
	}
	return due, nil
}

// ListCareHistory returns the latest care events for a plant.
func (r *PostgresRepository) ListCareHistory(ctx context.Context, plantID int64, limit int) ([]CareEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
SELECT id, plant_id, action, note, created_at
FROM care_history
WHERE plant_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2;
`
	rows, err := r.pool.Query(ctx, q, plantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list care history: %w", err)
	}
	defer rows.Close()

	var events []CareEvent
	for rows.Next() {
		var e CareEvent
		if err := rows.Scan(&e.ID, &e.PlantID, &e.Action, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan care event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate care events: %w", err)
	}
	return events, nil
}
