package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"plantbot/internal/schedule"
)

// Timestamps are stored as unix seconds in the SQLite schema.

// UpsertUser stores or updates the user profile keyed by chat id.
func (r *SQLiteRepository) UpsertUser(ctx context.Context, profile UserProfile) (*User, error) {
	const q = `
INSERT INTO users (chat_id, username, first_name, last_name, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (chat_id) DO UPDATE SET
    username = excluded.username,
    first_name = excluded.first_name,
    last_name = excluded.last_name
RETURNING id, chat_id, username, first_name, last_name, created_at;
`
	row := r.db.QueryRowContext(ctx, q,
		profile.ChatID,
		profile.Username,
		profile.FirstName,
		profile.LastName,
		time.Now().Unix(),
	)

	var u User
	var createdAt int64
	if err := row.Scan(&u.ID, &u.ChatID, &u.Username, &u.FirstName, &u.LastName, &createdAt); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// AddPlant creates a plant for the user.
func (r *SQLiteRepository) AddPlant(ctx context.Context, userID int64, name string, details PlantDetails) (*Plant, error) {
	const q = `
INSERT INTO plants (user_id, name, type, photo_file_id, created_at)
VALUES (?, ?, ?, ?, ?);
`
	createdAt := time.Now().Unix()
	res, err := r.db.ExecContext(ctx, q, userID, name, details.Type, details.PhotoFileID, createdAt)
	if err != nil {
		return nil, fmt.Errorf("add plant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("add plant id: %w", err)
	}
	return &Plant{
		ID:          id,
		UserID:      userID,
		Name:        name,
		Type:        details.Type,
		PhotoFileID: details.PhotoFileID,
		CreatedAt:   time.Unix(createdAt, 0).UTC(),
	}, nil
}

// ListPlants returns the user's plants, most recently created first.
func (r *SQLiteRepository) ListPlants(ctx context.Context, userID int64) ([]Plant, error) {
	const q = `
SELECT id, user_id, name, type, photo_file_id, watering_every_days, last_watered_at, created_at
FROM plants
WHERE user_id = ?
ORDER BY created_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	defer rows.Close()

	var plants []Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		plants = append(plants, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plants: %w", err)
	}
	return plants, nil
}

// GetPlant returns a plant by id, or ErrNotFound.
func (r *SQLiteRepository) GetPlant(ctx context.Context, plantID int64) (*Plant, error) {
	const q = `
SELECT id, user_id, name, type, photo_file_id, watering_every_days, last_watered_at, created_at
FROM plants
WHERE id = ?;
`
	p, err := scanPlant(r.db.QueryRowContext(ctx, q, plantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePlant removes the plant and its care history; absent ids are ignored.
func (r *SQLiteRepository) DeletePlant(ctx context.Context, plantID int64) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM care_history WHERE plant_id = ?`, plantID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM plants WHERE id = ?`, plantID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete plant: %w", err)
	}
	return nil
}

// SetWateringSchedule sets the interval and resets last_watered_at to now.
func (r *SQLiteRepository) SetWateringSchedule(ctx context.Context, plantID int64, intervalDays int) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().Unix()
		res, err := tx.ExecContext(ctx, `
UPDATE plants SET watering_every_days = ?, last_watered_at = ? WHERE id = ?;
`, intervalDays, now, plantID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		note := fmt.Sprintf("every %d days", intervalDays)
		_, err = tx.ExecContext(ctx, `
INSERT INTO care_history (plant_id, action, note, created_at) VALUES (?, ?, ?, ?);
`, plantID, ActionScheduleSet, note, now)
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

// MarkWatered advances last_watered_at to now.
func (r *SQLiteRepository) MarkWatered(ctx context.Context, plantID int64) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().Unix()
		res, err := tx.ExecContext(ctx, `UPDATE plants SET last_watered_at = ? WHERE id = ?`, now, plantID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO care_history (plant_id, action, created_at) VALUES (?, ?, ?);
`, plantID, ActionWatered, now)
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

// ListPlantsNeedingWatering returns due plants joined with owner chat ids.
func (r *SQLiteRepository) ListPlantsNeedingWatering(ctx context.Context, now time.Time) ([]DuePlant, error) {
	const q = `
SELECT p.id, p.name, p.watering_every_days, p.last_watered_at, u.chat_id
FROM plants p
JOIN users u ON u.id = p.user_id
WHERE p.watering_every_days IS NOT NULL AND p.last_watered_at IS NOT NULL
ORDER BY p.id;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list plants needing watering: %w", err)
	}
	defer rows.Close()

	var due []DuePlant
	for rows.Next() {
		var d DuePlant
		var lastWatered int64
		if err := rows.Scan(&d.PlantID, &d.Name, &d.IntervalDays, &lastWatered, &d.OwnerChatID); err != nil {
			return nil, fmt.Errorf("scan due plant: %w", err)
		}
		d.LastWateredAt = time.Unix(lastWatered, 0).UTC()
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
func (r *SQLiteRepository) ListCareHistory(ctx context.Context, plantID int64, limit int) ([]CareEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
SELECT id, plant_id, action, note, created_at
FROM care_history
WHERE plant_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, plantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list care history: %w", err)
	}
	defer rows.Close()

	var events []CareEvent
	for rows.Next() {
		var e CareEvent
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.PlantID, &e.Action, &e.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scan care event: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate care events: %w", err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlant(row rowScanner) (*Plant, error) {
	var p Plant
	var interval sql.NullInt64
	var lastWatered sql.NullInt64
	var createdAt int64
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Type, &p.PhotoFileID, &interval, &lastWatered, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scan plant: %w", err)
	}
	if interval.Valid {
		v := int(interval.Int64)
		p.WateringEveryDays = &v
	}
	if lastWatered.Valid {
		t := time.Unix(lastWatered.Int64, 0).UTC()
		p.LastWateredAt = &t
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &p, nil
}
