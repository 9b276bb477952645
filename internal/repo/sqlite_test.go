package repo

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"plantbot/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	r, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "test.db"), testLogger())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(r.Close)

	if err := r.RunMigrations(ctx, migrations.Files); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return r
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

// backdate moves a plant's last_watered_at into the past for due checks.
func backdate(t *testing.T, r *SQLiteRepository, plantID int64, ago time.Duration) {
	t.Helper()
	ts := time.Now().Add(-ago).Unix()
	if _, err := r.db.Exec(`UPDATE plants SET last_watered_at = ? WHERE id = ?`, ts, plantID); err != nil {
		t.Fatalf("backdate plant: %v", err)
	}
}

func TestUpsertUserIsIdempotent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first, err := r.UpsertUser(ctx, UserProfile{ChatID: 100, Username: strPtr("ann")})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := r.UpsertUser(ctx, UserProfile{ChatID: 100, Username: strPtr("ann_renamed")})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("re-registration created a new row: %d vs %d", first.ID, second.ID)
	}
	if second.Username == nil || *second.Username != "ann_renamed" {
		t.Fatalf("display fields not refreshed: %+v", second.Username)
	}
}

func TestListPlantsNewestFirst(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	user, err := r.UpsertUser(ctx, UserProfile{ChatID: 1})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	for _, name := range []string{"Ficus", "Monstera", "Cactus"} {
		if _, err := r.AddPlant(ctx, user.ID, name, PlantDetails{}); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	plants, err := r.ListPlants(ctx, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(plants) != 3 {
		t.Fatalf("expected 3 plants, got %d", len(plants))
	}
	if plants[0].Name != "Cactus" || plants[2].Name != "Ficus" {
		t.Fatalf("expected newest first, got %s .. %s", plants[0].Name, plants[2].Name)
	}
}

func TestUnarmedScheduleNeverDue(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	user, _ := r.UpsertUser(ctx, UserProfile{ChatID: 2})
	plant, err := r.AddPlant(ctx, user.ID, "Ficus", PlantDetails{})
	if err != nil {
		t.Fatalf("add plant: %v", err)
	}

	// No interval, no last-watered timestamp: not schedulable.
	farFuture := time.Now().Add(365 * 24 * time.Hour)
	due, err := r.ListPlantsNeedingWatering(ctx, farFuture)
	if err != nil {
		t.Fatalf("due query: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("unarmed plant reported due: %+v", due)
	}

	got, err := r.GetPlant(ctx, plant.ID)
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if got.Schedulable() {
		t.Fatal("plant without schedule must not be schedulable")
	}
}

func TestSetWateringScheduleArmsAndResets(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	user, _ := r.UpsertUser(ctx, UserProfile{ChatID: 3})
	plant, _ := r.AddPlant(ctx, user.ID, "Monstera", PlantDetails{})

	if err := r.SetWateringSchedule(ctx, plant.ID, 7); err != nil {
		t.Fatalf("set schedule: %v", err)
	}

	got, err := r.GetPlant(ctx, plant.ID)
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if got.WateringEveryDays == nil || *got.WateringEveryDays != 7 {
		t.Fatalf("interval not stored: %+v", got.WateringEveryDays)
	}
	if got.LastWateredAt == nil {
		t.Fatal("last_watered_at not reset on arming")
	}
	if d := time.Since(*got.LastWateredAt); d < 0 || d > time.Minute {
		t.Fatalf("last_watered_at not near now: %v ago", d)
	}

	// Armed just now: not due.
	due, err := r.ListPlantsNeedingWatering(ctx, time.Now())
	if err != nil {
		t.Fatalf("due query: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("freshly armed plant reported due: %+v", due)
	}

	if err := r.SetWateringSchedule(ctx, 9999, 7); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing plant, got %v", err)
	}
}

func TestDueAndAcknowledgeRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	user, _ := r.UpsertUser(ctx, UserProfile{ChatID: 42, FirstName: strPtr("Uma")})
	plant, _ := r.AddPlant(ctx, user.ID, "Ficus", PlantDetails{})

	if err := r.SetWateringSchedule(ctx, plant.ID, 1); err != nil {
		t.Fatalf("set schedule: %v", err)
	}
	backdate(t, r, plant.ID, 48*time.Hour)

	due, err := r.ListPlantsNeedingWatering(ctx, time.Now())
	if err != nil {
		t.Fatalf("due query: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected exactly one due plant, got %d", len(due))
	}
	if due[0].Name != "Ficus" || due[0].OwnerChatID != 42 || due[0].PlantID != plant.ID {
		t.Fatalf("unexpected due row: %+v", due[0])
	}

	if err := r.MarkWatered(ctx, plant.ID); err != nil {
		t.Fatalf("mark watered: %v", err)
	}
	due, err = r.ListPlantsNeedingWatering(ctx, time.Now())
	if err != nil {
		t.Fatalf("due query after ack: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("acknowledged plant still due: %+v", due)
	}
}

func TestMarkWateredIsIdempotent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	user, _ := r.UpsertUser(ctx, UserProfile{ChatID: 5})
	plant, _ := r.AddPlant(ctx, user.ID, "Aloe", PlantDetails{})
	if err := r.SetWateringSchedule(ctx, plant.ID, 3); err != nil {
		t.Fatalf("set schedule: %v", err)
	}

	if err := r.MarkWatered(ctx, plant.ID); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if err := r.MarkWatered(ctx, plant.ID); err != nil {
		t.Fatalf("second mark: %v", err)
	}

	got, _ := r.GetPlant(ctx, plant.ID)
	if got.LastWateredAt == nil {
		t.Fatal("last_watered_at missing after marks")
	}
	due, err := r.ListPlantsNeedingWatering(ctx, time.Now())
	if err != nil {
		t.Fatalf("due query: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("double-acknowledged plant reported due: %+v", due)
	}

	if err := r.MarkWatered(ctx, 9999); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing plant, got %v", err)
	}
}

func TestDeletePlantCascadesAndIsIdempotent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	user, _ := r.UpsertUser(ctx, UserProfile{ChatID: 6})
	plant, _ := r.AddPlant(ctx, user.ID, "Orchid", PlantDetails{})

	// Build up care history via schedule + watering.
	if err := r.SetWateringSchedule(ctx, plant.ID, 7); err != nil {
		t.Fatalf("set schedule: %v", err)
	}
	if err := r.MarkWatered(ctx, plant.ID); err != nil {
		t.Fatalf("mark watered: %v", err)
	}
	history, err := r.ListCareHistory(ctx, plant.ID, 10)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 care events, got %d", len(history))
	}

	if err := r.DeletePlant(ctx, plant.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.GetPlant(ctx, plant.ID); err != ErrNotFound {
		t.Fatalf("plant still present after delete: %v", err)
	}
	history, err = r.ListCareHistory(ctx, plant.ID, 10)
	if err != nil {
		t.Fatalf("list history after delete: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("care history survived plant deletion: %d rows", len(history))
	}

	// Second delete on the same id does not error.
	if err := r.DeletePlant(ctx, plant.ID); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestCareHistoryRecordsActions(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	user, _ := r.UpsertUser(ctx, UserProfile{ChatID: 7})
	plant, _ := r.AddPlant(ctx, user.ID, "Cactus", PlantDetails{})
	if err := r.SetWateringSchedule(ctx, plant.ID, 14); err != nil {
		t.Fatalf("set schedule: %v", err)
	}

	history, err := r.ListCareHistory(ctx, plant.ID, 10)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 || history[0].Action != ActionScheduleSet {
		t.Fatalf("expected one schedule_set event, got %+v", history)
	}
	if history[0].Note == nil || *history[0].Note != "every 14 days" {
		t.Fatalf("unexpected note: %v", history[0].Note)
	}
}
