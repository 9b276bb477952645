package convo

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"plantbot/internal/repo"
	"plantbot/migrations"
)

func newTestEngine(t *testing.T) (*Engine, repo.Repository) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r, err := repo.NewSQLite(ctx, filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(r.Close)
	if err := r.RunMigrations(ctx, migrations.Files); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return New(r, logger), r
}

func addPlantFor(t *testing.T, r repo.Repository, chatID int64, name string) *repo.Plant {
	t.Helper()
	ctx := context.Background()
	user, err := r.UpsertUser(ctx, repo.UserProfile{ChatID: chatID})
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	plant, err := r.AddPlant(ctx, user.ID, name, repo.PlantDetails{})
	if err != nil {
		t.Fatalf("add plant: %v", err)
	}
	return plant
}

func TestAddPlantFlow(t *testing.T) {
	e, r := newTestEngine(t)
	ctx := context.Background()
	profile := repo.UserProfile{ChatID: 10}

	reply := e.StartAddPlant(profile.ChatID)
	if reply.Text == "" {
		t.Fatal("expected a prompt for the plant name")
	}

	reply, handled, err := e.HandleText(ctx, profile, "Ficus")
	if err != nil {
		t.Fatalf("add plant step: %v", err)
	}
	if !handled {
		t.Fatal("name input not handled by the add flow")
	}
	if !strings.Contains(reply.Text, "Ficus") {
		t.Fatalf("confirmation does not name the plant: %q", reply.Text)
	}

	user, _ := r.UpsertUser(ctx, profile)
	plants, err := r.ListPlants(ctx, user.ID)
	if err != nil {
		t.Fatalf("list plants: %v", err)
	}
	if len(plants) != 1 || plants[0].Name != "Ficus" {
		t.Fatalf("plant not persisted: %+v", plants)
	}

	// Flow ended: the session is cleared.
	if state, _ := e.StateOf(profile.ChatID); state != StateIdle {
		t.Fatalf("session not cleared after add, state %v", state)
	}
}

func TestPresetCommit(t *testing.T) {
	e, r := newTestEngine(t)
	ctx := context.Background()
	plant := addPlantFor(t, r, 20, "Monstera")

	reply, err := e.StartIntervalConfig(ctx, 20, plant.ID)
	if err != nil {
		t.Fatalf("start config: %v", err)
	}
	if len(reply.Keyboard) == 0 {
		t.Fatal("expected the interval keyboard")
	}

	reply, err = e.CommitInterval(ctx, 20, 7)
	if err != nil {
		t.Fatalf("commit preset: %v", err)
	}
	if !strings.Contains(reply.Text, "Monstera") || !strings.Contains(reply.Text, "7") {
		t.Fatalf("confirmation missing plant name or interval: %q", reply.Text)
	}

	got, err := r.GetPlant(ctx, plant.ID)
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if got.WateringEveryDays == nil || *got.WateringEveryDays != 7 {
		t.Fatalf("interval not committed: %+v", got.WateringEveryDays)
	}
	if got.LastWateredAt == nil || time.Since(*got.LastWateredAt) > time.Minute {
		t.Fatalf("schedule not armed at commit time: %+v", got.LastWateredAt)
	}

	if state, _ := e.StateOf(20); state != StateIdle {
		t.Fatalf("session not cleared after commit, state %v", state)
	}
}

func TestCustomIntervalValidationKeepsSession(t *testing.T) {
	e, r := newTestEngine(t)
	ctx := context.Background()
	plant := addPlantFor(t, r, 30, "Cactus")
	profile := repo.UserProfile{ChatID: 30}

	if _, err := e.StartIntervalConfig(ctx, 30, plant.ID); err != nil {
		t.Fatalf("start config: %v", err)
	}

	for _, bad := range []string{"abc", "45", "0"} {
		reply, handled, err := e.HandleText(ctx, profile, bad)
		if err != nil {
			t.Fatalf("input %q: %v", bad, err)
		}
		if !handled {
			t.Fatalf("input %q fell out of the interval flow", bad)
		}
		if !strings.HasPrefix(reply.Text, "❌") {
			t.Fatalf("input %q: expected a validation error, got %q", bad, reply.Text)
		}

		// No store mutation, plant still bound for a retry.
		got, _ := r.GetPlant(ctx, plant.ID)
		if got.WateringEveryDays != nil {
			t.Fatalf("input %q mutated the store: %+v", bad, got.WateringEveryDays)
		}
		state, bound := e.StateOf(30)
		if state != StateAwaitingInterval || bound != plant.ID {
			t.Fatalf("input %q lost the session: state %v plant %d", bad, state, bound)
		}
	}

	// A valid retry commits.
	reply, handled, err := e.HandleText(ctx, profile, "5")
	if err != nil || !handled {
		t.Fatalf("valid retry: handled=%v err=%v", handled, err)
	}
	if !strings.Contains(reply.Text, "5") {
		t.Fatalf("confirmation missing interval: %q", reply.Text)
	}
	got, _ := r.GetPlant(ctx, plant.ID)
	if got.WateringEveryDays == nil || *got.WateringEveryDays != 5 {
		t.Fatalf("interval not committed on retry: %+v", got.WateringEveryDays)
	}
}

func TestStaleSessionCommitIsSilentNoop(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	// No session bound for this chat at all.
	reply, err := e.CommitInterval(ctx, 99, 7)
	if err != nil {
		t.Fatalf("stale commit errored: %v", err)
	}
	if reply.Text == "" {
		t.Fatal("stale commit should still read as success")
	}
}

func TestCommitAfterPlantDeleted(t *testing.T) {
	e, r := newTestEngine(t)
	ctx := context.Background()
	plant := addPlantFor(t, r, 40, "Orchid")

	if _, err := e.StartIntervalConfig(ctx, 40, plant.ID); err != nil {
		t.Fatalf("start config: %v", err)
	}
	if err := r.DeletePlant(ctx, plant.ID); err != nil {
		t.Fatalf("delete plant: %v", err)
	}

	reply, err := e.CommitInterval(ctx, 40, 3)
	if err != nil {
		t.Fatalf("commit after delete errored: %v", err)
	}
	if reply.Text == "" {
		t.Fatal("commit after delete should still read as success")
	}
}

func TestSessionsAreKeyedPerChat(t *testing.T) {
	e, r := newTestEngine(t)
	ctx := context.Background()
	plantA := addPlantFor(t, r, 50, "Ficus")
	plantB := addPlantFor(t, r, 60, "Aloe")

	if _, err := e.StartIntervalConfig(ctx, 50, plantA.ID); err != nil {
		t.Fatalf("start config A: %v", err)
	}
	if _, err := e.StartIntervalConfig(ctx, 60, plantB.ID); err != nil {
		t.Fatalf("start config B: %v", err)
	}

	if _, err := e.CommitInterval(ctx, 50, 3); err != nil {
		t.Fatalf("commit A: %v", err)
	}
	if _, err := e.CommitInterval(ctx, 60, 14); err != nil {
		t.Fatalf("commit B: %v", err)
	}

	gotA, _ := r.GetPlant(ctx, plantA.ID)
	gotB, _ := r.GetPlant(ctx, plantB.ID)
	if *gotA.WateringEveryDays != 3 || *gotB.WateringEveryDays != 14 {
		t.Fatalf("sessions crossed over: A=%v B=%v", *gotA.WateringEveryDays, *gotB.WateringEveryDays)
	}
}
