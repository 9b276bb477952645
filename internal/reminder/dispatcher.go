// Package reminder runs the recurring watering-reminder scan and processes
// watering acknowledgements.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"plantbot/internal/metrics"
	"plantbot/internal/repo"
)

// Sender pushes a watering reminder, carrying an acknowledgement action
// keyed by the plant id, to the owner's chat.
type Sender interface {
	SendReminder(ctx context.Context, chatID, plantID int64, plantName string) error
}

// Dispatcher periodically scans the store for due plants and sends at most
// one reminder per due plant per scan. A plant that stays unacknowledged is
// reminded again on every following scan; there is deliberately no cooldown.
type Dispatcher struct {
	repository repo.Repository
	sender     Sender
	logger     *slog.Logger
	metrics    *metrics.Metrics
	interval   time.Duration
	scheduler  gocron.Scheduler
}

// New creates a dispatcher scanning every interval.
func New(repository repo.Repository, sender Sender, metricRegistry *metrics.Metrics, logger *slog.Logger, interval time.Duration) *Dispatcher {
	return &Dispatcher{
		repository: repository,
		sender:     sender,
		logger:     logger.With("component", "reminder"),
		metrics:    metricRegistry,
		interval:   interval,
	}
}

// Start schedules the recurring scan. Singleton mode keeps scans from
// overlapping: a tick that fires while a scan is still running is skipped.
func (d *Dispatcher) Start(ctx context.Context) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(d.interval),
		gocron.NewTask(func() {
			if _, err := d.Scan(ctx); err != nil {
				d.logger.Error("reminder scan failed", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule scan job: %w", err)
	}

	s.Start()
	d.scheduler = s
	d.logger.Info("reminder dispatcher started", "interval", d.interval)
	return nil
}

// Stop shuts the scan scheduler down. A scan torn down mid-flight is safe:
// due state is recomputed from scratch on the next scan.
func (d *Dispatcher) Stop() error {
	if d.scheduler == nil {
		return nil
	}
	return d.scheduler.Shutdown()
}

// Scan runs one due-check-and-notify cycle and returns how many reminders
// were sent. Per-plant delivery failures are logged and skipped; they never
// abort the scan.
func (d *Dispatcher) Scan(ctx context.Context) (int, error) {
	started := time.Now()
	d.metrics.ReminderScans.Inc()
	defer func() {
		d.metrics.ScanDuration.Observe(time.Since(started).Seconds())
	}()

	due, err := d.repository.ListPlantsNeedingWatering(ctx, time.Now().UTC())
	if err != nil {
		d.metrics.Errors.WithLabelValues("reminder").Inc()
		return 0, fmt.Errorf("list due plants: %w", err)
	}

	sent := 0
	for _, plant := range due {
		if err := d.sender.SendReminder(ctx, plant.OwnerChatID, plant.PlantID, plant.Name); err != nil {
			d.metrics.Errors.WithLabelValues("reminder").Inc()
			d.logger.Error("failed sending reminder",
				"error", err, "plant_id", plant.PlantID, "chat_id", plant.OwnerChatID)
			continue
		}
		sent++
		d.metrics.RemindersSent.Inc()
	}

	if len(due) > 0 {
		d.logger.Info("reminder scan complete", "due", len(due), "sent", sent)
	}
	return sent, nil
}

// Acknowledge processes a "watered" confirmation for the plant: it advances
// last_watered_at, which drops the plant out of the due set from the next
// scan on. Acknowledging a deleted plant or double-tapping is not an error.
func (d *Dispatcher) Acknowledge(ctx context.Context, plantID int64) error {
	err := d.repository.MarkWatered(ctx, plantID)
	if errors.Is(err, repo.ErrNotFound) {
		d.logger.Debug("acknowledgement for missing plant ignored", "plant_id", plantID)
		return nil
	}
	return err
}
