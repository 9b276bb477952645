package schedule

import (
	"testing"
	"time"
)

func TestIsDueStrictBoundary(t *testing.T) {
	lastWatered := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eps := time.Second

	for _, days := range []int{1, 3, 7, 14, 30} {
		deadline := lastWatered.Add(time.Duration(days) * Day)

		if IsDue(deadline.Add(-eps), lastWatered, days) {
			t.Errorf("interval %d: due just before the deadline", days)
		}
		if IsDue(deadline, lastWatered, days) {
			t.Errorf("interval %d: due exactly at the deadline, want strictly after", days)
		}
		if !IsDue(deadline.Add(eps), lastWatered, days) {
			t.Errorf("interval %d: not due just after the deadline", days)
		}
	}
}

func TestIsDueFractionalDays(t *testing.T) {
	lastWatered := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)

	// 1.5 days elapsed on a 1-day interval: due. Whole-day truncation
	// would not change this, but 25 hours on a 1-day interval must also
	// be due, which truncation would miss.
	if !IsDue(lastWatered.Add(25*time.Hour), lastWatered, 1) {
		t.Error("25h elapsed on a 1-day interval should be due")
	}
	if IsDue(lastWatered.Add(23*time.Hour), lastWatered, 1) {
		t.Error("23h elapsed on a 1-day interval should not be due")
	}
}

func TestIsDueNonPositiveInterval(t *testing.T) {
	lastWatered := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	now := lastWatered.Add(1000 * Day)

	if IsDue(now, lastWatered, 0) {
		t.Error("zero interval should never be due")
	}
	if IsDue(now, lastWatered, -2) {
		t.Error("negative interval should never be due")
	}
}
