// Package schedule holds the pure due-for-watering predicate. It is used
// inside the store's needs-watering query and is independently testable.
package schedule

import "time"

// Day is the unit watering intervals are expressed in.
const Day = 24 * time.Hour

// IsDue reports whether a plant last watered at lastWateredAt with the given
// interval is due for watering at now. The comparison runs on a continuous
// clock: strictly more than intervalDays days must have elapsed. Equality is
// not due. A non-positive interval never becomes due.
func IsDue(now, lastWateredAt time.Time, intervalDays int) bool {
	if intervalDays <= 0 {
		return false
	}
	return now.Sub(lastWateredAt) > time.Duration(intervalDays)*Day
}
