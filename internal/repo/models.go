package repo

import "time"

// User represents the users table row.
type User struct {
	ID        int64
	ChatID    int64
	Username  *string
	FirstName *string
	LastName  *string
	CreatedAt time.Time
}

// UserProfile carries data used to upsert a user. Display fields are
// last-write-wins; they are never used for scheduling.
type UserProfile struct {
	ChatID    int64
	Username  *string
	FirstName *string
	LastName  *string
}

// Plant represents a row in the plants table. A plant is schedulable only
// when both WateringEveryDays and LastWateredAt are set.
type Plant struct {
	ID                int64
	UserID            int64
	Name              string
	Type              *string
	PhotoFileID       *string
	WateringEveryDays *int
	LastWateredAt     *time.Time
	CreatedAt         time.Time
}

// Schedulable reports whether the plant has an armed watering schedule.
func (p *Plant) Schedulable() bool {
	return p.WateringEveryDays != nil && p.LastWateredAt != nil
}

// PlantDetails holds the optional fields accepted when adding a plant.
type PlantDetails struct {
	Type        *string
	PhotoFileID *string
}

// CareEvent is an append-only audit record for a plant.
type CareEvent struct {
	ID        int64
	PlantID   int64
	Action    string
	Note      *string
	CreatedAt time.Time
}

// Care history action labels.
const (
	ActionWatered     = "watered"
	ActionScheduleSet = "schedule_set"
)

// DuePlant is one row of the needs-watering query: a plant whose elapsed
// time since last watering strictly exceeds its interval, together with the
// chat id the reminder must be pushed to.
type DuePlant struct {
	PlantID       int64
	Name          string
	IntervalDays  int
	LastWateredAt time.Time
	OwnerChatID   int64
}
