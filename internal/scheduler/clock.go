package scheduler

import (
	"fmt"
	"time"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// MaxScheduleAhead is how far in the future a post may be scheduled.
const MaxScheduleAhead = 365 * 24 * time.Hour

// ValidateScheduleTime rejects times not strictly after now, or more than a year out.
func ValidateScheduleTime(now, t time.Time) error {
	if t.IsZero() || !t.After(now) {
		return fmt.Errorf("%w: %s is not in the future", ErrInvalidScheduleTime, t.Format(time.RFC3339))
	}
	if t.After(now.Add(MaxScheduleAhead)) {
		return fmt.Errorf("%w: %s is more than one year ahead", ErrInvalidScheduleTime, t.Format(time.RFC3339))
	}
	return nil
}
