package clock

import "time"

// Clock supplies the instants used to time individual exchange legs.
// Instants must come from a monotonic source; wall-clock adjustments
// between two Now calls would corrupt every derived figure.
type Clock interface {
	Now() time.Time
}

// System reads the runtime monotonic clock. Go stamps every time.Now
// with a monotonic reading, so Sub between two System instants is
// immune to wall-clock steps.
type System struct{}

func (System) Now() time.Time { return time.Now() }
