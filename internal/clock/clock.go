package clock

import "time"

// Clock abstracts "now" so reservation and expiry logic can be tested with
// a pinned time. All times are UTC.
type Clock interface {
	Now() time.Time
}

type UTC struct{}

func (UTC) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant. Test helper.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time {
	return f.T
}
