package application

import "time"

// Clock abstracts wall time so staleness rules stay deterministic in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }
