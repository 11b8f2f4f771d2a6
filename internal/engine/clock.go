package engine

import (
	"time"

	"github.com/campuskit/notifier/internal/domain/candidate"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock used outside tests.
func SystemClock() candidate.Clock { return systemClock{} }
