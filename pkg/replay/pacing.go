package replay

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Pacing selects how entries are spaced during replay.
type Pacing string

const (
	// PacingImmediate delivers entries back to back.
	PacingImmediate Pacing = "immediate"
	// PacingRecorded waits the recorded gap between entries, divided by
	// the speed factor.
	PacingRecorded Pacing = "recorded"
)

// ParsePacing validates a pacing name.
func ParsePacing(s string) (Pacing, error) {
	switch p := Pacing(strings.ToLower(strings.TrimSpace(s))); p {
	case PacingImmediate, PacingRecorded:
		return p, nil
	case "":
		return PacingImmediate, nil
	}
	return "", fmt.Errorf("unsupported pacing %q (want %s or %s)", s, PacingImmediate, PacingRecorded)
}

// Delay returns the wait before an entry recorded at offset when the
// previous entry was recorded at prev.
func (p Pacing) Delay(prev, offset time.Duration, speed float64) time.Duration {
	if p != PacingRecorded || offset <= prev {
		return 0
	}
	if speed <= 0 {
		speed = 1
	}
	return time.Duration(float64(offset-prev) / speed)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
