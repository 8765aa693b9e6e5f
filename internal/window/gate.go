// Package window decides arrival-card submission eligibility from the
// arrival timestamp. Pure functions only: determinism here is what makes the
// pipeline testable without a clock abstraction.
package window

import (
	"fmt"
	"time"
)

// DefaultWindowHours is the usual pre-arrival window destinations allow.
const DefaultWindowHours = 72

// Evaluation is the gate's verdict for one (arrival, now) pair.
type Evaluation struct {
	// CanSubmit is true when now falls inside [arrival-window, arrival].
	CanSubmit bool

	// HoursRemaining until arrival; negative once arrival has passed.
	HoursRemaining float64

	// OpensAt is the instant the window opens (arrival - window).
	OpensAt time.Time

	// OpensIn is how long until OpensAt; zero or negative once open.
	OpensIn time.Duration

	// Display is countdown text for the UI: "D:HH:MM" to the open instant
	// while the window is still closed.
	Display string
}

// Evaluate applies the submission-window rule. windowHours <= 0 falls back to
// DefaultWindowHours.
func Evaluate(arrival, now time.Time, windowHours int) Evaluation {
	if windowHours <= 0 {
		windowHours = DefaultWindowHours
	}

	remaining := arrival.Sub(now)
	hours := remaining.Hours()
	opensAt := arrival.Add(-time.Duration(windowHours) * time.Hour)

	ev := Evaluation{
		HoursRemaining: hours,
		OpensAt:        opensAt,
		OpensIn:        opensAt.Sub(now),
		CanSubmit:      hours >= 0 && hours <= float64(windowHours),
	}

	switch {
	case ev.CanSubmit:
		ev.Display = "submission window open"
	case hours < 0:
		ev.Display = "arrival has passed"
	default:
		ev.Display = Countdown(ev.OpensIn)
	}
	return ev
}

// Countdown renders a duration as "D:HH:MM". Negative durations clamp to
// "0:00:00".
func Countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	minutes := int(d%time.Hour) / int(time.Minute)
	return fmt.Sprintf("%d:%02d:%02d", days, hours, minutes)
}
