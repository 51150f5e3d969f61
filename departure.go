package schedule

import (
	"fmt"

	"smilabus.dev/schedule/model"
)

// Returns the next departure in times after now.
//
// times is a same-day time table in chronological order. Each entry
// is "HH:MM", optionally followed by an annotation which is ignored
// for comparison but kept in the returned value. now is "HH:MM".
//
// Comparison is lexicographic, which matches chronological order
// only because both sides are zero-padded 24 hour clocks. The first
// entry strictly after now is returned. If every departure has
// passed, the first entry of times is returned instead: it's the
// earliest run of the day, not a promise that the route runs
// tomorrow.
func NextDeparture(times []string, now string) (string, error) {
	departure, _, err := nextDeparture(times, now)
	return departure, err
}

// Like NextDeparture, but also reports whether the result wrapped
// around to the first departure of the day.
func nextDeparture(times []string, now string) (string, bool, error) {
	if len(times) == 0 {
		return "", false, fmt.Errorf("empty time table: %w", ErrInvalidInput)
	}
	if !model.ValidClock(now) {
		return "", false, fmt.Errorf("current time %q: %w", now, ErrInvalidInput)
	}

	next := -1
	for i, t := range times {
		clock, _ := model.SplitDeparture(t)
		if !model.ValidClock(clock) {
			return "", false, fmt.Errorf("departure %q (entry %d): %w", t, i, ErrInvalidInput)
		}
		if next < 0 && clock > now {
			next = i
		}
	}

	if next < 0 {
		return times[0], true, nil
	}
	return times[next], false, nil
}
