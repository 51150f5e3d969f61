package model

import "strings"

// Splits a departure time string into its "HH:MM" clock and the
// trailing day-applicability annotation (if any). The split happens
// on the first space.
func SplitDeparture(departure string) (clock string, annotation string) {
	clock, annotation, _ = strings.Cut(departure, " ")
	return clock, strings.TrimSpace(annotation)
}

// Reports whether s is a zero-padded 24 hour "HH:MM" clock.
func ValidClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s[0:2] <= "23" && s[3] <= '5'
}
