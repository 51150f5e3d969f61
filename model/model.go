package model

// Holds all external facing types and constants.

// A bus route as published by the city. Directions are kept in the
// order they appear in the source tables.
type Route struct {
	ID            string
	Number        string
	Name          string
	NameUk        string
	Description   string
	OperatingDays string
	MapURL        string
	TrackingURL   string
	FareInfo      string
	Directions    []*Direction
	StopIDs       []string
}

// Looks up a direction by key. Returns nil if the route has no such
// direction.
func (r *Route) Direction(key string) *Direction {
	for _, d := range r.Directions {
		if d.Key == key {
			return d
		}
	}
	return nil
}

// One travel direction of a route, with its own time table.
//
// Times are departure time strings on the form "HH:MM", optionally
// followed by a space and a day-applicability annotation, e.g.
// "16:45 (пн-пт)".
type Direction struct {
	Key    string
	Name   string
	NameUk string
	Times  []string
	Notes  []string
}

type Stop struct {
	ID         string
	Name       string
	NameUk     string
	Lat        float64
	Lon        float64
	Facilities []string
}

// The complete static schedule for the city.
type Feed struct {
	Routes []*Route
	Stops  []*Stop
}

// A user-pinned route. NextDeparture is a snapshot taken when the
// route was favorited and is never updated.
type FavoriteEntry struct {
	ID            string `json:"id"`
	Number        string `json:"number"`
	Name          string `json:"name"`
	NextDeparture string `json:"nextDeparture,omitempty"`
}

// Next departure for a single direction of a route.
type DirectionDeparture struct {
	RouteID      string
	DirectionKey string
	Direction    string
	Departure    string
	Annotation   string
	Wrapped      bool
}
