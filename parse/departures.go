package parse

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"smilabus.dev/schedule/model"
)

type DepartureCSV struct {
	RouteID      string `csv:"route_id"`
	DirectionKey string `csv:"direction_key"`
	Departure    string `csv:"departure"`
}

type NoteCSV struct {
	RouteID      string `csv:"route_id"`
	DirectionKey string `csv:"direction_key"`
	Note         string `csv:"note"`
}

func lookupDirection(routes map[string]*model.Route, routeID string, key string) (*model.Direction, error) {
	route := routes[routeID]
	if route == nil {
		return nil, fmt.Errorf("unknown route_id: '%s'", routeID)
	}
	direction := route.Direction(key)
	if direction == nil {
		return nil, fmt.Errorf("unknown direction_key '%s' for route_id '%s'", key, routeID)
	}
	return direction, nil
}

// Validates a departure time string: "HH:MM" optionally followed by a
// space and an annotation.
func parseDeparture(s string) (string, error) {
	s = strings.TrimSpace(s)
	clock, _ := model.SplitDeparture(s)
	if !model.ValidClock(clock) {
		return "", fmt.Errorf("invalid departure '%s'", s)
	}
	return s, nil
}

// Appends departures to their directions. Rows must be in time table
// order within each direction.
func ParseDepartures(data io.Reader, routes map[string]*model.Route) error {
	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(d *DepartureCSV) error {
		i += 1

		direction, err := lookupDirection(routes, d.RouteID, d.DirectionKey)
		if err != nil {
			return errors.Wrapf(err, "row %d", i+1)
		}

		departure, err := parseDeparture(d.Departure)
		if err != nil {
			return errors.Wrapf(err, "parsing departure (row %d)", i+1)
		}

		// Lexical order must be chronological order.
		if n := len(direction.Times); n > 0 {
			prev, _ := model.SplitDeparture(direction.Times[n-1])
			clock, _ := model.SplitDeparture(departure)
			if clock < prev {
				return fmt.Errorf("departure '%s' before '%s' for route_id '%s' direction '%s' (row %d)", departure, direction.Times[n-1], d.RouteID, d.DirectionKey, i+1)
			}
		}

		direction.Times = append(direction.Times, departure)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "unmarshaling departures csv")
	}

	return nil
}

func ParseNotes(data io.Reader, routes map[string]*model.Route) error {
	noteCsv := []*NoteCSV{}
	if err := gocsv.Unmarshal(data, &noteCsv); err != nil {
		return fmt.Errorf("unmarshaling notes: %w", err)
	}

	for i, n := range noteCsv {
		direction, err := lookupDirection(routes, n.RouteID, n.DirectionKey)
		if err != nil {
			return errors.Wrapf(err, "row %d", i+1)
		}
		if strings.TrimSpace(n.Note) == "" {
			return fmt.Errorf("empty note (row %d)", i+1)
		}
		direction.Notes = append(direction.Notes, n.Note)
	}

	return nil
}
