package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"smilabus.dev/schedule/model"
)

type DirectionCSV struct {
	RouteID string `csv:"route_id"`
	Key     string `csv:"direction_key"`
	Name    string `csv:"direction_name"`
	NameUk  string `csv:"direction_name_uk"`
}

// Attaches directions to their routes, in file order.
func ParseDirections(data io.Reader, routes map[string]*model.Route) error {
	directionCsv := []*DirectionCSV{}
	if err := gocsv.Unmarshal(data, &directionCsv); err != nil {
		return fmt.Errorf("unmarshaling directions: %w", err)
	}

	for _, d := range directionCsv {
		route := routes[d.RouteID]
		if route == nil {
			return fmt.Errorf("unknown route_id: '%s'", d.RouteID)
		}

		if d.Key == "" {
			return fmt.Errorf("route_id '%s' has direction without direction_key", d.RouteID)
		}

		if route.Direction(d.Key) != nil {
			return fmt.Errorf("repeated direction_key '%s' for route_id '%s'", d.Key, d.RouteID)
		}

		if d.Name == "" && d.NameUk == "" {
			return fmt.Errorf("direction '%s' of route_id '%s' has no name", d.Key, d.RouteID)
		}
		if d.NameUk == "" {
			d.NameUk = d.Name
		}

		route.Directions = append(route.Directions, &model.Direction{
			Key:    d.Key,
			Name:   d.Name,
			NameUk: d.NameUk,
			Times:  []string{},
		})
	}

	return nil
}
