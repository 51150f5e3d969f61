package parse

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"smilabus.dev/schedule/model"
)

type RouteCSV struct {
	ID            string `csv:"route_id"`
	Number        string `csv:"route_number"`
	Name          string `csv:"route_name"`
	NameUk        string `csv:"route_name_uk"`
	Desc          string `csv:"route_desc"`
	OperatingDays string `csv:"operating_days"`
	MapURL        string `csv:"map_url"`
	TrackingURL   string `csv:"tracking_url"`
	FareInfo      string `csv:"fare_info"`
}

func ParseRoutes(data io.Reader) ([]*model.Route, error) {
	routeCsv := []*RouteCSV{}
	if err := gocsv.Unmarshal(data, &routeCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling routes: %w", err)
	}

	seen := map[string]bool{}
	routes := []*model.Route{}

	for _, r := range routeCsv {
		r.ID = strings.TrimSpace(r.ID)

		// ID is required
		if r.ID == "" {
			return nil, fmt.Errorf("route has no route_id")
		}

		if seen[r.ID] {
			return nil, fmt.Errorf("repeated route_id: '%s'", r.ID)
		}
		seen[r.ID] = true

		// The number is what riders know the route by
		if r.Number == "" {
			return nil, fmt.Errorf("route_id '%s' has no route_number", r.ID)
		}

		// Name or localized name is required
		if r.Name == "" && r.NameUk == "" {
			return nil, fmt.Errorf("route_id '%s' has no route_name or route_name_uk", r.ID)
		}
		if r.NameUk == "" {
			r.NameUk = r.Name
		}

		routes = append(routes, &model.Route{
			ID:            r.ID,
			Number:        r.Number,
			Name:          r.Name,
			NameUk:        r.NameUk,
			Description:   r.Desc,
			OperatingDays: r.OperatingDays,
			MapURL:        r.MapURL,
			TrackingURL:   r.TrackingURL,
			FareInfo:      r.FareInfo,
		})
	}

	return routes, nil
}
