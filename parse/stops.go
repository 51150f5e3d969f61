package parse

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"smilabus.dev/schedule/model"
)

type StopCSV struct {
	ID         string  `csv:"stop_id"`
	Name       string  `csv:"stop_name"`
	NameUk     string  `csv:"stop_name_uk"`
	Lat        float64 `csv:"stop_lat"`
	Lon        float64 `csv:"stop_lon"`
	Facilities string  `csv:"facilities"`
}

type RouteStopCSV struct {
	RouteID      string `csv:"route_id"`
	StopID       string `csv:"stop_id"`
	StopSequence uint32 `csv:"stop_sequence"`
}

func ParseStops(data io.Reader) ([]*model.Stop, map[string]bool, error) {
	stopCsv := []*StopCSV{}
	if err := gocsv.Unmarshal(data, &stopCsv); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling stops csv: %w", err)
	}

	stopIDs := map[string]bool{}
	stops := []*model.Stop{}
	for _, st := range stopCsv {
		if st.ID == "" {
			return nil, nil, fmt.Errorf("empty stop_id")
		}

		if stopIDs[st.ID] {
			return nil, nil, fmt.Errorf("repeated stop_id '%s'", st.ID)
		}
		stopIDs[st.ID] = true

		if st.Name == "" && st.NameUk == "" {
			return nil, nil, fmt.Errorf("empty stop_name for stop_id '%s'", st.ID)
		}
		if st.NameUk == "" {
			st.NameUk = st.Name
		}

		if st.Lat == 0 || st.Lon == 0 {
			return nil, nil, fmt.Errorf("empty stop_lat or stop_lon for stop_id '%s'", st.ID)
		}

		facilities := []string{}
		for _, f := range strings.Split(st.Facilities, ";") {
			if f = strings.TrimSpace(f); f != "" {
				facilities = append(facilities, f)
			}
		}

		stops = append(stops, &model.Stop{
			ID:         st.ID,
			Name:       st.Name,
			NameUk:     st.NameUk,
			Lat:        st.Lat,
			Lon:        st.Lon,
			Facilities: facilities,
		})
	}

	return stops, stopIDs, nil
}

// Sets the ordered stop list of each route.
func ParseRouteStops(data io.Reader, routes map[string]*model.Route, stops map[string]bool) error {
	routeStopCsv := []*RouteStopCSV{}
	if err := gocsv.Unmarshal(data, &routeStopCsv); err != nil {
		return fmt.Errorf("unmarshaling route stops csv: %w", err)
	}

	byRoute := map[string][]*RouteStopCSV{}
	for i, rs := range routeStopCsv {
		if routes[rs.RouteID] == nil {
			return fmt.Errorf("unknown route_id: '%s' (row %d)", rs.RouteID, i+1)
		}
		if !stops[rs.StopID] {
			return fmt.Errorf("unknown stop_id: '%s' (row %d)", rs.StopID, i+1)
		}
		byRoute[rs.RouteID] = append(byRoute[rs.RouteID], rs)
	}

	for routeID, rss := range byRoute {
		sort.SliceStable(rss, func(i, j int) bool {
			return rss[i].StopSequence < rss[j].StopSequence
		})

		stopIDs := make([]string, 0, len(rss))
		for i, rs := range rss {
			if i > 0 && rss[i-1].StopSequence == rs.StopSequence {
				return fmt.Errorf("duplicate stop_sequence %d for route_id '%s'", rs.StopSequence, routeID)
			}
			stopIDs = append(stopIDs, rs.StopID)
		}
		routes[routeID].StopIDs = stopIDs
	}

	return nil
}
