package schedule

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"smilabus.dev/schedule/model"
)

// Read-only view over a loaded feed. Safe for concurrent use: nothing
// is mutated after NewTimetable returns.
type Timetable struct {
	feed *model.Feed

	routeByID    map[string]*model.Route
	stopByID     map[string]*model.Stop
	routesByStop map[string][]*model.Route
}

func NewTimetable(feed *model.Feed) (*Timetable, error) {
	if feed == nil {
		return nil, fmt.Errorf("nil feed: %w", ErrInvalidInput)
	}

	t := &Timetable{
		feed:         feed,
		routeByID:    map[string]*model.Route{},
		stopByID:     map[string]*model.Stop{},
		routesByStop: map[string][]*model.Route{},
	}

	for _, stop := range feed.Stops {
		t.stopByID[stop.ID] = stop
	}

	for _, route := range feed.Routes {
		if _, found := t.routeByID[route.ID]; found {
			return nil, fmt.Errorf("repeated route %q: %w", route.ID, ErrInvalidInput)
		}
		t.routeByID[route.ID] = route

		for _, stopID := range route.StopIDs {
			if _, found := t.stopByID[stopID]; !found {
				return nil, fmt.Errorf("route %q references unknown stop %q: %w", route.ID, stopID, ErrInvalidInput)
			}
			t.routesByStop[stopID] = append(t.routesByStop[stopID], route)
		}
	}

	return t, nil
}

// All routes in feed order.
func (t *Timetable) Routes() []*model.Route {
	return append([]*model.Route(nil), t.feed.Routes...)
}

func (t *Timetable) Route(id string) (*model.Route, error) {
	route, found := t.routeByID[id]
	if !found {
		return nil, fmt.Errorf("%q: %w", id, ErrRouteNotFound)
	}
	return route, nil
}

// Routes whose number, name or localized name contains term, ignoring
// case. A blank term matches everything.
func (t *Timetable) SearchRoutes(term string) []*model.Route {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return t.Routes()
	}

	routes := []*model.Route{}
	for _, route := range t.feed.Routes {
		if strings.Contains(strings.ToLower(route.Number), term) ||
			strings.Contains(strings.ToLower(route.Name), term) ||
			strings.Contains(strings.ToLower(route.NameUk), term) {
			routes = append(routes, route)
		}
	}
	return routes
}

// Routes whose number contains number. This is what a click on a
// favorite resolves to.
func (t *Timetable) FindByNumber(number string) []*model.Route {
	number = strings.TrimSpace(number)
	if number == "" {
		return t.Routes()
	}

	routes := []*model.Route{}
	for _, route := range t.feed.Routes {
		if strings.Contains(route.Number, number) {
			routes = append(routes, route)
		}
	}
	return routes
}

// All stops in feed order.
func (t *Timetable) Stops() []*model.Stop {
	return append([]*model.Stop(nil), t.feed.Stops...)
}

func (t *Timetable) Stop(id string) (*model.Stop, error) {
	stop, found := t.stopByID[id]
	if !found {
		return nil, fmt.Errorf("%q: %w", id, ErrStopNotFound)
	}
	return stop, nil
}

// Stops whose name or localized name contains term, ignoring case.
func (t *Timetable) SearchStops(term string) []*model.Stop {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return t.Stops()
	}

	stops := []*model.Stop{}
	for _, stop := range t.feed.Stops {
		if strings.Contains(strings.ToLower(stop.Name), term) ||
			strings.Contains(strings.ToLower(stop.NameUk), term) {
			stops = append(stops, stop)
		}
	}
	return stops
}

// Returns stops ordered by distance from lat,lon.
//
// If limit is >0, at most limit stops are returned.
func (t *Timetable) NearbyStops(lat float64, lon float64, limit int) []*model.Stop {
	stops := t.Stops()

	distance := make(map[string]float64, len(stops))
	for _, stop := range stops {
		distance[stop.ID] = HaversineDistance(lat, lon, stop.Lat, stop.Lon)
	}

	sort.SliceStable(stops, func(i, j int) bool {
		return distance[stops[i].ID] < distance[stops[j].ID]
	})

	if limit > 0 && len(stops) > limit {
		stops = stops[:limit]
	}
	return stops
}

// Routes serving a stop, in feed order.
func (t *Timetable) RoutesForStop(stopID string) ([]*model.Route, error) {
	if _, found := t.stopByID[stopID]; !found {
		return nil, fmt.Errorf("%q: %w", stopID, ErrStopNotFound)
	}
	return append([]*model.Route(nil), t.routesByStop[stopID]...), nil
}

// Next departure for every direction of a route, in direction order.
func (t *Timetable) NextDepartures(routeID string, now string) ([]model.DirectionDeparture, error) {
	route, err := t.Route(routeID)
	if err != nil {
		return nil, err
	}

	departures := []model.DirectionDeparture{}
	for _, direction := range route.Directions {
		departure, wrapped, err := nextDeparture(direction.Times, now)
		if err != nil {
			return nil, fmt.Errorf("route %q direction %q: %w", route.ID, direction.Key, err)
		}
		clock, annotation := model.SplitDeparture(departure)
		departures = append(departures, model.DirectionDeparture{
			RouteID:      route.ID,
			DirectionKey: direction.Key,
			Direction:    direction.NameUk,
			Departure:    clock,
			Annotation:   annotation,
			Wrapped:      wrapped,
		})
	}

	return departures, nil
}

// Builds the favorite entry for a route, with a snapshot of the next
// departure in its first direction.
func (t *Timetable) FavoriteFor(routeID string, now string) (model.FavoriteEntry, error) {
	route, err := t.Route(routeID)
	if err != nil {
		return model.FavoriteEntry{}, err
	}

	entry := model.FavoriteEntry{
		ID:     route.ID,
		Number: route.Number,
		Name:   route.NameUk,
	}

	if len(route.Directions) > 0 && len(route.Directions[0].Times) > 0 {
		entry.NextDeparture, err = NextDeparture(route.Directions[0].Times, now)
		if err != nil {
			return model.FavoriteEntry{}, fmt.Errorf("route %q: %w", route.ID, err)
		}
	}

	return entry, nil
}

// Great-circle distance in kilometers.
func HaversineDistance(aLat, aLon, bLat, bLon float64) float64 {
	const earthRadiusKm = 6371

	aLatRad := aLat * math.Pi / 180
	aLonRad := aLon * math.Pi / 180
	bLatRad := bLat * math.Pi / 180
	bLonRad := bLon * math.Pi / 180
	deltaLat := aLatRad - bLatRad
	deltaLon := aLonRad - bLonRad

	a := math.Cos(aLatRad)*math.Cos(bLatRad)*math.Pow(math.Sin(deltaLon/2), 2) + math.Pow(math.Sin(deltaLat/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return c * earthRadiusKm
}
