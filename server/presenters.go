package server

import (
	"smilabus.dev/schedule"
	"smilabus.dev/schedule/model"
)

func BuildRouteSummaries(routes []*model.Route, favorites *schedule.Favorites) []RouteSummaryJSON {
	out := make([]RouteSummaryJSON, 0, len(routes))
	for _, r := range routes {
		out = append(out, buildRouteSummary(r, favorites))
	}
	return out
}

func buildRouteSummary(r *model.Route, favorites *schedule.Favorites) RouteSummaryJSON {
	return RouteSummaryJSON{
		ID:       r.ID,
		Number:   r.Number,
		Name:     r.Name,
		NameUk:   r.NameUk,
		Favorite: favorites.IsFavorite(r.ID),
	}
}

func BuildRoute(r *model.Route, favorites *schedule.Favorites) RouteJSON {
	directions := make([]DirectionJSON, 0, len(r.Directions))
	for _, d := range r.Directions {
		directions = append(directions, DirectionJSON{
			Key:    d.Key,
			Name:   d.Name,
			NameUk: d.NameUk,
			Times:  d.Times,
			Notes:  d.Notes,
		})
	}

	stopIDs := r.StopIDs
	if stopIDs == nil {
		stopIDs = []string{}
	}

	return RouteJSON{
		RouteSummaryJSON: buildRouteSummary(r, favorites),
		Description:      r.Description,
		OperatingDays:    r.OperatingDays,
		MapURL:           r.MapURL,
		TrackingURL:      r.TrackingURL,
		FareInfo:         r.FareInfo,
		Directions:       directions,
		StopIDs:          stopIDs,
	}
}

func BuildNext(routeID string, now string, weekday string, departures []model.DirectionDeparture) NextJSON {
	out := make([]DepartureJSON, 0, len(departures))
	for _, d := range departures {
		out = append(out, DepartureJSON{
			DirectionKey: d.DirectionKey,
			Direction:    d.Direction,
			Departure:    d.Departure,
			Annotation:   d.Annotation,
			Wrapped:      d.Wrapped,
		})
	}
	return NextJSON{
		Route:      routeID,
		Now:        now,
		Weekday:    weekday,
		Departures: out,
	}
}

// Stops, with distances from lat,lon when withDistance is set.
func BuildStops(stops []*model.Stop, withDistance bool, lat float64, lon float64) []StopJSON {
	out := make([]StopJSON, 0, len(stops))
	for _, s := range stops {
		stop := StopJSON{
			ID:         s.ID,
			Name:       s.Name,
			NameUk:     s.NameUk,
			Lat:        s.Lat,
			Lon:        s.Lon,
			Facilities: s.Facilities,
		}
		if stop.Facilities == nil {
			stop.Facilities = []string{}
		}
		if withDistance {
			d := schedule.HaversineDistance(lat, lon, s.Lat, s.Lon)
			stop.DistanceKm = &d
		}
		out = append(out, stop)
	}
	return out
}

func BuildFavorites(statuses []schedule.FavoriteStatus) []FavoriteJSON {
	out := make([]FavoriteJSON, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, FavoriteJSON{
			ID:            s.ID,
			Number:        s.Number,
			Name:          s.Name,
			NextDeparture: s.NextDeparture,
			Upcoming:      s.Upcoming,
		})
	}
	return out
}

func BuildSchedulePageVM(
	tt *schedule.Timetable,
	routes []*model.Route,
	favorites *schedule.Favorites,
	statuses []schedule.FavoriteStatus,
	clock *schedule.Clock,
	query string,
) (SchedulePageVM, error) {

	now := clock.HHMM()

	vm := SchedulePageVM{
		Now:        now,
		Weekday:    clock.Weekday(),
		Query:      query,
		Persistent: favorites.Persistent(),
		Favorites:  make([]FavoriteVM, 0, len(statuses)),
		Routes:     make([]RouteCardVM, 0, len(routes)),
	}

	for _, s := range statuses {
		vm.Favorites = append(vm.Favorites, FavoriteVM{
			ID:       s.ID,
			Number:   s.Number,
			Name:     s.Name,
			Upcoming: s.Upcoming,
		})
	}

	for _, r := range routes {
		departures, err := tt.NextDepartures(r.ID, now)
		if err != nil {
			return SchedulePageVM{}, err
		}

		card := RouteCardVM{
			ID:            r.ID,
			Number:        r.Number,
			Name:          r.NameUk,
			Description:   r.Description,
			OperatingDays: r.OperatingDays,
			FareInfo:      r.FareInfo,
			MapURL:        r.MapURL,
			TrackingURL:   r.TrackingURL,
			Favorite:      favorites.IsFavorite(r.ID),
		}
		for i, d := range departures {
			card.Directions = append(card.Directions, DirectionVM{
				Name:       d.Direction,
				Next:       d.Departure,
				Annotation: d.Annotation,
				Wrapped:    d.Wrapped,
				Times:      r.Directions[i].Times,
				Notes:      r.Directions[i].Notes,
			})
		}
		vm.Routes = append(vm.Routes, card)
	}

	return vm, nil
}
