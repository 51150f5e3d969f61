package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"smilabus.dev/schedule"
	"smilabus.dev/schedule/model"
)

func (server *Server) handleRoutes(writer http.ResponseWriter, request *http.Request) {
	tt, err := server.manager.Timetable()
	if err != nil {
		writeErrorFor(writer, err)
		return
	}

	query := ParseSearchQuery(request.URL.Query())
	routes := tt.SearchRoutes(query.Term)

	writeJSON(writer, http.StatusOK, BuildRouteSummaries(routes, server.manager.Favorites()))
}

func (server *Server) handleRoute(writer http.ResponseWriter, request *http.Request) {
	tt, err := server.manager.Timetable()
	if err != nil {
		writeErrorFor(writer, err)
		return
	}

	route, err := tt.Route(chi.URLParam(request, "id"))
	if err != nil {
		writeErrorFor(writer, err)
		return
	}

	writeJSON(writer, http.StatusOK, BuildRoute(route, server.manager.Favorites()))
}

func (server *Server) handleNext(writer http.ResponseWriter, request *http.Request) {
	tt, err := server.manager.Timetable()
	if err != nil {
		writeErrorFor(writer, err)
		return
	}

	// ?at=HH:MM overrides the clock
	now := request.URL.Query().Get("at")
	if now == "" {
		now = server.clock.HHMM()
	}

	routeID := chi.URLParam(request, "id")
	departures, err := tt.NextDepartures(routeID, now)
	if err != nil {
		writeErrorFor(writer, err)
		return
	}

	writeJSON(writer, http.StatusOK, BuildNext(routeID, now, server.clock.Weekday(), departures))
}

func (server *Server) handleStops(writer http.ResponseWriter, request *http.Request) {
	tt, err := server.manager.Timetable()
	if err != nil {
		writeErrorFor(writer, err)
		return
	}

	query := ParseSearchQuery(request.URL.Query())
	writeJSON(writer, http.StatusOK, BuildStops(tt.SearchStops(query.Term), false, 0, 0))
}

func (server *Server) handleNearbyStops(writer http.ResponseWriter, request *http.Request) {
	tt, err := server.manager.Timetable()
	if err != nil {
		writeErrorFor(writer, err)
		return
	}

	query, err := ParseNearbyQuery(request.URL.Query())
	if err != nil {
		writeError(writer, http.StatusBadRequest, err)
		return
	}

	stops := tt.NearbyStops(query.Lat, query.Lon, query.Limit)
	writeJSON(writer, http.StatusOK, BuildStops(stops, true, query.Lat, query.Lon))
}

func (server *Server) handleStopRoutes(writer http.ResponseWriter, request *http.Request) {
	tt, err := server.manager.Timetable()
	if err != nil {
		writeErrorFor(writer, err)
		return
	}

	routes, err := tt.RoutesForStop(chi.URLParam(request, "id"))
	if err != nil {
		writeErrorFor(writer, err)
		return
	}

	writeJSON(writer, http.StatusOK, BuildRouteSummaries(routes, server.manager.Favorites()))
}

func (server *Server) handleFavorites(writer http.ResponseWriter, request *http.Request) {
	favorites := server.manager.Favorites()

	var provider schedule.DepartureProvider
	if tt, err := server.manager.Timetable(); err == nil {
		provider = server.departureProvider(tt)
	}

	statuses := schedule.Summarize(favorites.List(), provider)
	writeJSON(writer, http.StatusOK, BuildFavorites(statuses))
}

// Favorites the route with a snapshot of its next departure.
func (server *Server) handleAddFavorite(writer http.ResponseWriter, request *http.Request) {
	tt, err := server.manager.Timetable()
	if err != nil {
		writeErrorFor(writer, err)
		return
	}

	entry, err := tt.FavoriteFor(chi.URLParam(request, "id"), server.clock.HHMM())
	if err != nil {
		writeErrorFor(writer, err)
		return
	}

	err = server.manager.Favorites().Add(entry)
	if err != nil {
		writeErrorFor(writer, err)
		return
	}

	writeJSON(writer, http.StatusOK, FavoriteJSON{
		ID:            entry.ID,
		Number:        entry.Number,
		Name:          entry.Name,
		NextDeparture: entry.NextDeparture,
	})
}

// Doesn't check the timetable: favorites of routes no longer in the
// feed can still be removed.
func (server *Server) handleRemoveFavorite(writer http.ResponseWriter, request *http.Request) {
	err := server.manager.Favorites().Remove(chi.URLParam(request, "id"))
	if err != nil {
		writeErrorFor(writer, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

func (server *Server) handleToggleFavorite(writer http.ResponseWriter, request *http.Request) {
	id := chi.URLParam(request, "id")

	on, err := server.toggle(id)
	if err != nil {
		writeErrorFor(writer, err)
		return
	}

	writeJSON(writer, http.StatusOK, ToggleJSON{ID: id, Favorite: on})
}

// Routes no longer in the timetable can only be toggled off.
func (server *Server) toggle(id string) (bool, error) {
	favorites := server.manager.Favorites()

	entry, err := server.favoriteFor(id)
	if err != nil {
		if !favorites.IsFavorite(id) {
			return false, err
		}
		return false, favorites.Remove(id)
	}

	return favorites.Toggle(entry)
}

func (server *Server) favoriteFor(id string) (model.FavoriteEntry, error) {
	tt, err := server.manager.Timetable()
	if err != nil {
		return model.FavoriteEntry{}, err
	}
	return tt.FavoriteFor(id, server.clock.HHMM())
}

func (server *Server) handleHealth(writer http.ResponseWriter, request *http.Request) {
	health := HealthJSON{
		Status:     "ok",
		Persistent: server.manager.Favorites().Persistent(),
	}

	tt, err := server.manager.Timetable()
	if err != nil {
		health.Status = "no timetable"
		writeJSON(writer, http.StatusServiceUnavailable, health)
		return
	}

	health.Routes = len(tt.Routes())
	health.Source, _ = server.manager.Source()
	writeJSON(writer, http.StatusOK, health)
}
