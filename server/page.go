package server

import (
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"smilabus.dev/schedule"
)

func (server *Server) handleSchedulePage(writer http.ResponseWriter, request *http.Request) {
	tt, err := server.manager.Timetable()
	if err != nil {
		http.Error(writer, err.Error(), http.StatusServiceUnavailable)
		return
	}

	query := ParseSearchQuery(request.URL.Query())
	favorites := server.manager.Favorites()
	statuses := schedule.Summarize(favorites.List(), server.departureProvider(tt))

	viewmodel, err := BuildSchedulePageVM(tt, tt.SearchRoutes(query.Term), favorites, statuses, server.clock, query.Term)
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := server.renderer.Render(writer, "layout.html", viewmodel); err != nil {
		log.Printf("server: rendering page: %v", err)
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
}

// Star button of the page. Redirects back to the page.
func (server *Server) handleToggleForm(writer http.ResponseWriter, request *http.Request) {
	_, err := server.toggle(chi.URLParam(request, "id"))
	if err != nil {
		http.Error(writer, err.Error(), statusFor(err))
		return
	}

	target := "/"
	if q := request.FormValue("q"); q != "" {
		target = "/?q=" + url.QueryEscape(q)
	}
	http.Redirect(writer, request, target, http.StatusSeeOther)
}
