package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"smilabus.dev/schedule"
	"smilabus.dev/schedule/metrics"
)

type Config struct {
	Addr    string
	Manager *schedule.Manager
	Clock   *schedule.Clock

	// Supplies upcoming departures for the favorites panel. Defaults
	// to the loaded timetable.
	Provider schedule.DepartureProvider

	// Optional. Enables /metrics and request counting.
	Metrics *metrics.Collector
}

type Server struct {
	manager  *schedule.Manager
	clock    *schedule.Clock
	provider schedule.DepartureProvider
	renderer *Renderer
	router   chi.Router
	server   *http.Server
}

func New(cfg Config) (*Server, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock, err = schedule.NewClock("")
		if err != nil {
			return nil, err
		}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware)
	}

	server := &Server{
		manager:  cfg.Manager,
		clock:    clock,
		provider: cfg.Provider,
		renderer: renderer,
		router:   router,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	router.Get("/", server.handleSchedulePage)
	router.Post("/favorites/{id}/toggle", server.handleToggleForm)

	router.Route("/api", func(r chi.Router) {
		r.Get("/routes", server.handleRoutes)
		r.Get("/routes/{id}", server.handleRoute)
		r.Get("/routes/{id}/next", server.handleNext)

		r.Get("/stops", server.handleStops)
		r.Get("/stops/nearby", server.handleNearbyStops)
		r.Get("/stops/{id}/routes", server.handleStopRoutes)

		r.Get("/favorites", server.handleFavorites)
		r.Put("/favorites/{id}", server.handleAddFavorite)
		r.Delete("/favorites/{id}", server.handleRemoveFavorite)
		r.Post("/favorites/{id}/toggle", server.handleToggleFavorite)
	})

	router.Get("/healthz", server.handleHealth)
	if cfg.Metrics != nil {
		router.Handle("/metrics", cfg.Metrics.Handler())
	}

	return server, nil
}

func (server *Server) Handler() http.Handler {
	return server.router
}

// Serves until ctx is done, then shuts down gracefully.
func (server *Server) Serve(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		err := server.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errs <- err
		}
		close(errs)
	}()

	log.Printf("listening on %s", server.server.Addr)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down.")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.server.Shutdown(shutdownCtx)
}

// Provider used for the favorites panel.
func (server *Server) departureProvider(tt *schedule.Timetable) schedule.DepartureProvider {
	if server.provider != nil {
		return server.provider
	}
	return &schedule.TimetableProvider{Timetable: tt, Clock: server.clock}
}
