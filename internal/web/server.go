// Package web is the HTTP surface: a small JSON API that drives searches
// and selections, and a websocket feed that streams shaped panel events to
// the browser as each provider answers.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"whendropped/internal/aggregate"
	"whendropped/internal/config"
	"whendropped/internal/logger"
)

type Server struct {
	manager *aggregate.Manager
	hub     *Hub
	config  config.Config
	logger  *logger.Logger
}

func NewServer(manager *aggregate.Manager, hub *Hub, cfg config.Config, log *logger.Logger) *Server {
	return &Server{
		manager: manager,
		hub:     hub,
		config:  cfg,
		logger:  log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)

	r.Post("/api/search", s.handleSearch)
	r.Post("/api/select", s.handleSelect)
	r.Post("/api/date", s.handleDate)
	r.Get("/ws", s.handleWebSocket)

	r.Handle("/*", http.FileServer(http.Dir("web/static")))

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
