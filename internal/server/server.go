// Package server serves a read-only JSON view of the task list over HTTP,
// plus a small page that renders it.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/ldi/todo/internal/app"
	"github.com/ldi/todo/internal/export"
	"github.com/ldi/todo/internal/logging"
	"github.com/ldi/todo/pkg/models"
)

//go:embed assets
var assets embed.FS

type Server struct {
	app    *app.App
	logger *log.Logger
	server *http.Server
}

func NewServer(a *app.App, logger *log.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{app: a, logger: logger}
}

// Handler returns the routes without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("GET /api/tasks", s.handleTasks)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleTask)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/export.csv", s.handleExportCSV)

	// Static files
	static, _ := fs.Sub(assets, "assets")
	mux.Handle("GET /", http.FileServer(http.FS(static)))

	return mux
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("serving web view", "addr", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	status, err := models.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		s.respond(w, nil, err)
		return
	}
	s.respond(w, s.app.ComputeView(r.URL.Query().Get("q"), status), nil)
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	id, err := s.app.ResolveID(r.PathValue("id"))
	if err != nil {
		s.respond(w, nil, err)
		return
	}
	t, err := s.app.Task(id)
	s.respond(w, t, err)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.app.Counts(), nil)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tasks.csv"`)
	if err := export.WriteCSV(w, s.app.Tasks()); err != nil {
		s.logger.Error("csv export failed", "err", err)
	}
}

func (s *Server) respond(w http.ResponseWriter, data any, err error) {
	if err != nil {
		code := statusCode(err)
		if code == http.StatusInternalServerError {
			s.logger.Error("request failed", "err", err)
		}
		http.Error(w, err.Error(), code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidData):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
