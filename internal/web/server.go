package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AlekseyZapadovnikov/review-scheduler/conf"
	"github.com/AlekseyZapadovnikov/review-scheduler/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	Address string
	server  *http.Server

	router           *chi.Mux
	schedulerService SchedulerService
	directoryService DirectoryService
	lifecycleService LifecycleService
}

// New конструирует HTTP-сервер на базе chi и регистрирует все маршруты.
func New(cfg conf.HttpServConf, scheduler SchedulerService, directory DirectoryService, lifecycle LifecycleService) *Server {
	servAdres := cfg.GetAddress()
	mux := chi.NewMux()
	srv := &Server{
		Address:          servAdres,
		router:           mux,
		schedulerService: scheduler,
		directoryService: directory,
		lifecycleService: lifecycle,
	}
	srv.server = &http.Server{
		Addr:    servAdres,
		Handler: mux,
	}

	srv.setupRoutes()

	return srv
}

// Start запускает HTTP-сервер и блокирует поток до остановки.
func (s *Server) Start() error {
	slog.Info("server starting", "address", s.server.Addr)
	return s.server.ListenAndServe()
}

// setupRoutes настраивает middleware и HTTP-маршруты.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	// Простейший health-check.
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Маршруты каталога ревьюеров.
	s.router.Get("/reviewers/search", s.handleReviewerSearch)
	s.router.Get("/reviewers/get", s.handleReviewerGet)
	s.router.Post("/reviewers/setStatus", s.handleSetStatus)
	s.router.Post("/reviewers/resetStatus", s.handleResetStatus)

	// Маршрут планировщика.
	s.router.Get("/schedule/next", s.handleScheduleNext)
}

// Shutdown останавливает HTTP-сервер с таймаутом на корректное завершение.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// ---------- утилитарные функции ----------

// writeJSON сериализует структуру в JSON-ответ с нужным статусом.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// mapDomainError переводит доменные ошибки в HTTP-статусы и коды ответа.
func mapDomainError(err error) (status int, code, msg string) {
	if err == nil {
		return http.StatusOK, "", ""
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "VALIDATION", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrNoReviewer):
		return http.StatusConflict, "NO_REVIEWER", err.Error()
	default:
		slog.Warn("unmapped domain error", "err", err.Error())
		return http.StatusInternalServerError, "INTERNAL_ERROR", err.Error()
	}
}
