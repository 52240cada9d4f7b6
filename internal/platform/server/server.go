package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phuslu/log"

	"logstore/internal/platform/config"
	"logstore/internal/platform/server/handler/dbentry"
	"logstore/internal/platform/server/handler/health"
)

type Server struct {
	httpAddr string
	engine   *chi.Mux
	handler  *dbentry.DbEntryHandler
	logger   *log.Logger
}

func NewServer(cfg config.Config, handler *dbentry.DbEntryHandler, logger *log.Logger) *Server {
	srv := &Server{
		engine:   chi.NewRouter(),
		httpAddr: fmt.Sprintf("%s:%d", cfg.Host, cfg.HttpPort),
		handler:  handler,
		logger:   logger,
	}
	srv.engine.Use(middleware.Logger)
	srv.engine.Use(middleware.Recoverer)
	srv.registerRoutes()
	return srv
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.httpAddr,
		Handler: s.engine,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", s.httpAddr).Msg("http server listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.engine.Get("/health", health.CheckHandler)
	s.engine.Get("/db/{key}", s.handler.GetEntry)
	s.engine.Put("/db/{key}", s.handler.SaveEntry)
	s.engine.Post("/db/{key}", s.handler.SaveEntry)
	s.engine.Delete("/db/{key}", s.handler.DeleteEntry)
}
