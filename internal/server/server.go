package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shortreel/internal/pipeline"
	"shortreel/internal/scheduler"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	pipeline   *pipeline.Service
	scheduler  *scheduler.Scheduler
}

// Config holds server configuration
type Config struct {
	Port int
}

// New creates a new server instance. sched may be nil when the scheduler is
// not configured; its endpoints then return 404.
func New(cfg Config, svc *pipeline.Service, sched *scheduler.Scheduler) *Server {
	s := &Server{
		pipeline:  svc,
		scheduler: sched,
	}

	mux := http.NewServeMux()

	// Run lifecycle
	mux.HandleFunc("POST /runs", s.handleCreateRun)
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /runs/{id}/capabilities", s.handleCapabilities)

	// Task submission and polling
	mux.HandleFunc("POST /runs/{id}/tasks/{task_type}", s.handleSubmitTask)
	mux.HandleFunc("GET /runs/{id}/tasks", s.handleRunTasks)
	mux.HandleFunc("GET /tasks/{id}", s.handleTaskStatus)

	// Dialogue editing and per-entry image regeneration
	mux.HandleFunc("PUT /runs/{id}/dialogue", s.handleUpdateDialogue)
	mux.HandleFunc("POST /runs/{id}/images/{index}", s.handleRegenerateImage)

	// Drop / delete-youtube
	mux.HandleFunc("DELETE /runs/{id}/artifacts/{slot}", s.handleDropArtifact)
	mux.HandleFunc("POST /runs/{id}/delete-youtube", s.handleDeleteYouTube)

	// Scheduler
	mux.HandleFunc("GET /scheduler", s.handleSchedulerStatus)
	mux.HandleFunc("POST /scheduler/trigger", s.handleSchedulerTrigger)

	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the configured handler chain (tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	s.jsonResponse(w, HTTPStatus(err), map[string]string{"error": err.Error()})
}
