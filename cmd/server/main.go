package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"mechci/internal/config"
	"mechci/internal/core"
)

const (
	statusAccepted = "accepted"
	statusRunning  = "running"
	statusPassed   = "passed"
	statusFailed   = "failed"
)

// Server holds submitted pipelines and a shared runner.
type Server struct {
	mu        sync.Mutex
	pipelines map[string]*config.Config
	status    map[string]string
	runner    *core.Runner
}

func NewServer(dataDir string) *Server {
	return &Server{
		pipelines: make(map[string]*config.Config),
		status:    make(map[string]string),
		runner:    core.NewRunner(dataDir),
	}
}

// POST /pipelines — submit a pipeline definition as YAML. The config is
// parsed and linted on intake; a rejected config never gets an id.
func (s *Server) handleSubmitPipeline(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	cfg, err := config.Parse(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.pipelines[id] = cfg
	s.status[id] = statusAccepted
	s.mu.Unlock()

	writeJSON(w, map[string]string{"id": id, "status": statusAccepted})
}

// GET /pipelines/{id} — current status.
func (s *Server) handlePipelineStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	status, ok := s.status[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "pipeline not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"id": id, "status": status})
}

// POST /pipelines/{id}/run?workflow=name — execute a workflow of a
// submitted pipeline. Runs in the background; poll the status endpoint.
func (s *Server) handleRunPipeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	workflow := r.URL.Query().Get("workflow")

	s.mu.Lock()
	cfg, ok := s.pipelines[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "pipeline not found", http.StatusNotFound)
		return
	}

	if workflow == "" {
		if len(cfg.Workflows) != 1 {
			http.Error(w, "workflow query parameter required", http.StatusBadRequest)
			return
		}
		for name := range cfg.Workflows {
			workflow = name
		}
	}
	if _, ok := cfg.Workflows[workflow]; !ok {
		http.Error(w, fmt.Sprintf("workflow %q not defined", workflow), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.status[id] = statusRunning
	s.mu.Unlock()

	go func() {
		err := s.runner.RunWorkflow(context.Background(), cfg, workflow)
		s.mu.Lock()
		if err != nil {
			log.Printf("pipeline %s failed: %v", id, err)
			s.status[id] = statusFailed
		} else {
			s.status[id] = statusPassed
		}
		s.mu.Unlock()
	}()

	writeJSON(w, map[string]string{"id": id, "workflow": workflow, "status": statusRunning})
}

// GET /runs — recent run history.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runner.Store == nil {
		http.Error(w, "run history unavailable", http.StatusServiceUnavailable)
		return
	}
	runs, err := s.runner.Store.ListRuns(50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// GET /ledger/verify — verify the audit chain.
func (s *Server) handleVerifyLedger(w http.ResponseWriter, r *http.Request) {
	if s.runner.Ledger == nil {
		http.Error(w, "ledger unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := s.runner.Ledger.VerifyChain(); err != nil {
		http.Error(w, "ledger verification failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.runner.Ledger.VerifySignatures(); err != nil {
		http.Error(w, "signature verification failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"ledger": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	dataDir := os.Getenv("MECHCI_DATA_DIR")
	if dataDir == "" {
		dataDir = ".mechci"
	}

	s := NewServer(dataDir)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/pipelines", s.handleSubmitPipeline)
	r.Get("/pipelines/{id}", s.handlePipelineStatus)
	r.Post("/pipelines/{id}/run", s.handleRunPipeline)
	r.Get("/runs", s.handleListRuns)
	r.Get("/ledger/verify", s.handleVerifyLedger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("mechci server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
