package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"mechci/internal/config"
	"mechci/internal/core"
)

// StepRequest asks the agent to run one pipeline step.
type StepRequest struct {
	Job              string `json:"job"`
	Name             string `json:"name"`
	Command          string `json:"command"`
	WorkingDirectory string `json:"workingDirectory"`
}

// StepResponse carries the outcome back to the caller.
type StepResponse struct {
	Job     string `json:"job"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Output  string `json:"output"`
}

func main() {
	executor := core.NewExecutor()

	r := chi.NewRouter()
	r.Post("/run", func(w http.ResponseWriter, req *http.Request) {
		var sr StepRequest
		if err := json.NewDecoder(req.Body).Decode(&sr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if sr.Command == "" {
			http.Error(w, "command is required", http.StatusBadRequest)
			return
		}

		log.Printf("agent running step %s/%s", sr.Job, sr.Name)
		step := config.Step{Name: sr.Name, Command: sr.Command}
		output, err := executor.RunStep(req.Context(), sr.WorkingDirectory, step)

		resp := StepResponse{
			Job:     sr.Job,
			Name:    sr.Name,
			Success: err == nil,
			Output:  output,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	port := os.Getenv("AGENT_PORT")
	if port == "" {
		port = "9090"
	}
	log.Printf("mechci agent running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
