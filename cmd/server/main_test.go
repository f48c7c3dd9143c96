package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

const testPipeline = `
version: 2
jobs:
  test-ratefit:
    steps:
      - run: echo ok
workflows:
  all-tests:
    jobs:
      - test-ratefit
`

func testRouter(t *testing.T) (*Server, *chi.Mux) {
	t.Helper()
	s := NewServer(t.TempDir())
	if s.runner.Store != nil {
		t.Cleanup(func() { s.runner.Store.Close() })
	}

	r := chi.NewRouter()
	r.Post("/pipelines", s.handleSubmitPipeline)
	r.Get("/pipelines/{id}", s.handlePipelineStatus)
	r.Post("/pipelines/{id}/run", s.handleRunPipeline)
	r.Get("/ledger/verify", s.handleVerifyLedger)
	return s, r
}

func TestSubmitAndStatus(t *testing.T) {
	_, r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pipelines", strings.NewReader(testPipeline)))
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: got %d, body %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["id"] == "" || resp["status"] != statusAccepted {
		t.Fatalf("unexpected response: %v", resp)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pipelines/"+resp["id"], nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestSubmitRejectsInvalidConfig(t *testing.T) {
	_, r := testRouter(t)

	// References a job that is not defined.
	bad := strings.Replace(testPipeline, "- test-ratefit", "- missing-job", 1)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pipelines", strings.NewReader(bad)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid config: got %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestStatusUnknownPipeline(t *testing.T) {
	_, r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pipelines/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown pipeline: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRunUnknownWorkflow(t *testing.T) {
	_, r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pipelines", strings.NewReader(testPipeline)))
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pipelines/"+resp["id"]+"/run?workflow=ghost", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown workflow: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestVerifyEmptyLedger(t *testing.T) {
	_, r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ledger/verify", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("empty ledger should verify: got %d, body %s", rec.Code, rec.Body.String())
	}
}
