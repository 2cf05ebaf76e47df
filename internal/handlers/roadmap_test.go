package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/connecthub/roadmap-backend/internal/domain"
	errs "github.com/connecthub/roadmap-backend/internal/pkg/errors"
	"github.com/connecthub/roadmap-backend/internal/services"
)

type fakeJobService struct {
	jobID  string
	job    *domain.JobState
	getErr error
	inputs []services.GenerateInput
}

func (f *fakeJobService) StartGeneration(ctx context.Context, in services.GenerateInput) (string, error) {
	f.inputs = append(f.inputs, in)
	return f.jobID, nil
}

func (f *fakeJobService) GetJob(ctx context.Context, id string) (*domain.JobState, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.job, nil
}

func newRoadmapRouter(jobs services.JobService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewRoadmapHandler(jobs)
	r.POST("/generate-roadmap", h.StartGeneration)
	r.GET("/roadmap/:id", h.GetRoadmap)
	return r
}

func TestStartGeneration_ReturnsJobID(t *testing.T) {
	jobs := &fakeJobService{jobID: "job-123"}
	router := newRoadmapRouter(jobs)

	body := `{"degree": "Computer Science", "country": "Germany", "include_paid": false, "preferred_language": "Go"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate-roadmap", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["job_id"] != "job-123" {
		t.Fatalf("expected job id, got %v", resp)
	}

	if len(jobs.inputs) != 1 {
		t.Fatalf("expected one generation start, got %d", len(jobs.inputs))
	}
	in := jobs.inputs[0]
	if in.Subject != "Computer Science" || in.Country != "Germany" {
		t.Fatalf("unexpected input: %+v", in)
	}
	if in.IncludePaid {
		t.Fatalf("expected include_paid=false to be honored")
	}
	if in.PreferredLanguage != "Go" {
		t.Fatalf("unexpected preferred language: %q", in.PreferredLanguage)
	}
	if in.Language != "en" {
		t.Fatalf("expected default language en, got %q", in.Language)
	}
}

func TestStartGeneration_DefaultsIncludePaidTrue(t *testing.T) {
	jobs := &fakeJobService{jobID: "job-1"}
	router := newRoadmapRouter(jobs)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate-roadmap", strings.NewReader(`{"degree": "History"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !jobs.inputs[0].IncludePaid {
		t.Fatalf("expected include_paid to default to true")
	}
}

func TestStartGeneration_MissingDegree(t *testing.T) {
	router := newRoadmapRouter(&fakeJobService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate-roadmap", strings.NewReader(`{"country": "India"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetRoadmap_Processing(t *testing.T) {
	router := newRoadmapRouter(&fakeJobService{
		job: &domain.JobState{ID: "j1", Status: domain.JobProcessing},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/roadmap/j1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != string(domain.JobProcessing) {
		t.Fatalf("expected processing status, got %v", resp)
	}
}

func TestGetRoadmap_CompletedReturnsRoadmap(t *testing.T) {
	router := newRoadmapRouter(&fakeJobService{
		job: &domain.JobState{
			ID:     "j1",
			Status: domain.JobCompleted,
			Result: &domain.Roadmap{Subject: "Math", Title: "Your Path to Math Mastery", SelectedOption: "1"},
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/roadmap/j1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["topic"] != "Math" {
		t.Fatalf("expected roadmap payload, got %v", resp)
	}
}

func TestGetRoadmap_FailedCarriesError(t *testing.T) {
	router := newRoadmapRouter(&fakeJobService{
		job: &domain.JobState{ID: "j1", Status: domain.JobFailed, Error: "pipeline failed"},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/roadmap/j1", nil))

	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != string(domain.JobFailed) || resp["error"] != "pipeline failed" {
		t.Fatalf("unexpected failed payload: %v", resp)
	}
}

func TestGetRoadmap_UnknownJob(t *testing.T) {
	router := newRoadmapRouter(&fakeJobService{getErr: errs.ErrNotFound})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/roadmap/missing", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetRoadmap_LookupFailure(t *testing.T) {
	router := newRoadmapRouter(&fakeJobService{getErr: errors.New("store down")})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/roadmap/j1", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
