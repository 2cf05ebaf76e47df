package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/connecthub/roadmap-backend/internal/domain"
	errs "github.com/connecthub/roadmap-backend/internal/pkg/errors"
	"github.com/connecthub/roadmap-backend/internal/services"
)

type RoadmapHandler struct {
	jobs services.JobService
}

func NewRoadmapHandler(jobs services.JobService) *RoadmapHandler {
	return &RoadmapHandler{jobs: jobs}
}

type generateRoadmapRequest struct {
	Subject           string `json:"degree" binding:"required"`
	Country           string `json:"country"`
	Language          string `json:"language"`
	IncludePaid       *bool  `json:"include_paid"`
	PreferredLanguage string `json:"preferred_language"`
}

// POST /generate-roadmap
func (h *RoadmapHandler) StartGeneration(c *gin.Context) {
	var req generateRoadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	includePaid := true
	if req.IncludePaid != nil {
		includePaid = *req.IncludePaid
	}
	language := req.Language
	if language == "" {
		language = "en"
	}

	jobID, err := h.jobs.StartGeneration(c.Request.Context(), services.GenerateInput{
		Subject:           req.Subject,
		Country:           req.Country,
		Language:          language,
		IncludePaid:       includePaid,
		PreferredLanguage: req.PreferredLanguage,
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "job_start_failed", err)
		return
	}

	RespondOK(c, gin.H{"job_id": jobID})
}

// GET /roadmap/:id
func (h *RoadmapHandler) GetRoadmap(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "job_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "job_lookup_failed", err)
		return
	}

	switch job.Status {
	case domain.JobProcessing:
		RespondOK(c, gin.H{"status": domain.JobProcessing})
	case domain.JobCompleted:
		RespondOK(c, job.Result)
	default:
		RespondOK(c, gin.H{"status": domain.JobFailed, "error": job.Error})
	}
}
