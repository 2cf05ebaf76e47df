package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/connecthub/roadmap-backend/internal/domain"
	"github.com/connecthub/roadmap-backend/internal/logger"
)

// JobService runs roadmap generation as background jobs so the HTTP layer
// can return a job id immediately and poll for the result.
type JobService interface {
	StartGeneration(ctx context.Context, in GenerateInput) (string, error)
	GetJob(ctx context.Context, id string) (*domain.JobState, error)
}

type jobService struct {
	log     *logger.Logger
	store   JobStore
	roadmap RoadmapService

	// jobTimeout bounds one generation end to end; past it the job fails
	// rather than hanging forever.
	jobTimeout time.Duration
}

func NewJobService(baseLog *logger.Logger, store JobStore, roadmap RoadmapService) JobService {
	return &jobService{
		log:        baseLog.With("service", "JobService"),
		store:      store,
		roadmap:    roadmap,
		jobTimeout: 15 * time.Minute,
	}
}

func (s *jobService) StartGeneration(ctx context.Context, in GenerateInput) (string, error) {
	jobID := uuid.New().String()
	now := time.Now().UTC()
	job := &domain.JobState{
		ID:        jobID,
		Status:    domain.JobProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.PutJob(ctx, job); err != nil {
		return "", err
	}

	// The job goroutine is the single writer for this job id. It is
	// detached from the request context so a disconnecting client does not
	// cancel generation.
	go s.run(jobID, in)

	s.log.Info("generation job started", "job_id", jobID, "subject", in.Subject)
	return jobID, nil
}

func (s *jobService) GetJob(ctx context.Context, id string) (*domain.JobState, error) {
	return s.store.GetJob(ctx, id)
}

func (s *jobService) run(jobID string, in GenerateInput) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	roadmap, err := s.roadmap.Generate(ctx, in)

	job, getErr := s.store.GetJob(context.Background(), jobID)
	if getErr != nil || job == nil {
		job = &domain.JobState{ID: jobID, CreatedAt: time.Now().UTC()}
	}
	job.UpdatedAt = time.Now().UTC()
	if err != nil {
		s.log.Error("generation job failed", "job_id", jobID, "error", err)
		job.Status = domain.JobFailed
		job.Error = err.Error()
	} else {
		job.Status = domain.JobCompleted
		job.Result = roadmap
	}

	if putErr := s.store.PutJob(context.Background(), job); putErr != nil {
		s.log.Error("failed to store job result", "job_id", jobID, "error", putErr)
	}
}
