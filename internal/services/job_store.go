package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/connecthub/roadmap-backend/internal/domain"
	"github.com/connecthub/roadmap-backend/internal/logger"
	errs "github.com/connecthub/roadmap-backend/internal/pkg/errors"
)

// JobStore is the one piece of process-wide mutable state: key -> state for
// generation jobs and assistant conversations. Writes to a given key come
// from a single task; reads are snapshot reads, so stale-but-consistent
// values are acceptable.
type JobStore interface {
	PutJob(ctx context.Context, job *domain.JobState) error
	GetJob(ctx context.Context, id string) (*domain.JobState, error)
	PutConversation(ctx context.Context, conv *domain.Conversation) error
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
}

// ---- In-memory store ----

type memoryJobStore struct {
	mu    sync.RWMutex
	jobs  map[string]domain.JobState
	convs map[string]domain.Conversation
}

func NewMemoryJobStore() JobStore {
	return &memoryJobStore{
		jobs:  make(map[string]domain.JobState),
		convs: make(map[string]domain.Conversation),
	}
}

func (s *memoryJobStore) PutJob(_ context.Context, job *domain.JobState) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("missing job id: %w", errs.ErrInvalidArgument)
	}
	s.mu.Lock()
	s.jobs[job.ID] = *job
	s.mu.Unlock()
	return nil
}

func (s *memoryJobStore) GetJob(_ context.Context, id string) (*domain.JobState, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, errs.ErrNotFound)
	}
	return &job, nil
}

func (s *memoryJobStore) PutConversation(_ context.Context, conv *domain.Conversation) error {
	if conv == nil || conv.ID == "" {
		return fmt.Errorf("missing conversation id: %w", errs.ErrInvalidArgument)
	}
	stored := *conv
	stored.Messages = append([]domain.ChatMessage(nil), conv.Messages...)
	s.mu.Lock()
	s.convs[conv.ID] = stored
	s.mu.Unlock()
	return nil
}

func (s *memoryJobStore) GetConversation(_ context.Context, id string) (*domain.Conversation, error) {
	s.mu.RLock()
	conv, ok := s.convs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, errs.ErrNotFound)
	}
	out := conv
	out.Messages = append([]domain.ChatMessage(nil), conv.Messages...)
	return &out, nil
}

// ---- Redis store ----

type redisJobStore struct {
	log *logger.Logger
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisJobStore connects to REDIS_ADDR. Used when jobs must survive a
// process restart or be visible across replicas.
func NewRedisJobStore(log *logger.Logger) (JobStore, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisJobStore{
		log: log.With("service", "RedisJobStore"),
		rdb: rdb,
		ttl: 24 * time.Hour,
	}, nil
}

func (s *redisJobStore) PutJob(ctx context.Context, job *domain.JobState) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("missing job id: %w", errs.ErrInvalidArgument)
	}
	return s.put(ctx, "job:"+job.ID, job)
}

func (s *redisJobStore) GetJob(ctx context.Context, id string) (*domain.JobState, error) {
	var job domain.JobState
	if err := s.get(ctx, "job:"+id, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *redisJobStore) PutConversation(ctx context.Context, conv *domain.Conversation) error {
	if conv == nil || conv.ID == "" {
		return fmt.Errorf("missing conversation id: %w", errs.ErrInvalidArgument)
	}
	return s.put(ctx, "conv:"+conv.ID, conv)
}

func (s *redisJobStore) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := s.get(ctx, "conv:"+id, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *redisJobStore) put(ctx context.Context, key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, raw, s.ttl).Err()
}

func (s *redisJobStore) get(ctx context.Context, key string, out any) error {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("%s: %w", key, errs.ErrNotFound)
		}
		return err
	}
	return json.Unmarshal(raw, out)
}
