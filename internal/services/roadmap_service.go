package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/connecthub/roadmap-backend/internal/domain"
	"github.com/connecthub/roadmap-backend/internal/logger"
	"github.com/connecthub/roadmap-backend/internal/normalize"
	"github.com/connecthub/roadmap-backend/internal/pkg/gather"
	"github.com/connecthub/roadmap-backend/internal/repos"
	"github.com/connecthub/roadmap-backend/internal/sources"
	"github.com/connecthub/roadmap-backend/internal/utils"
)

// Pipeline stages, in order. Ordinary upstream failures are absorbed into
// fallbacks inside each stage; StageFailed is reserved for catastrophic
// conditions such as caller cancellation.
const (
	StagePending           = "pending"
	StageTopicsResolved    = "topics_resolved"
	StageFetchingResources = "fetching_resources"
	StageSelecting         = "selecting"
	StageAssembled         = "assembled"
	StageFailed            = "failed"
)

// PipelineError is the only error Generate returns. It always indicates a
// catastrophic condition, never a partially degraded roadmap.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("roadmap pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// GenerateInput is one roadmap generation request.
type GenerateInput struct {
	Subject           string
	Country           string
	Language          string
	IncludePaid       bool
	PreferredLanguage string
}

// RoadmapService runs the full aggregation pipeline: topic resolution,
// concurrent multi-source fetch per topic, normalization, selection, and
// option assembly.
type RoadmapService interface {
	Generate(ctx context.Context, in GenerateInput) (*domain.Roadmap, error)
}

type roadmapService struct {
	log      *logger.Logger
	topics   TopicService
	selector SelectorService
	srcs     []sources.Source
	repo     repos.RoadmapRepo

	topicCount        int
	optionCount       int
	resourcesPerTopic int
	maxFetches        int
}

// NewRoadmapService wires the pipeline. repo may be nil; persistence is
// best-effort.
func NewRoadmapService(
	baseLog *logger.Logger,
	topics TopicService,
	selector SelectorService,
	srcs []sources.Source,
	repo repos.RoadmapRepo,
) RoadmapService {
	log := baseLog.With("service", "RoadmapService")
	return &roadmapService{
		log:               log,
		topics:            topics,
		selector:          selector,
		srcs:              srcs,
		repo:              repo,
		topicCount:        utils.GetEnvAsInt("ROADMAP_TOPIC_COUNT", 6, log),
		optionCount:       utils.GetEnvAsInt("ROADMAP_OPTION_COUNT", 4, log),
		resourcesPerTopic: utils.GetEnvAsInt("ROADMAP_RESOURCES_PER_TOPIC", 4, log),
		maxFetches:        utils.GetEnvAsInt("ROADMAP_MAX_CONCURRENT_FETCHES", 8, log),
	}
}

func (s *roadmapService) Generate(ctx context.Context, in GenerateInput) (*domain.Roadmap, error) {
	log := s.log.With("subject", in.Subject)
	log.Info("roadmap generation starting", "stage", StagePending)

	// Topic resolution has its own synthetic fallback, so this stage can
	// never fail the pipeline.
	topics, specialized := s.topics.Resolve(ctx, TopicRequest{
		Subject: in.Subject,
		Count:   s.topicCount,
		Country: in.Country,
	})
	// Specialization is detected on a language-neutral pass first; only a
	// specialized subject gets topics rephrased around the preferred
	// language.
	if specialized && in.PreferredLanguage != "" {
		topics, _ = s.topics.Resolve(ctx, TopicRequest{
			Subject:           in.Subject,
			Count:             s.topicCount,
			Country:           in.Country,
			PreferredLanguage: in.PreferredLanguage,
		})
	}
	log.Info("topics resolved", "stage", StageTopicsResolved, "count", len(topics), "specialized", specialized)

	pools, err := s.fetchPools(ctx, log, topics, in)
	if err != nil {
		log.Error("roadmap generation failed", "stage", StageFailed, "error", err)
		return nil, err
	}

	log.Info("selecting resources", "stage", StageSelecting)
	selected := make([][]domain.Resource, len(topics))
	explanations := make([]string, len(topics))
	for i, topic := range topics {
		selected[i], explanations[i] = s.selector.Select(ctx, topic, pools[i], in.IncludePaid, s.resourcesPerTopic)
	}

	roadmap := s.assemble(in.Subject, topics, selected, explanations)
	log.Info("roadmap assembled", "stage", StageAssembled, "options", len(roadmap.Options))

	if s.repo != nil {
		if err := s.repo.Create(ctx, roadmap); err != nil {
			log.Warn("roadmap persistence failed", "error", err)
		}
	}
	return roadmap, nil
}

// fetchPools launches one fetch task per (topic, source) pair under a
// shared concurrency limit. A branch failure only empties that branch's
// contribution; sibling branches and other topics proceed. Slot ownership
// is exclusive per branch, so pools need no locking.
func (s *roadmapService) fetchPools(ctx context.Context, log *logger.Logger, topics []domain.Topic, in GenerateInput) ([][]domain.Resource, error) {
	log.Info("fetching resources", "stage", StageFetchingResources, "topics", len(topics), "sources", len(s.srcs))

	opts := sources.FetchOptions{
		Language:   in.Language,
		RegionCode: regionCode(in.Country),
	}

	tasks := make([]gather.Task[[]domain.RawCandidate], 0, len(topics)*len(s.srcs))
	for _, topic := range topics {
		topicName := topic.Name
		for _, src := range s.srcs {
			src := src
			tasks = append(tasks, func(ctx context.Context) ([]domain.RawCandidate, error) {
				if os, ok := src.(sources.OptionedSource); ok {
					return os.FetchWithOptions(ctx, topicName, opts)
				}
				return src.Fetch(ctx, topicName)
			})
		}
	}

	results := gather.All(ctx, s.maxFetches, tasks...)
	if err := ctx.Err(); err != nil {
		return nil, &PipelineError{Stage: StageFetchingResources, Err: err}
	}

	pools := make([][]domain.Resource, len(topics))
	for ti := range topics {
		var pool []domain.Resource
		for si, src := range s.srcs {
			res := results[ti*len(s.srcs)+si]
			if res.Err != nil {
				// Contained: one failing source for one topic contributes
				// nothing.
				log.Warn("source fetch failed", "topic", topics[ti].Name, "source", src.Name(), "error", res.Err)
				continue
			}
			for _, raw := range res.Value {
				pool = append(pool, normalize.Normalize(raw, src.Name()))
			}
		}
		pools[ti] = pool
	}
	return pools, nil
}

// assemble builds the N alternative options. Option i takes each topic's
// (i-1)-th ranked resource, clamped to the last available one, so options
// are always fully populated.
func (s *roadmapService) assemble(subject string, topics []domain.Topic, selected [][]domain.Resource, explanations []string) *domain.Roadmap {
	options := make([]domain.RoadmapOption, 0, s.optionCount)
	for i := 1; i <= s.optionCount; i++ {
		steps := make([]domain.RoadmapStep, 0, len(topics))
		for step, topic := range topics {
			resources := selected[step]
			if len(resources) == 0 {
				steps = append(steps, placeholderStep(step+1, topic.Name))
				continue
			}
			idx := i - 1
			if idx >= len(resources) {
				idx = len(resources) - 1
			}
			r := resources[idx]
			steps = append(steps, domain.RoadmapStep{
				StepNumber:  step + 1,
				Topic:       topic.Name,
				Thumbnail:   r.Thumbnail,
				URL:         r.URL,
				Rating:      int(r.RatingValue),
				ReviewCount: r.ReviewCount,
			})
		}
		options = append(options, domain.RoadmapOption{
			OptionID:   fmt.Sprintf("%d", i),
			OptionName: fmt.Sprintf("Option %d", i),
			Steps:      steps,
		})
	}

	var desc strings.Builder
	for i, topic := range topics {
		explanation := explanations[i]
		if explanation == "" {
			explanation = "No explanation available"
		}
		fmt.Fprintf(&desc, "For %s: %s. ", topic.Name, explanation)
	}

	return &domain.Roadmap{
		Subject:        subject,
		Title:          fmt.Sprintf("Your Path to %s Mastery", subject),
		Description:    strings.TrimSpace(desc.String()),
		Topics:         topics,
		SelectedOption: "1",
		Options:        options,
	}
}

func placeholderStep(stepNumber int, topicName string) domain.RoadmapStep {
	return domain.RoadmapStep{
		StepNumber: stepNumber,
		Topic:      topicName,
		URL:        "https://www.classcentral.com/search?q=" + strings.ReplaceAll(topicName, " ", "+"),
	}
}

// regionCode maps a country name to its ISO 3166-1 alpha-2 code for the
// video source. Two-letter inputs pass through; unknown names mean no
// region restriction.
var countryCodes = map[string]string{
	"united states":  "US",
	"usa":            "US",
	"united kingdom": "GB",
	"uk":             "GB",
	"india":          "IN",
	"canada":         "CA",
	"australia":      "AU",
	"germany":        "DE",
	"france":         "FR",
	"spain":          "ES",
	"italy":          "IT",
	"brazil":         "BR",
	"mexico":         "MX",
	"japan":          "JP",
	"south korea":    "KR",
	"china":          "CN",
	"russia":         "RU",
	"netherlands":    "NL",
	"singapore":      "SG",
	"nigeria":        "NG",
	"south africa":   "ZA",
}

func regionCode(country string) string {
	c := strings.ToLower(strings.TrimSpace(country))
	if c == "" {
		return ""
	}
	if len(c) == 2 {
		return strings.ToUpper(c)
	}
	return countryCodes[c]
}
