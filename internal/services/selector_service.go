package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/connecthub/roadmap-backend/internal/domain"
	"github.com/connecthub/roadmap-backend/internal/logger"
	"github.com/connecthub/roadmap-backend/internal/pkg/llmtext"
)

const fallbackExplanation = "Failed to select resources; defaulting to first four available."

// SelectorService picks a bounded top-K from a topic's candidate pool.
// Filtering happens before ranking; all tie-breaks prefer earlier pool
// order so selection is deterministic whenever the oracle is not.
type SelectorService interface {
	Select(ctx context.Context, topic domain.Topic, pool []domain.Resource, includePaid bool, k int) ([]domain.Resource, string)
}

type selectorService struct {
	log *logger.Logger
	ai  GeminiClient
}

func NewSelectorService(baseLog *logger.Logger, ai GeminiClient) SelectorService {
	return &selectorService{
		log: baseLog.With("service", "SelectorService"),
		ai:  ai,
	}
}

type selectionOracleReply struct {
	SelectedResources []int  `json:"selected_resources"`
	Explanation       string `json:"explanation"`
}

func (s *selectorService) Select(ctx context.Context, topic domain.Topic, pool []domain.Resource, includePaid bool, k int) ([]domain.Resource, string) {
	if k <= 0 {
		k = 4
	}

	if !includePaid {
		filtered := make([]domain.Resource, 0, len(pool))
		for _, r := range pool {
			if r.Cost != domain.CostPaid {
				filtered = append(filtered, r)
			}
		}
		pool = filtered
	}

	// Every topic must end up with at least one resource.
	if len(pool) == 0 {
		return []domain.Resource{placeholderResource(topic.Name)}, fmt.Sprintf("No resources were found for %s; a search link is provided instead.", topic.Name)
	}

	raw, err := s.ai.GenerateText(ctx, buildSelectionPrompt(topic.Name, pool, k))
	if err != nil {
		if IsQuotaErr(err) {
			s.log.Warn("selection oracle quota exceeded, using pool order", "topic", topic.Name)
		} else {
			s.log.Warn("selection oracle failed, using pool order", "topic", topic.Name, "error", err)
		}
		return firstK(pool, k), fallbackExplanation
	}

	var reply selectionOracleReply
	if err := llmtext.DecodeObject(raw, &reply); err != nil {
		s.log.Warn("selection oracle returned unparseable output, using pool order", "topic", topic.Name, "error", err)
		return firstK(pool, k), fallbackExplanation
	}

	chosen := make([]domain.Resource, 0, k)
	taken := make(map[int]bool, k)
	for _, num := range reply.SelectedResources {
		idx := num - 1 // oracle indices are 1-based
		if idx < 0 || idx >= len(pool) || taken[idx] {
			continue
		}
		taken[idx] = true
		r := pool[idx]
		r.RelevanceScore = float64(k - len(chosen))
		chosen = append(chosen, r)
		if len(chosen) == k {
			break
		}
	}

	// Fill remaining slots with the first unselected candidates so the
	// selection never has gaps.
	for idx := 0; idx < len(pool) && len(chosen) < k; idx++ {
		if taken[idx] {
			continue
		}
		taken[idx] = true
		chosen = append(chosen, pool[idx])
	}

	explanation := strings.TrimSpace(reply.Explanation)
	if explanation == "" {
		explanation = fallbackExplanation
	}
	return chosen, explanation
}

func firstK(pool []domain.Resource, k int) []domain.Resource {
	if len(pool) > k {
		pool = pool[:k]
	}
	out := make([]domain.Resource, len(pool))
	copy(out, pool)
	return out
}

// placeholderResource is the synthetic fallback for an empty pool: a
// generic search link so the step still points somewhere useful.
func placeholderResource(topicName string) domain.Resource {
	return domain.Resource{
		Name:     fmt.Sprintf("Search courses for %s", topicName),
		Platform: "Unknown",
		URL:      "https://www.classcentral.com/search?q=" + url.QueryEscape(topicName),
		Kind:     domain.KindCourse,
		Cost:     domain.CostUnknown,
		Source:   "fallback",
	}
}

func buildSelectionPrompt(topicName string, pool []domain.Resource, k int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Select the top %d most apt and relevant resources for the topic '%s' from the list below. The list includes online courses and YouTube videos/playlists. Consider relevance, quality, popularity, and prefer a mix of providers over many entries from a single one.

For courses: consider name relevance, platform reputation, overview, and rating with number of reviews (more reviews preferred).
For YouTube content: consider title relevance, description, view count, and duration (longer content preferred at similar relevance; playlists over single videos).

Return ONLY a valid JSON object with:
- 'selected_resources': list of resource numbers (1-%d)
- 'explanation': cumulative explanation using "These resources"

Example:
{"selected_resources": [1, 2, 3, 4], "explanation": "These resources offer comprehensive coverage with high quality."}

Resources:
`, k, topicName, len(pool))

	for i, r := range pool {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, r.Name, r.Platform)
		if overview := truncate(r.Overview, 100); overview != "" {
			fmt.Fprintf(&b, "   Overview: %s...\n", overview)
		}
		if r.Platform == "YouTube" {
			fmt.Fprintf(&b, "   Views: %d\n", int64(r.PopularityScore))
		} else if r.RatingValue > 0 {
			fmt.Fprintf(&b, "   Rating: %.1f (%d ratings)\n", r.RatingValue, r.ReviewCount)
		}
		fmt.Fprintf(&b, "   Type: %s / %s\n", r.Kind, r.Cost)
		if r.Duration != "" {
			fmt.Fprintf(&b, "   Duration: %s\n", r.Duration)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
