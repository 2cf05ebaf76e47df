package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/connecthub/roadmap-backend/internal/domain"
	"github.com/connecthub/roadmap-backend/internal/logger"
	"github.com/connecthub/roadmap-backend/internal/pkg/llmtext"
)

// TopicService resolves a subject into an ordered list of sub-topics. The
// oracle's ordering is trusted as foundational-to-advanced and preserved
// verbatim. Resolution never fails: a broken oracle yields synthetic
// placeholder topics.
type TopicService interface {
	Resolve(ctx context.Context, req TopicRequest) ([]domain.Topic, bool)
}

type TopicRequest struct {
	Subject           string
	Count             int
	Country           string
	PreferredLanguage string
}

type topicService struct {
	log *logger.Logger
	ai  GeminiClient
}

func NewTopicService(baseLog *logger.Logger, ai GeminiClient) TopicService {
	return &topicService{
		log: baseLog.With("service", "TopicService"),
		ai:  ai,
	}
}

type topicOracleReply struct {
	Topics               []string `json:"topics"`
	IsProgrammingRelated bool     `json:"is_programming_related"`
}

func (s *topicService) Resolve(ctx context.Context, req TopicRequest) ([]domain.Topic, bool) {
	if req.Count <= 0 {
		req.Count = 6
	}

	raw, err := s.ai.GenerateText(ctx, buildTopicPrompt(req))
	if err != nil {
		if IsQuotaErr(err) {
			s.log.Warn("topic oracle quota exceeded, using synthetic topics", "subject", req.Subject)
		} else {
			s.log.Warn("topic oracle failed, using synthetic topics", "subject", req.Subject, "error", err)
		}
		return syntheticTopics(req.Count), false
	}

	var reply topicOracleReply
	if err := llmtext.DecodeObject(raw, &reply); err != nil {
		s.log.Warn("topic oracle returned unparseable output, using synthetic topics", "subject", req.Subject, "error", err)
		return syntheticTopics(req.Count), false
	}
	if len(reply.Topics) == 0 {
		s.log.Warn("topic oracle returned no topics, using synthetic topics", "subject", req.Subject)
		return syntheticTopics(req.Count), false
	}

	names := reply.Topics
	if len(names) != req.Count {
		s.log.Debug("topic count mismatch, adjusting", "want", req.Count, "got", len(names))
		if len(names) > req.Count {
			names = names[:req.Count]
		} else {
			for i := len(names); i < req.Count; i++ {
				names = append(names, fmt.Sprintf("Topic %d", i+1))
			}
		}
	}

	topics := make([]domain.Topic, 0, len(names))
	for _, name := range names {
		topics = append(topics, domain.Topic{
			Name:          strings.TrimSpace(name),
			IsSpecialized: reply.IsProgrammingRelated,
		})
	}
	return topics, reply.IsProgrammingRelated
}

func syntheticTopics(count int) []domain.Topic {
	topics := make([]domain.Topic, 0, count)
	for i := 0; i < count; i++ {
		topics = append(topics, domain.Topic{Name: fmt.Sprintf("Topic %d", i+1)})
	}
	return topics
}

func buildTopicPrompt(req TopicRequest) string {
	languageInfo := "without a preferred programming language"
	if req.PreferredLanguage != "" {
		languageInfo = fmt.Sprintf("with a preferred programming language of '%s'", req.PreferredLanguage)
	}
	countryInfo := "No specific country context is provided."
	if req.Country != "" {
		countryInfo = fmt.Sprintf("Consider the context of %s for any region-specific relevance (e.g., local industries, languages, or certifications) if applicable.", req.Country)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Given the degree or role '%s' %s, generate a list of %d key topics that are essential for someone pursuing this field. These topics should represent foundational areas of study or skills necessary for success in this degree or role. Ensure the topics are concise, specific, and suitable for finding relevant online courses.

%s

Additional instructions:
- Order the topics in a logical sequence that reflects a natural learning progression, starting with foundational concepts and progressing to more advanced or specialized topics.
- Determine if the degree or role suggests a Computer Science, IT, or programming-related field.
`, req.Subject, languageInfo, req.Count, countryInfo)

	if req.PreferredLanguage != "" {
		fmt.Fprintf(&b, "- If it is programming-related, append the user's preferred programming language '%s' to programming-specific topics (e.g., 'Data Structures in %s'), leaving inherently multi-language topics unchanged.\n", req.PreferredLanguage, req.PreferredLanguage)
	} else {
		b.WriteString("- If it is programming-related, append a dominant programming language to programming-specific topics based on common usage in the field, unless the topic inherently involves multiple languages.\n")
	}

	fmt.Fprintf(&b, `- If the degree/role isn't programming-related, use the topic names alone without appending any language.

Return the response as a JSON object with two keys:
- 'topics': a list of exactly %d topic strings
- 'is_programming_related': a boolean indicating if the degree/role is programming-related

Provide no additional text or explanations beyond the JSON object.
`, req.Count)
	return b.String()
}
