package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/connecthub/roadmap-backend/internal/domain"
	"github.com/connecthub/roadmap-backend/internal/logger"
	"github.com/connecthub/roadmap-backend/internal/normalize"
	errs "github.com/connecthub/roadmap-backend/internal/pkg/errors"
	"github.com/connecthub/roadmap-backend/internal/utils"
)

const youtubeName = "youtube"

// Videos at or under this length are shorts and never useful as a learning
// resource.
const minVideoSeconds = 60

var languageCodes = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"russian":    "ru",
	"chinese":    "zh",
	"japanese":   "ja",
	"korean":     "ko",
	"arabic":     "ar",
	"hindi":      "hi",
}

// NormalizeLanguageCode converts a language name or code to a two-letter
// ISO 639-1 code, defaulting to English.
func NormalizeLanguageCode(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return "en"
	}
	if len(language) == 2 && isAlpha(language) {
		return language
	}
	if code, ok := languageCodes[language]; ok {
		return code
	}
	return "en"
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return s != ""
}

// YouTubeSource searches the YouTube Data API for playlists and long-form
// videos. The API service is created per Fetch so every call's quota and
// lifetime are scoped to that call.
type YouTubeSource struct {
	log        *logger.Logger
	apiKey     string
	maxResults int64
}

func NewYouTubeSource(log *logger.Logger) (*YouTubeSource, error) {
	slog := log.With("source", youtubeName)
	apiKey := utils.GetEnv("YOUTUBE_API_KEY", "", slog)
	if apiKey == "" {
		return nil, fmt.Errorf("missing YOUTUBE_API_KEY")
	}
	return &YouTubeSource{
		log:        slog,
		apiKey:     apiKey,
		maxResults: int64(utils.GetEnvAsInt("YOUTUBE_MAX_RESULTS", 5, slog)),
	}, nil
}

func (s *YouTubeSource) Name() string { return youtubeName }

func (s *YouTubeSource) Fetch(ctx context.Context, topic string) ([]domain.RawCandidate, error) {
	return s.FetchWithOptions(ctx, topic, FetchOptions{Language: "en"})
}

func (s *YouTubeSource) FetchWithOptions(ctx context.Context, topic string, opts FetchOptions) ([]domain.RawCandidate, error) {
	svc, err := youtube.NewService(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return nil, fmt.Errorf("%w: youtube service: %v", errs.ErrSourceUnavailable, err)
	}

	call := svc.Search.List([]string{"id", "snippet"}).
		Q(topic).
		MaxResults(s.maxResults * 2). // overfetch, shorts get filtered below
		Type("video", "playlist").
		RelevanceLanguage(NormalizeLanguageCode(opts.Language)).
		Context(ctx)
	if opts.RegionCode != "" {
		call = call.RegionCode(opts.RegionCode)
	}

	searchResp, err := call.Do()
	if err != nil {
		if isQuotaExceeded(err) {
			// Quota exhaustion is an operational event, not a broken topic.
			s.log.Warn("youtube quota exceeded, returning empty result", "topic", topic)
			return []domain.RawCandidate{}, nil
		}
		return nil, fmt.Errorf("%w: youtube search: %v", errs.ErrSourceUnavailable, err)
	}

	var playlists []domain.RawCandidate
	var videos []domain.RawCandidate
	var videoIDs []string

	for _, item := range searchResp.Items {
		if item.Id == nil || item.Snippet == nil {
			continue
		}
		cand := domain.RawCandidate{
			Title:       item.Snippet.Title,
			Platform:    "YouTube",
			Description: item.Snippet.Description,
			CostLabel:   "Free",
		}
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Default != nil {
			cand.Thumbnail = item.Snippet.Thumbnails.Default.Url
		}
		switch item.Id.Kind {
		case "youtube#video":
			cand.Kind = domain.KindVideo
			cand.URL = "https://www.youtube.com/watch?v=" + item.Id.VideoId
			videoIDs = append(videoIDs, item.Id.VideoId)
			videos = append(videos, cand)
		case "youtube#playlist":
			cand.Kind = domain.KindPlaylist
			cand.URL = "https://www.youtube.com/playlist?list=" + item.Id.PlaylistId
			cand.Duration = "Playlist"
			playlists = append(playlists, cand)
		}
	}

	videos = s.annotateVideos(ctx, svc, videos, videoIDs)

	// Playlists first, then long-form videos, trimmed to the result budget.
	results := append(playlists, videos...)
	if int64(len(results)) > s.maxResults {
		results = results[:s.maxResults]
	}
	return results, nil
}

// annotateVideos looks up duration and view count for the searched videos
// and drops shorts. Lookup failure degrades to the unannotated list rather
// than failing the fetch.
func (s *YouTubeSource) annotateVideos(ctx context.Context, svc *youtube.Service, videos []domain.RawCandidate, videoIDs []string) []domain.RawCandidate {
	if len(videoIDs) == 0 {
		return videos
	}

	detailsResp, err := svc.Videos.List([]string{"contentDetails", "statistics"}).
		Id(videoIDs...).
		Context(ctx).
		Do()
	if err != nil {
		if isQuotaExceeded(err) {
			s.log.Warn("youtube quota exceeded fetching video details")
		} else {
			s.log.Warn("youtube video details lookup failed", "error", err)
		}
		return videos
	}

	type detail struct {
		seconds int64
		views   int64
	}
	byID := make(map[string]detail, len(detailsResp.Items))
	for _, item := range detailsResp.Items {
		d := detail{}
		if item.ContentDetails != nil {
			d.seconds = normalize.ParseISODuration(item.ContentDetails.Duration)
		}
		if item.Statistics != nil {
			d.views = int64(item.Statistics.ViewCount)
		}
		byID[item.Id] = d
	}

	kept := videos[:0]
	for i, video := range videos {
		d, ok := byID[videoIDs[i]]
		if !ok || d.seconds <= minVideoSeconds {
			continue
		}
		video.DurationSeconds = d.seconds
		video.Duration = normalize.FormatDuration(d.seconds)
		video.ViewCount = d.views
		kept = append(kept, video)
	}
	return kept
}

func isQuotaExceeded(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code != 403 {
		return false
	}
	for _, e := range apiErr.Errors {
		if e.Reason == "quotaExceeded" || e.Reason == "rateLimitExceeded" {
			return true
		}
	}
	return strings.Contains(apiErr.Message, "quota")
}
