package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/connecthub/roadmap-backend/internal/domain"
	"github.com/connecthub/roadmap-backend/internal/logger"
	errs "github.com/connecthub/roadmap-backend/internal/pkg/errors"
	"github.com/connecthub/roadmap-backend/internal/utils"
)

const classCentralName = "classcentral"

const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var (
	selCourseCard   = cascadia.MustCompile(".course-list-course")
	selCourseLink   = cascadia.MustCompile("a.course-name")
	selCardThumb    = cascadia.MustCompile("img")
	selCardPlatform = cascadia.MustCompile("a.hover-underline, img.vertical-align-middle, span.text-2.line-tight")
	selDetailItem   = cascadia.MustCompile("li.course-details-item")
	selRatingText   = cascadia.MustCompile("p")

	platformRatingRe = regexp.MustCompile(`(\d+\.\d+)\s+rating at ([A-Za-z]+) based on (\d{1,3}(?:,\d{3})*|\d+) ratings`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

// ClassCentralSource scrapes the Class Central course search. One Fetch
// performs the search-page request plus one detail-page request per course,
// all bound to the caller's context.
type ClassCentralSource struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	maxCourses int
	maxRetries int
	retryDelay time.Duration
}

func NewClassCentralSource(log *logger.Logger) *ClassCentralSource {
	slog := log.With("source", classCentralName)
	baseURL := utils.GetEnv("CLASSCENTRAL_BASE_URL", "https://www.classcentral.com", slog)
	timeoutSec := utils.GetEnvAsInt("CLASSCENTRAL_TIMEOUT_SECONDS", 30, slog)
	return &ClassCentralSource{
		log:        slog,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxCourses: utils.GetEnvAsInt("CLASSCENTRAL_MAX_COURSES", 7, slog),
		maxRetries: 3,
		retryDelay: 5 * time.Second,
	}
}

func (s *ClassCentralSource) Name() string { return classCentralName }

func (s *ClassCentralSource) Fetch(ctx context.Context, topic string) ([]domain.RawCandidate, error) {
	searchURL := s.baseURL + "/search?q=" + url.QueryEscape(topic)
	doc, err := s.getWithRetry(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s search: %v", errs.ErrSourceUnavailable, classCentralName, err)
	}

	cards := cascadia.QueryAll(doc, selCourseCard)
	if len(cards) > s.maxCourses {
		cards = cards[:s.maxCourses]
	}

	// Zero cards is an empty result, not a failure.
	candidates := make([]domain.RawCandidate, 0, len(cards))
	for _, card := range cards {
		cand, ok := s.candidateFromCard(card)
		if !ok {
			continue
		}
		s.fillFromDetailPage(ctx, &cand)
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// candidateFromCard reads what the search-result card itself exposes:
// course URL, title, platform and thumbnail.
func (s *ClassCentralSource) candidateFromCard(card *html.Node) (domain.RawCandidate, bool) {
	link := cascadia.Query(card, selCourseLink)
	if link == nil {
		return domain.RawCandidate{}, false
	}
	href := attr(link, "href")
	if href == "" {
		return domain.RawCandidate{}, false
	}
	if !strings.HasPrefix(href, "http") {
		href = s.baseURL + href
	}

	cand := domain.RawCandidate{
		Title:    collapseSpace(textContent(link)),
		Platform: s.platformFromCard(card),
		URL:      href,
		Kind:     domain.KindCourse,
	}
	if img := cascadia.Query(card, selCardThumb); img != nil {
		cand.Thumbnail = attr(img, "src")
	}
	return cand, true
}

func (s *ClassCentralSource) platformFromCard(card *html.Node) string {
	for _, node := range cascadia.QueryAll(card, selCardPlatform) {
		if node.Data == "img" {
			if alt := strings.TrimSpace(attr(node, "alt")); alt != "" {
				return alt
			}
			continue
		}
		text := collapseSpace(textContent(node))
		if text != "" && !isDigits(text) {
			return text
		}
	}
	return "Unknown"
}

// fillFromDetailPage enriches a candidate with rating text, cost label,
// duration and overview. Detail-page failures degrade the candidate, they
// never fail the fetch.
func (s *ClassCentralSource) fillFromDetailPage(ctx context.Context, cand *domain.RawCandidate) {
	// YouTube-hosted entries link off-site; there is no detail page to scrape.
	if strings.EqualFold(cand.Platform, "YouTube") {
		cand.Kind = domain.KindVideo
		cand.CostLabel = "Free"
		return
	}

	doc, err := s.getWithRetry(ctx, cand.URL)
	if err != nil {
		s.log.Warn("course detail page unavailable", "url", cand.URL, "error", err)
		return
	}

	cand.RatingText = extractRatingText(doc)
	cand.CostLabel, cand.Duration = extractDetails(doc)
	cand.Overview = s.extractOverview(doc, cand.URL)
}

func extractRatingText(doc *html.Node) string {
	for _, p := range cascadia.QueryAll(doc, selRatingText) {
		text := collapseSpace(textContent(p))
		if !strings.Contains(text, "rating at ") {
			continue
		}
		if m := platformRatingRe.FindStringSubmatch(text); m != nil {
			return fmt.Sprintf("%s Rating: %s (%s ratings)", m[2], m[1], m[3])
		}
		return text
	}
	return ""
}

func extractDetails(doc *html.Node) (costLabel, duration string) {
	for _, item := range cascadia.QueryAll(doc, selDetailItem) {
		text := collapseSpace(textContent(item))
		lower := strings.ToLower(text)
		if costLabel == "" {
			switch {
			case strings.Contains(lower, "free"):
				costLabel = "Free Course"
			case strings.Contains(lower, "paid"), strings.Contains(lower, "certificate"), strings.Contains(lower, "nanodegree"):
				costLabel = "Paid Course"
			}
		}
		if duration == "" {
			for _, unit := range []string{"day", "hour", "minute", "week", "month"} {
				if strings.Contains(lower, unit) {
					clean := strings.TrimSpace(strings.TrimPrefix(text, "Duration & workload"))
					duration = collapseSpace(clean)
					break
				}
			}
		}
		if costLabel != "" && duration != "" {
			break
		}
	}
	return costLabel, duration
}

// extractOverview runs readability over the course page and keeps a bounded
// chunk of its text content.
func (s *ClassCentralSource) extractOverview(doc *html.Node, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromDocument(doc, parsed)
	if err != nil {
		return ""
	}
	overview := collapseSpace(article.TextContent)
	const maxOverview = 600
	if len(overview) > maxOverview {
		overview = overview[:maxOverview]
	}
	return overview
}

// getWithRetry fetches and parses one page, retrying transient failures
// with a fixed delay the way the scraper always has.
func (s *ClassCentralSource) getWithRetry(ctx context.Context, pageURL string) (*html.Node, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := s.getOnce(ctx, pageURL)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if attempt < s.maxRetries {
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("failed to load %s after %d attempts: %w", pageURL, s.maxRetries, lastErr)
}

func (s *ClassCentralSource) getOnce(ctx context.Context, pageURL string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", desktopUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return html.Parse(resp.Body)
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
