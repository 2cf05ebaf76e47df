// Package normalize maps raw source candidates into the common Resource
// record. Everything here is a pure transform: missing fields become
// documented defaults, never errors.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/connecthub/roadmap-backend/internal/domain"
)

const notAvailable = "Not available"

var (
	ratingWithCountRe = regexp.MustCompile(`(\d+\.\d+)\s*\((\d{1,3}(?:,\d{3})*|\d+)\s*ratings?\)`)
	ratingLooseRe     = regexp.MustCompile(`(\d+\.\d+)\D*?(\d{1,3}(?:,\d{3})*|\d+)`)
	isoDurationRe     = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
)

// ParseRating extracts a rating value and review count from free-text
// rating strings such as "Coursera Rating: 4.5 (1,200 ratings)". A decimal
// number followed by a parenthesized count is preferred; a looser
// decimal-then-integer match is the fallback. Anything else yields (0, 0).
func ParseRating(text string) (float64, int) {
	text = strings.TrimSpace(text)
	if text == "" || text == notAvailable {
		return 0, 0
	}
	m := ratingWithCountRe.FindStringSubmatch(text)
	if m == nil {
		m = ratingLooseRe.FindStringSubmatch(text)
	}
	if m == nil {
		return 0, 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0
	}
	count, err := strconv.Atoi(strings.ReplaceAll(m[2], ",", ""))
	if err != nil {
		return value, 0
	}
	return value, count
}

// Normalize converts one raw candidate into a Resource. Idempotent on its
// input; the raw value is never mutated.
func Normalize(raw domain.RawCandidate, sourceID string) domain.Resource {
	res := domain.Resource{
		Name:            cleanText(raw.Title),
		Platform:        cleanText(raw.Platform),
		URL:             strings.TrimSpace(raw.URL),
		Thumbnail:       cleanText(raw.Thumbnail),
		Kind:            raw.Kind,
		Cost:            costFromLabel(raw.CostLabel),
		Duration:        cleanText(raw.Duration),
		Overview:        cleanText(raw.Overview),
		PopularityScore: float64(raw.ViewCount),
		Source:          sourceID,
	}
	if res.Name == "" {
		res.Name = "Untitled"
	}
	if res.Platform == "" {
		res.Platform = "Unknown"
	}
	if res.Kind == "" {
		res.Kind = domain.KindCourse
	}
	if res.Overview == "" {
		res.Overview = cleanText(raw.Description)
	}
	res.RatingValue, res.ReviewCount = ParseRating(raw.RatingText)
	return res
}

// costFromLabel buckets a source's free-text cost label. Video platforms
// label everything "Free"; scraped course pages produce strings like
// "Free Course Online" or "Paid Certificate Option".
func costFromLabel(label string) domain.CostType {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case l == "" || l == strings.ToLower(notAvailable):
		return domain.CostUnknown
	case strings.Contains(l, "free"), strings.Contains(l, "self-paced"):
		return domain.CostFree
	case strings.Contains(l, "paid"), strings.Contains(l, "certificate"), strings.Contains(l, "nanodegree"):
		return domain.CostPaid
	default:
		return domain.CostUnknown
	}
}

// ParseISODuration converts an ISO 8601 duration (PT1H2M3S) to seconds.
func ParseISODuration(duration string) int64 {
	m := isoDurationRe.FindStringSubmatch(strings.TrimSpace(duration))
	if m == nil {
		return 0
	}
	var total int64
	for i, mult := range []int64{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0
		}
		total += n * mult
	}
	return total
}

// FormatDuration renders seconds as a human-readable string.
func FormatDuration(seconds int64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d seconds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%d minutes", seconds/60)
	default:
		hours := seconds / 3600
		minutes := (seconds % 3600) / 60
		if minutes == 0 {
			return fmt.Sprintf("%d hours", hours)
		}
		return fmt.Sprintf("%d hours %d minutes", hours, minutes)
	}
}

// cleanText trims and drops the scraper's "Not available" marker.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if s == notAvailable || s == "Not found" {
		return ""
	}
	return s
}
