package normalize

import (
	"testing"

	"github.com/connecthub/roadmap-backend/internal/domain"
)

func TestParseRating(t *testing.T) {
	cases := []struct {
		name      string
		in        string
		wantValue float64
		wantCount int
	}{
		{"value with count", "4.5 (1,200 ratings)", 4.5, 1200},
		{"platform prefix", "Coursera Rating: 4.8 (32,456 ratings)", 4.8, 32456},
		{"single rating", "5.0 (1 rating)", 5.0, 1},
		{"no thousands separator", "3.9 (87 ratings)", 3.9, 87},
		{"loose format", "rated 4.2 by 950 learners", 4.2, 950},
		{"not available", "Not available", 0, 0},
		{"empty", "", 0, 0},
		{"prose without numbers", "Highly rated course", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			value, count := ParseRating(tc.in)
			if value != tc.wantValue || count != tc.wantCount {
				t.Fatalf("expected (%v, %d), got (%v, %d)", tc.wantValue, tc.wantCount, value, count)
			}
		})
	}
}

func TestNormalize_AppliesDefaults(t *testing.T) {
	res := Normalize(domain.RawCandidate{}, "classcentral")

	if res.Name != "Untitled" {
		t.Fatalf("expected Untitled, got %q", res.Name)
	}
	if res.Platform != "Unknown" {
		t.Fatalf("expected Unknown, got %q", res.Platform)
	}
	if res.Kind != domain.KindCourse {
		t.Fatalf("expected course kind, got %q", res.Kind)
	}
	if res.Cost != domain.CostUnknown {
		t.Fatalf("expected unknown cost, got %q", res.Cost)
	}
	if res.RatingValue != 0 || res.ReviewCount != 0 {
		t.Fatalf("expected zero rating, got %v/%d", res.RatingValue, res.ReviewCount)
	}
	if res.Source != "classcentral" {
		t.Fatalf("expected source classcentral, got %q", res.Source)
	}
}

func TestNormalize_DropsNotAvailableMarkers(t *testing.T) {
	res := Normalize(domain.RawCandidate{
		Title:      "Intro to Go",
		Platform:   "Not available",
		RatingText: "Not available",
		Overview:   "Not found",
		Duration:   "Not available",
	}, "classcentral")

	if res.Platform != "Unknown" {
		t.Fatalf("expected Unknown platform, got %q", res.Platform)
	}
	if res.RatingValue != 0 || res.ReviewCount != 0 {
		t.Fatalf("expected zero rating, got %v/%d", res.RatingValue, res.ReviewCount)
	}
	if res.Overview != "" || res.Duration != "" {
		t.Fatalf("expected empty overview/duration, got %q/%q", res.Overview, res.Duration)
	}
}

func TestNormalize_OverviewFallsBackToDescription(t *testing.T) {
	res := Normalize(domain.RawCandidate{
		Title:       "Algorithms",
		Description: "A course on algorithms.",
	}, "youtube")
	if res.Overview != "A course on algorithms." {
		t.Fatalf("expected description fallback, got %q", res.Overview)
	}
}

func TestNormalize_FullCandidate(t *testing.T) {
	raw := domain.RawCandidate{
		Title:      "  Machine Learning  ",
		Platform:   "Coursera",
		URL:        " https://example.com/ml ",
		Kind:       domain.KindVideo,
		RatingText: "4.7 (15,234 ratings)",
		CostLabel:  "Free Online Course",
		ViewCount:  120000,
	}
	res := Normalize(raw, "youtube")

	if res.Name != "Machine Learning" {
		t.Fatalf("expected trimmed name, got %q", res.Name)
	}
	if res.URL != "https://example.com/ml" {
		t.Fatalf("expected trimmed url, got %q", res.URL)
	}
	if res.RatingValue != 4.7 || res.ReviewCount != 15234 {
		t.Fatalf("expected 4.7/15234, got %v/%d", res.RatingValue, res.ReviewCount)
	}
	if res.Cost != domain.CostFree {
		t.Fatalf("expected free, got %q", res.Cost)
	}
	if res.PopularityScore != 120000 {
		t.Fatalf("expected popularity 120000, got %v", res.PopularityScore)
	}
	if res.Kind != domain.KindVideo {
		t.Fatalf("expected video kind, got %q", res.Kind)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := domain.RawCandidate{
		Title:      "Data Structures",
		Platform:   "edX",
		RatingText: "4.1 (300 ratings)",
		CostLabel:  "Paid Certificate",
	}
	first := Normalize(raw, "classcentral")
	second := Normalize(raw, "classcentral")
	if first != second {
		t.Fatalf("expected identical results, got %+v vs %+v", first, second)
	}
}

func TestCostFromLabel(t *testing.T) {
	cases := []struct {
		in   string
		want domain.CostType
	}{
		{"Free Online Course", domain.CostFree},
		{"Self-Paced", domain.CostFree},
		{"Paid Certificate Option", domain.CostPaid},
		{"Nanodegree Program", domain.CostPaid},
		{"Not available", domain.CostUnknown},
		{"", domain.CostUnknown},
		{"Subscription", domain.CostUnknown},
	}
	for _, tc := range cases {
		if got := costFromLabel(tc.in); got != tc.want {
			t.Fatalf("costFromLabel(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestParseISODuration(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"PT1H2M3S", 3723},
		{"PT45S", 45},
		{"PT10M", 600},
		{"PT2H", 7200},
		{"garbage", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := ParseISODuration(tc.in); got != tc.want {
			t.Fatalf("ParseISODuration(%q): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{45, "45 seconds"},
		{600, "10 minutes"},
		{7200, "2 hours"},
		{3723, "1 hours 2 minutes"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Fatalf("FormatDuration(%d): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
