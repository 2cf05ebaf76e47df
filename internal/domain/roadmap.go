package domain

// ResourceKind classifies a learning resource.
type ResourceKind string

const (
	KindVideo    ResourceKind = "video"
	KindPlaylist ResourceKind = "playlist"
	KindCourse   ResourceKind = "course"
)

// CostType is the pricing bucket a source reported for a resource.
type CostType string

const (
	CostFree    CostType = "free"
	CostPaid    CostType = "paid"
	CostUnknown CostType = "unknown"
)

// RawCandidate is the unnormalized shape a source adapter emits. Field
// coverage differs per source: the course scraper fills RatingText, CostLabel
// and Overview; the video API fills Description, ViewCount and DurationSeconds.
type RawCandidate struct {
	Title           string
	Platform        string
	URL             string
	Thumbnail       string
	Kind            ResourceKind
	RatingText      string
	Overview        string
	Description     string
	CostLabel       string
	Duration        string
	ViewCount       int64
	DurationSeconds int64
}

// Resource is one normalized candidate learning item.
type Resource struct {
	Name            string       `json:"name"`
	Platform        string       `json:"platform"`
	URL             string       `json:"url"`
	Thumbnail       string       `json:"thumbnail,omitempty"`
	Kind            ResourceKind `json:"kind"`
	Cost            CostType     `json:"cost"`
	Duration        string       `json:"duration,omitempty"`
	Overview        string       `json:"overview,omitempty"`
	PopularityScore float64      `json:"popularity_score"`
	RatingValue     float64      `json:"rating_value"`
	ReviewCount     int          `json:"review_count"`
	Source          string       `json:"source"`
	RelevanceScore  float64      `json:"relevance_score,omitempty"`
}

// Topic is one learning sub-area in resolver order.
type Topic struct {
	Name          string `json:"name"`
	IsSpecialized bool   `json:"is_specialized"`
}

// RoadmapStep binds one topic to one selected resource inside an option.
type RoadmapStep struct {
	StepNumber  int    `json:"step_number"`
	Topic       string `json:"topic"`
	Thumbnail   string `json:"thumbnail"`
	URL         string `json:"url"`
	Rating      int    `json:"rating"`
	ReviewCount int    `json:"reviews_count"`
	Completed   bool   `json:"completed"`
}

// RoadmapOption is one alternative path through the full topic list.
type RoadmapOption struct {
	OptionID   string        `json:"option_id"`
	OptionName string        `json:"option_name"`
	Steps      []RoadmapStep `json:"topics"`
}

// Roadmap is the aggregate produced by one generation request. Immutable
// after construction; the job layer owns it afterwards.
type Roadmap struct {
	Subject        string          `json:"topic"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Topics         []Topic         `json:"-"`
	SelectedOption string          `json:"selected_option"`
	Options        []RoadmapOption `json:"options"`
}
