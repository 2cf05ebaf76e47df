package domain

import "time"

// JobStatus is the lifecycle of one roadmap generation job.
type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// JobState is the snapshot stored per job id. A job is written by exactly
// one task; reads are snapshot reads.
type JobState struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	Result    *Roadmap  `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is one turn in an assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is the per-id assistant history.
type Conversation struct {
	ID        string        `json:"conversation_id"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
}
