// Package sources wraps each external resource-discovery mechanism behind a
// uniform fetch contract. An adapter owns its own bounded retries; a failed
// fetch surfaces as an error wrapping errs.ErrSourceUnavailable, while zero
// matches is a valid empty result.
package sources

import (
	"context"

	"github.com/connecthub/roadmap-backend/internal/domain"
)

// Source produces raw candidate resources for one topic. Any network or
// browser-session state is scoped to a single Fetch call and released on
// every path, including cancellation.
type Source interface {
	Name() string
	Fetch(ctx context.Context, topic string) ([]domain.RawCandidate, error)
}

// FetchOptions carries per-request knobs shared by all adapters.
type FetchOptions struct {
	Language   string
	RegionCode string
}

// OptionedSource is implemented by adapters whose results depend on the
// requester's language or region.
type OptionedSource interface {
	Source
	FetchWithOptions(ctx context.Context, topic string, opts FetchOptions) ([]domain.RawCandidate, error)
}
