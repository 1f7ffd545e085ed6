package ports

import (
	"context"
	"fmt"
	"time"
)

// ResolvedTrack is the metadata returned by the media-resolution service.
type ResolvedTrack struct {
	SourceID  string // source-assigned identifier, may be empty
	Title     string
	Duration  time.Duration
	SourceURL string // streamable/downloadable media URL
}

// TrackResolver defines the interface to the external media-resolution
// service: given a search query or URL it returns track metadata.
type TrackResolver interface {
	Resolve(ctx context.Context, query string) (*ResolvedTrack, error)
}

// ResolutionError reports that a query could not be resolved (not found or
// upstream unavailable). It causes no queue mutation.
type ResolutionError struct {
	Query string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %q: %v", e.Query, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
