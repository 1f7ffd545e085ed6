package infrastructure

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/ppalone/ytsearch"
	"golang.org/x/time/rate"

	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// YtdlpResolver resolves queries and URLs to track metadata via yt-dlp, using
// a text search upstream for plain queries. Upstream calls are rate limited
// and carry a bounded deadline.
type YtdlpResolver struct {
	limiter *rate.Limiter
	timeout time.Duration
}

var _ ports.TrackResolver = (*YtdlpResolver)(nil)

// NewYtdlpResolver creates a resolver with the given per-call deadline.
func NewYtdlpResolver(timeout time.Duration) *YtdlpResolver {
	return &YtdlpResolver{
		// yt-dlp and the search endpoint throttle aggressively; keep a small
		// steady rate with room for short bursts.
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
		timeout: timeout,
	}
}

// Resolve turns a search query or URL into track metadata.
func (r *YtdlpResolver) Resolve(ctx context.Context, query string) (*ports.ResolvedTrack, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &ports.ResolutionError{Query: query, Err: err}
	}

	url := query
	if !isURL(query) {
		found, err := searchFirst(ctx, query)
		if err != nil {
			return nil, &ports.ResolutionError{Query: query, Err: err}
		}
		url = found
	}

	resolved, err := extractMetadata(ctx, url)
	if err != nil {
		return nil, &ports.ResolutionError{Query: query, Err: err}
	}
	return resolved, nil
}

func isURL(query string) bool {
	return strings.HasPrefix(query, "http://") || strings.HasPrefix(query, "https://")
}

// searchFirst returns the watch URL of the first search hit for a plain query.
func searchFirst(ctx context.Context, query string) (string, error) {
	c := ytsearch.NewClient(nil)
	res, err := c.Search(ctx, query)
	if err != nil {
		return "", err
	}
	if len(res.Results) == 0 {
		return "", errors.New("no results found")
	}
	return watchURLPrefix + res.Results[0].VideoID, nil
}

// extractMetadata asks yt-dlp for the track's identity without downloading.
func extractMetadata(ctx context.Context, url string) (*ports.ResolvedTrack, error) {
	res, err := ytdlp.New().
		Print("%(id)s\t%(title)s\t%(duration)s\t%(webpage_url)s").
		SkipDownload().
		NoPlaylist().
		NoWarnings().
		IgnoreConfig().
		Run(ctx, url)
	if err != nil {
		return nil, err
	}

	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			continue
		}
		duration, _ := time.ParseDuration(fields[2] + "s")
		return &ports.ResolvedTrack{
			SourceID:  fields[0],
			Title:     fields[1],
			Duration:  duration,
			SourceURL: fields[3],
		}, nil
	}
	return nil, errors.New("failed to parse metadata")
}
