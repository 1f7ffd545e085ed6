package ports

import (
	"context"

	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

// AudioFetcher downloads a track's audio into dir and returns the path of the
// produced file. The download/encode step is delegated to an external process;
// implementations must honor ctx cancellation and deadlines.
type AudioFetcher interface {
	Fetch(ctx context.Context, track domain.Track, dir string) (string, error)
}
