package ports

import (
	"context"

	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

// PreloadHandle represents one consumer's interest in a track's cached audio.
// A handle that completes successfully holds one cache reference until
// Release is called.
type PreloadHandle interface {
	// TrackID returns the track this handle was created for.
	TrackID() domain.TrackID

	// Await blocks until the audio is cache-resident and returns its file
	// path, or the typed failure that ended the fetch.
	Await(ctx context.Context) (string, error)

	// Release drops this handle's interest. Before completion it detaches
	// from the shared fetch (aborting it only if no other consumer remains);
	// after successful completion it releases the cache reference.
	// Release is idempotent.
	Release()
}

// Preloader asynchronously materializes a track's audio into the cache store.
type Preloader interface {
	// Preload returns immediately with a handle for the track's audio.
	// Concurrent calls for the same track ID coalesce onto one fetch.
	Preload(track domain.Track) PreloadHandle
}
