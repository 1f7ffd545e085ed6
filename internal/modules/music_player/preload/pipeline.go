// Package preload asynchronously materializes resolved tracks into the audio
// cache ahead of playback. Concurrent requests for the same track coalesce
// onto a single in-flight fetch; every successful handle holds one cache
// reference until released.
package preload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/groovebot/internal/modules/music_player/cache"
	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

// FetchError reports that downloading an already-queued track failed. The
// session logs it, skips the track, and tries the next one.
type FetchError struct {
	TrackID domain.TrackID
	Title   string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %q: %v", e.Title, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// fetchState is the shared future for one in-flight fetch. waiters counts the
// handles still interested in the result.
type fetchState struct {
	done    chan struct{}
	path    string
	err     error
	waiters int
	cancel  context.CancelFunc
}

// Pipeline implements ports.Preloader on top of the cache store and an audio
// fetcher.
type Pipeline struct {
	store   *cache.Store
	fetcher ports.AudioFetcher
	timeout time.Duration

	mu       sync.Mutex
	inflight map[domain.TrackID]*fetchState
}

var _ ports.Preloader = (*Pipeline)(nil)

// New creates a Pipeline. Every fetch carries the given deadline so a stuck
// download yields a failure instead of a hang.
func New(store *cache.Store, fetcher ports.AudioFetcher, timeout time.Duration) *Pipeline {
	return &Pipeline{
		store:    store,
		fetcher:  fetcher,
		timeout:  timeout,
		inflight: make(map[domain.TrackID]*fetchState),
	}
}

// Preload returns a handle for the track's cached audio. If the track is
// already cache-resident the handle completes immediately with a fresh cache
// reference. Otherwise the caller joins the in-flight fetch for that track,
// starting one if none exists. At most one fetch per track ID is in flight
// process-wide.
func (p *Pipeline) Preload(track domain.Track) ports.PreloadHandle {
	p.mu.Lock()
	defer p.mu.Unlock()

	if st, ok := p.inflight[track.ID]; ok {
		st.waiters++
		return &Handle{pipeline: p, track: track, state: st}
	}

	if path, ok := p.store.Acquire(track.ID); ok {
		st := &fetchState{done: make(chan struct{}), path: path, waiters: 1}
		close(st.done)
		return &Handle{pipeline: p, track: track, state: st}
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	st := &fetchState{done: make(chan struct{}), waiters: 1, cancel: cancel}
	p.inflight[track.ID] = st

	go p.fetch(ctx, track, st)

	return &Handle{pipeline: p, track: track, state: st}
}

// fetch downloads the track into a temp area and installs it into the cache,
// acquiring one reference per surviving waiter.
func (p *Pipeline) fetch(ctx context.Context, track domain.Track, st *fetchState) {
	defer st.cancel()

	slog.Info("preloading track", "track_id", track.ID, "title", track.Title)

	src, err := p.fetcher.Fetch(ctx, track, p.store.Root())

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, track.ID)

	if err != nil {
		st.err = &FetchError{TrackID: track.ID, Title: track.Title, Err: err}
		close(st.done)
		slog.Warn("preload failed", "track_id", track.ID, "error", err)
		return
	}

	installed, err := p.store.Install(track.ID, src)
	if err != nil {
		st.err = err
		close(st.done)
		return
	}

	// Install grants one reference; take one more for each remaining waiter
	// beyond the first. If every waiter released before completion, drop the
	// install reference and let the grace-period sweep reclaim the file.
	for i := 1; i < st.waiters; i++ {
		p.store.Acquire(track.ID)
	}
	if st.waiters == 0 {
		p.store.Release(track.ID)
	}

	st.path = installed
	close(st.done)
	slog.Info("preloaded track", "track_id", track.ID, "path", installed)
}

// Handle is one consumer's interest in a preload result.
type Handle struct {
	pipeline *Pipeline
	track    domain.Track
	state    *fetchState

	releaseOnce sync.Once
}

var _ ports.PreloadHandle = (*Handle)(nil)

// TrackID returns the track this handle was created for.
func (h *Handle) TrackID() domain.TrackID {
	return h.track.ID
}

// Await blocks until the fetch completes or ctx is done.
func (h *Handle) Await(ctx context.Context) (string, error) {
	select {
	case <-h.state.done:
		return h.state.path, h.state.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Release drops this handle's interest in the result. If the fetch already
// succeeded, the handle's cache reference is released. If it is still in
// flight, the handle detaches; the fetch is aborted only when no other
// consumer remains.
func (h *Handle) Release() {
	h.releaseOnce.Do(func() {
		p := h.pipeline
		p.mu.Lock()
		select {
		case <-h.state.done:
			p.mu.Unlock()
			if h.state.err == nil {
				p.store.Release(h.track.ID)
			}
		default:
			h.state.waiters--
			lastOut := h.state.waiters == 0
			p.mu.Unlock()
			if lastOut && h.state.cancel != nil {
				h.state.cancel()
			}
		}
	})
}
