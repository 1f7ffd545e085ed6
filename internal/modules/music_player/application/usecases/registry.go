package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
)

// Dependencies bundles the collaborators injected into every session.
type Dependencies struct {
	Transport ports.Transport
	Resolver  ports.TrackResolver
	Preloader ports.Preloader
	Playlists ports.PlaylistStore
	Publisher ports.EventPublisher
}

// Registry is the process-wide map from guild ID to its session. The registry
// mutex protects only the map and is never held across a session operation.
type Registry struct {
	deps        Dependencies
	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[snowflake.ID]*Session

	sweepOnce sync.Once
	stop      chan struct{}
}

// NewRegistry creates a Registry. Sessions idle (no playback, empty queue)
// for longer than idleTimeout are stopped and removed by the sweep.
func NewRegistry(deps Dependencies, idleTimeout time.Duration) *Registry {
	return &Registry{
		deps:        deps,
		idleTimeout: idleTimeout,
		sessions:    make(map[snowflake.ID]*Session),
		stop:        make(chan struct{}),
	}
}

// GetOrCreate returns the session for the guild, creating it on first use.
// Concurrent calls for the same unseen guild produce a single session.
func (r *Registry) GetOrCreate(guildID snowflake.ID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[guildID]; ok {
		return session
	}
	session := NewSession(
		guildID,
		r.deps.Transport,
		r.deps.Resolver,
		r.deps.Preloader,
		r.deps.Playlists,
		r.deps.Publisher,
	)
	r.sessions[guildID] = session
	slog.Debug("created session", "guild_id", guildID)
	return session
}

// Get returns the session for the guild, or nil if none exists.
func (r *Registry) Get(guildID snowflake.ID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[guildID]
}

// Remove drops the session for the guild from the registry. The session must
// already be stopped.
func (r *Registry) Remove(guildID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, guildID)
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Stop stops the guild's session and removes it. Returns ErrNotPlaying if no
// session exists for the guild.
func (r *Registry) Stop(ctx context.Context, guildID snowflake.ID) error {
	session := r.Get(guildID)
	if session == nil {
		return ErrNotPlaying
	}
	if err := session.Stop(ctx); err != nil {
		return err
	}
	r.Remove(guildID)
	return nil
}

// StartIdleSweep launches the periodic idle-session reaper. Safe to call once.
func (r *Registry) StartIdleSweep(interval time.Duration) {
	r.sweepOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					r.sweepIdle(time.Now())
				case <-r.stop:
					return
				}
			}
		}()
	})
}

// sweepIdle stops and removes sessions idle past the timeout. Session checks
// run without the registry lock held.
func (r *Registry) sweepIdle(now time.Time) {
	r.mu.Lock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		snapshot = append(snapshot, session)
	}
	r.mu.Unlock()

	for _, session := range snapshot {
		idle, ok := session.idleFor(now)
		if !ok || idle < r.idleTimeout {
			continue
		}
		slog.Info("removing idle session", "guild_id", session.GuildID(), "idle", idle)
		if err := session.Stop(context.Background()); err != nil {
			slog.Warn("failed to stop idle session",
				"guild_id", session.GuildID(), "error", err)
			continue
		}
		r.Remove(session.GuildID())
	}
}

// Close stops the idle sweep and every live session.
func (r *Registry) Close(ctx context.Context) {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}

	r.mu.Lock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		snapshot = append(snapshot, session)
	}
	r.sessions = make(map[snowflake.ID]*Session)
	r.mu.Unlock()

	for _, session := range snapshot {
		if err := session.Stop(ctx); err != nil {
			slog.Warn("failed to stop session on shutdown",
				"guild_id", session.GuildID(), "error", err)
		}
	}
}
