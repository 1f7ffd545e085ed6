package usecases

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

// EnqueueInput contains the input for the EnqueuePlay use case.
type EnqueueInput struct {
	Query          string
	RequesterID    snowflake.ID
	RequesterName  string
	ChannelID      snowflake.ID // text channel for notifications
	VoiceChannelID snowflake.ID // voice channel to connect on first play
}

// EnqueueOutput contains the result of the EnqueuePlay use case.
type EnqueueOutput struct {
	Track    domain.Track
	Position int // 0 = now playing, 1+ = queue position
}

// PlayPlaylistInput contains the input for the PlayPlaylist use case.
type PlayPlaylistInput struct {
	Name           string // may carry the private marker suffix
	RequesterID    snowflake.ID
	RequesterName  string
	ChannelID      snowflake.ID
	VoiceChannelID snowflake.ID
}

// PlayPlaylistOutput contains the result of the PlayPlaylist use case.
type PlayPlaylistOutput struct {
	Enqueued int
	Failed   int // entries that could not be resolved
}

// currentTrack binds the active track to the handle holding its cache
// reference.
type currentTrack struct {
	track  domain.Track
	handle ports.PreloadHandle
}

// Session is the per-guild playback state machine. All state transitions for
// one guild are serialized by the session mutex; resolution and downloads
// happen outside it so slow I/O never blocks other commands' critical
// sections.
type Session struct {
	guildID snowflake.ID

	transport ports.Transport
	resolver  ports.TrackResolver
	preloader ports.Preloader
	playlists ports.PlaylistStore
	publisher ports.EventPublisher

	mu        sync.Mutex
	status    domain.Status
	queue     domain.Queue
	current   *currentTrack
	next      ports.PreloadHandle // preload for the queue head
	playGen   uint64              // invalidates stale transport callbacks
	channelID snowflake.ID
	idleSince time.Time
}

// NewSession creates an Idle session for the given guild.
func NewSession(
	guildID snowflake.ID,
	transport ports.Transport,
	resolver ports.TrackResolver,
	preloader ports.Preloader,
	playlists ports.PlaylistStore,
	publisher ports.EventPublisher,
) *Session {
	return &Session{
		guildID:   guildID,
		transport: transport,
		resolver:  resolver,
		preloader: preloader,
		playlists: playlists,
		publisher: publisher,
		status:    domain.StatusIdle,
		queue:     domain.NewQueue(),
		idleSince: time.Now(),
	}
}

// GuildID returns the guild this session belongs to.
func (s *Session) GuildID() snowflake.ID {
	return s.guildID
}

// Status returns the current playback status.
func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Current returns a copy of the active track, or nil when idle.
func (s *Session) Current() *domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	track := s.current.track
	return &track
}

// QueueTracks returns a copy of the pending queue in order.
func (s *Session) QueueTracks() []domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.List()
}

// EnqueuePlay resolves the query and either starts playback (if the session is
// idle) or appends the track at the queue tail. Resolution happens before the
// session lock is taken; a resolution failure mutates nothing. When playback
// starts, the call blocks until the track's audio is cache-resident and the
// transport accepted it.
func (s *Session) EnqueuePlay(ctx context.Context, input EnqueueInput) (*EnqueueOutput, error) {
	resolved, err := s.resolver.Resolve(ctx, input.Query)
	if err != nil {
		return nil, err
	}

	track := domain.NewTrack(
		domain.DeriveTrackID(resolved.SourceID, resolved.SourceURL),
		resolved.Title,
		resolved.Duration,
		resolved.SourceURL,
		input.RequesterID,
		input.RequesterName,
	)

	s.mu.Lock()
	if s.status == domain.StatusStopped {
		s.mu.Unlock()
		return nil, ErrSessionStopped
	}
	if input.ChannelID != 0 {
		s.channelID = input.ChannelID
	}

	var (
		position int
		startGen uint64
		starting bool
	)
	if s.current == nil {
		// Idle: bind as current and start. Concurrent EnqueuePlay calls are
		// serialized here, so only the first one starts playback.
		s.current = &currentTrack{track: track}
		s.status = domain.StatusPlaying
		s.playGen++
		startGen = s.playGen
		starting = true
	} else {
		position = s.queue.Append(track)
	}
	s.mu.Unlock()

	if starting {
		if input.VoiceChannelID != 0 {
			if err := s.transport.Connect(ctx, s.guildID, input.VoiceChannelID); err != nil {
				s.mu.Lock()
				if s.playGen == startGen {
					s.current = nil
					s.status = domain.StatusIdle
					s.idleSince = time.Now()
					s.playGen++
				}
				s.mu.Unlock()
				return nil, err
			}
		}
		if err := s.startPlayback(ctx, startGen); err != nil {
			return nil, err
		}
	} else {
		s.ensureNextPreload()
	}

	return &EnqueueOutput{Track: track, Position: position}, nil
}

// PlayPlaylist loads the named playlist, enforcing private-playlist ownership
// before any queue mutation, and expands every entry through the same path as
// EnqueuePlay, preserving playlist order. Entries that fail to resolve are
// skipped and counted.
func (s *Session) PlayPlaylist(
	ctx context.Context,
	input PlayPlaylistInput,
) (*PlayPlaylistOutput, error) {
	scope, name := domain.ScopeFor(s.guildID, input.RequesterID, input.Name)

	playlist, err := s.playlists.Load(ctx, scope, name)
	if err != nil {
		return nil, err
	}
	if len(playlist.Entries) == 0 {
		return nil, ErrEmptyPlaylist
	}

	out := &PlayPlaylistOutput{}
	for _, entry := range playlist.Entries {
		_, err := s.EnqueuePlay(ctx, EnqueueInput{
			Query:          entry,
			RequesterID:    input.RequesterID,
			RequesterName:  input.RequesterName,
			ChannelID:      input.ChannelID,
			VoiceChannelID: input.VoiceChannelID,
		})
		if err != nil {
			if errors.Is(err, ErrSessionStopped) {
				return out, err
			}
			slog.Warn("skipping playlist entry",
				"guild_id", s.guildID, "entry", entry, "error", err)
			out.Failed++
			continue
		}
		out.Enqueued++
	}

	return out, nil
}

// Skip ends the current track and advances to the next queue entry.
func (s *Session) Skip(ctx context.Context) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return ErrNotPlaying
	}
	gen := s.playGen
	s.mu.Unlock()

	if err := s.transport.StopAudio(s.guildID); err != nil {
		slog.Warn("failed to stop audio on skip", "guild_id", s.guildID, "error", err)
	}

	// The transport's finished callback for the stopped track carries a stale
	// generation and is ignored; this call performs the single advance.
	return s.advanceFrom(ctx, gen)
}

// Advance transitions past the current track: its cache reference is
// released, the queue head (if any) becomes current, and preload is kicked
// off for the new head of queue. With an empty queue the session goes idle.
func (s *Session) Advance(ctx context.Context) error {
	s.mu.Lock()
	gen := s.playGen
	s.mu.Unlock()
	return s.advanceFrom(ctx, gen)
}

// Pause suspends playback. Valid only while playing.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case domain.StatusPlaying:
	case domain.StatusPaused:
		return ErrAlreadyPaused
	default:
		return ErrNotPlaying
	}

	if err := s.transport.Pause(s.guildID); err != nil {
		return err
	}
	s.status = domain.StatusPaused
	return nil
}

// Resume continues paused playback. Valid only while paused.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case domain.StatusPaused:
	case domain.StatusPlaying:
		return ErrNotPaused
	default:
		return ErrNotPlaying
	}

	if err := s.transport.Resume(s.guildID); err != nil {
		return err
	}
	s.status = domain.StatusPlaying
	return nil
}

// Stop cancels any in-flight preload, releases all held cache references,
// clears the queue, disconnects, and transitions to the terminal Stopped
// state. The caller removes the session from the registry afterwards.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.status == domain.StatusStopped {
		s.mu.Unlock()
		return nil
	}
	s.playGen++ // invalidate pending transport callbacks
	if s.current != nil {
		if s.current.handle != nil {
			s.current.handle.Release()
		}
		s.current = nil
	}
	if s.next != nil {
		s.next.Release()
		s.next = nil
	}
	cleared := s.queue.Clear()
	s.status = domain.StatusStopped
	s.mu.Unlock()

	if err := s.transport.StopAudio(s.guildID); err != nil {
		slog.Warn("failed to stop audio", "guild_id", s.guildID, "error", err)
	}
	if err := s.transport.Disconnect(ctx, s.guildID); err != nil {
		slog.Warn("failed to disconnect", "guild_id", s.guildID, "error", err)
	}

	slog.Info("session stopped", "guild_id", s.guildID, "cleared_tracks", cleared)
	return nil
}

// idleFor reports how long the session has been idle with an empty queue.
func (s *Session) idleFor(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusIdle || !s.queue.IsEmpty() {
		return 0, false
	}
	return now.Sub(s.idleSince), true
}

// advanceFrom performs the advance for the given play generation. A stale
// generation means another operation already advanced (or the session
// stopped); the call is then a no-op, so each track transition releases
// exactly one cache reference.
func (s *Session) advanceFrom(ctx context.Context, gen uint64) error {
	s.mu.Lock()
	if s.status == domain.StatusStopped || gen != s.playGen {
		s.mu.Unlock()
		return nil
	}

	if s.current != nil {
		if s.current.handle != nil {
			s.current.handle.Release()
		}
		s.current = nil
	}
	s.playGen++
	newGen := s.playGen

	head := s.queue.PopHead()
	if head == nil {
		s.status = domain.StatusIdle
		s.idleSince = time.Now()
		if s.next != nil {
			s.next.Release()
			s.next = nil
		}
		channelID := s.channelID
		s.mu.Unlock()

		s.publisher.PublishQueueEnded(domain.QueueEndedEvent{
			GuildID:   s.guildID,
			ChannelID: channelID,
		})
		return nil
	}

	var handle ports.PreloadHandle
	if s.next != nil && s.next.TrackID() == head.ID {
		handle = s.next
		s.next = nil
	}
	s.current = &currentTrack{track: *head, handle: handle}
	s.status = domain.StatusPlaying
	s.mu.Unlock()

	return s.startPlayback(ctx, newGen)
}

// startPlayback waits for the current track's audio to become cache-resident
// and hands it to the transport. It holds the session lock only for the state
// transitions around the wait. A fetch failure is surfaced as a TrackFailed
// event and the session advances past the track instead of stalling.
func (s *Session) startPlayback(ctx context.Context, gen uint64) error {
	s.mu.Lock()
	if gen != s.playGen || s.current == nil {
		s.mu.Unlock()
		return nil
	}
	if s.current.handle == nil {
		s.current.handle = s.preloader.Preload(s.current.track)
	}
	track := s.current.track
	handle := s.current.handle
	s.mu.Unlock()

	path, err := handle.Await(ctx)
	if err != nil {
		return s.failCurrent(ctx, gen, track, err)
	}

	s.mu.Lock()
	if gen != s.playGen || s.current == nil {
		// Skipped or stopped while downloading; the advance that won already
		// released our handle.
		s.mu.Unlock()
		return nil
	}
	channelID := s.channelID
	// A pause issued while the track was still downloading must survive the
	// handoff: Play resets the transport's pause flag for the new track.
	paused := s.status == domain.StatusPaused
	playErr := s.transport.Play(ctx, s.guildID, path, func(err error) {
		s.onFinished(gen, err)
	})
	if playErr == nil && paused {
		if err := s.transport.Pause(s.guildID); err != nil {
			slog.Warn("failed to re-apply pause", "guild_id", s.guildID, "error", err)
		}
	}
	s.mu.Unlock()

	if playErr != nil {
		return s.failCurrent(ctx, gen, track, playErr)
	}

	s.publisher.PublishPlaybackStarted(domain.PlaybackStartedEvent{
		GuildID:   s.guildID,
		ChannelID: channelID,
		Track:     track,
	})
	s.ensureNextPreload()
	return nil
}

// failCurrent reports a per-track failure and advances past it so the queue
// keeps moving.
func (s *Session) failCurrent(
	ctx context.Context,
	gen uint64,
	track domain.Track,
	cause error,
) error {
	slog.Warn("track playback failed",
		"guild_id", s.guildID, "track_id", track.ID, "error", cause)

	s.mu.Lock()
	channelID := s.channelID
	s.mu.Unlock()

	s.publisher.PublishTrackFailed(domain.TrackFailedEvent{
		GuildID:   s.guildID,
		ChannelID: channelID,
		Track:     track,
		Err:       cause,
	})
	return s.advanceFrom(ctx, gen)
}

// onFinished is invoked by the transport when playback of a track ends.
func (s *Session) onFinished(gen uint64, err error) {
	if err != nil {
		slog.Warn("playback ended with error", "guild_id", s.guildID, "error", err)
	}
	if err := s.advanceFrom(context.Background(), gen); err != nil {
		slog.Error("failed to advance after track end", "guild_id", s.guildID, "error", err)
	}
}

// ensureNextPreload keeps the preload pipeline pointed at the queue head.
func (s *Session) ensureNextPreload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	head := s.queue.Peek()
	if head == nil {
		if s.next != nil {
			s.next.Release()
			s.next = nil
		}
		return
	}
	if s.next != nil {
		if s.next.TrackID() == head.ID {
			return
		}
		s.next.Release()
	}
	s.next = s.preloader.Preload(*head)
}
