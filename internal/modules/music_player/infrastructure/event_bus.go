package infrastructure

import (
	"log/slog"
	"sync"

	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

// DefaultEventBufferSize is the default buffer size for event channels.
const DefaultEventBufferSize = 100

// Compile-time check that ChannelEventBus implements ports.EventPublisher.
var _ ports.EventPublisher = (*ChannelEventBus)(nil)

// ChannelEventBus provides a channel-based event bus for async event handling.
// Publishing never blocks the session core: when a buffer is full the event is
// dropped with a warning.
type ChannelEventBus struct {
	playbackStarted chan domain.PlaybackStartedEvent
	trackFailed     chan domain.TrackFailedEvent
	queueEnded      chan domain.QueueEndedEvent

	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a ChannelEventBus with the given buffer size.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}
	return &ChannelEventBus{
		playbackStarted: make(chan domain.PlaybackStartedEvent, bufferSize),
		trackFailed:     make(chan domain.TrackFailedEvent, bufferSize),
		queueEnded:      make(chan domain.QueueEndedEvent, bufferSize),
	}
}

// PublishPlaybackStarted publishes a PlaybackStartedEvent.
func (b *ChannelEventBus) PublishPlaybackStarted(event domain.PlaybackStartedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "PlaybackStarted")
		return
	}
	select {
	case b.playbackStarted <- event:
	default:
		slog.Warn("event buffer full, dropping event", "type", "PlaybackStarted")
	}
}

// PublishTrackFailed publishes a TrackFailedEvent.
func (b *ChannelEventBus) PublishTrackFailed(event domain.TrackFailedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "TrackFailed")
		return
	}
	select {
	case b.trackFailed <- event:
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackFailed")
	}
}

// PublishQueueEnded publishes a QueueEndedEvent.
func (b *ChannelEventBus) PublishQueueEnded(event domain.QueueEndedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "QueueEnded")
		return
	}
	select {
	case b.queueEnded <- event:
	default:
		slog.Warn("event buffer full, dropping event", "type", "QueueEnded")
	}
}

// PlaybackStarted returns the channel for PlaybackStartedEvent.
func (b *ChannelEventBus) PlaybackStarted() <-chan domain.PlaybackStartedEvent {
	return b.playbackStarted
}

// TrackFailed returns the channel for TrackFailedEvent.
func (b *ChannelEventBus) TrackFailed() <-chan domain.TrackFailedEvent {
	return b.trackFailed
}

// QueueEnded returns the channel for QueueEndedEvent.
func (b *ChannelEventBus) QueueEnded() <-chan domain.QueueEndedEvent {
	return b.queueEnded
}

// Close closes all event channels. After Close, publishing no longer sends.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.playbackStarted)
	close(b.trackFailed)
	close(b.queueEnded)
}
