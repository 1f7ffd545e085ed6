package ports

import "github.com/sglre6355/groovebot/internal/modules/music_player/domain"

// EventPublisher defines the interface for publishing playback events
// asynchronously. Publishing must never block the session core.
type EventPublisher interface {
	PublishPlaybackStarted(event domain.PlaybackStartedEvent)
	PublishTrackFailed(event domain.TrackFailedEvent)
	PublishQueueEnded(event domain.QueueEndedEvent)
}

// EventStream exposes the consumer side of the event bus. Channels are closed
// when the bus shuts down.
type EventStream interface {
	PlaybackStarted() <-chan domain.PlaybackStartedEvent
	TrackFailed() <-chan domain.TrackFailedEvent
	QueueEnded() <-chan domain.QueueEndedEvent
}
