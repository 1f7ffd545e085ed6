package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

// nowPlayingMessage identifies a previously sent now-playing notification.
type nowPlayingMessage struct {
	channelID snowflake.ID
	messageID snowflake.ID
}

// NotificationEventHandler consumes playback events and turns them into
// Discord notifications. It keeps track of the last now-playing message per
// guild so stale messages can be deleted when the track changes.
type NotificationEventHandler struct {
	notifier ports.NotificationSender
	stream   ports.EventStream

	mu       sync.Mutex
	messages map[snowflake.ID]nowPlayingMessage

	wg   sync.WaitGroup
	done chan struct{}
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
func NewNotificationEventHandler(
	notifier ports.NotificationSender,
	stream ports.EventStream,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		notifier: notifier,
		stream:   stream,
		messages: make(map[snowflake.ID]nowPlayingMessage),
		done:     make(chan struct{}),
	}
}

// Start begins listening for events in background goroutines.
func (h *NotificationEventHandler) Start(ctx context.Context) {
	h.wg.Add(3)

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.stream.PlaybackStarted():
				if !ok {
					return
				}
				h.handlePlaybackStarted(event)
			}
		}
	}()

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.stream.TrackFailed():
				if !ok {
					return
				}
				h.handleTrackFailed(event)
			}
		}
	}()

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.stream.QueueEnded():
				if !ok {
					return
				}
				h.handleQueueEnded(event)
			}
		}
	}()

	slog.Debug("notification event handler started")
}

// Stop stops the event handler and waits for goroutines to finish.
func (h *NotificationEventHandler) Stop() {
	close(h.done)
	h.wg.Wait()
	slog.Debug("notification event handler stopped")
}

func (h *NotificationEventHandler) handlePlaybackStarted(event domain.PlaybackStartedEvent) {
	h.deleteStaleMessage(event.GuildID)

	slog.Debug("sending now playing notification",
		"guild", event.GuildID,
		"track", event.Track.Title,
	)

	messageID, err := h.notifier.SendNowPlaying(event.ChannelID, &ports.NowPlayingInfo{
		Identifier:    string(event.Track.ID),
		Title:         event.Track.Title,
		Duration:      event.Track.FormattedDuration(),
		SourceURL:     event.Track.SourceURL,
		RequesterID:   event.Track.RequesterID,
		RequesterName: event.Track.RequesterName,
		EnqueuedAt:    event.Track.EnqueuedAt,
	})
	if err != nil {
		slog.Error("failed to send now playing notification",
			"guild", event.GuildID,
			"error", err,
		)
		return
	}

	h.mu.Lock()
	h.messages[event.GuildID] = nowPlayingMessage{
		channelID: event.ChannelID,
		messageID: messageID,
	}
	h.mu.Unlock()
}

func (h *NotificationEventHandler) handleTrackFailed(event domain.TrackFailedEvent) {
	h.deleteStaleMessage(event.GuildID)

	if err := h.notifier.SendTrackFailed(event.ChannelID, event.Track.Title, event.Err); err != nil {
		slog.Error("failed to send track failure notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleQueueEnded(event domain.QueueEndedEvent) {
	h.deleteStaleMessage(event.GuildID)

	if err := h.notifier.SendQueueEnded(event.ChannelID); err != nil {
		slog.Error("failed to send queue ended notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

// deleteStaleMessage removes the previous now-playing message for the guild,
// if any.
func (h *NotificationEventHandler) deleteStaleMessage(guildID snowflake.ID) {
	h.mu.Lock()
	msg, ok := h.messages[guildID]
	if ok {
		delete(h.messages, guildID)
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	if err := h.notifier.DeleteMessage(msg.channelID, msg.messageID); err != nil {
		slog.Warn("failed to delete previous now playing message",
			"guild", guildID,
			"message_id", msg.messageID,
			"error", err,
		)
	}
}
