package ports

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// NowPlayingInfo contains the information needed to render a "Now Playing"
// notification.
type NowPlayingInfo struct {
	Identifier    string
	Title         string
	Duration      string
	SourceURL     string
	RequesterID   snowflake.ID
	RequesterName string
	EnqueuedAt    time.Time
}

// NotificationSender defines the interface for sending playback notifications
// to text channels.
type NotificationSender interface {
	// SendNowPlaying sends a now-playing notification and returns the sent
	// message ID so it can be deleted later.
	SendNowPlaying(channelID snowflake.ID, info *NowPlayingInfo) (snowflake.ID, error)

	// SendTrackFailed notifies that a track was skipped because it could not
	// be played.
	SendTrackFailed(channelID snowflake.ID, title string, cause error) error

	// SendQueueEnded notifies that the queue has been exhausted.
	SendQueueEnded(channelID snowflake.ID) error

	// DeleteMessage deletes a previously sent notification message.
	DeleteMessage(channelID, messageID snowflake.ID) error
}
