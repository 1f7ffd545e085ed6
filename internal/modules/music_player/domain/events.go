package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// PlaybackStartedEvent is published when a track starts playing.
type PlaybackStartedEvent struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	Track     Track
}

// TrackFailedEvent is published when a track could not be resolved or fetched
// and the session advanced past it.
type TrackFailedEvent struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	Track     Track
	Err       error
}

// QueueEndedEvent is published when the last track finished and the session
// went idle.
type QueueEndedEvent struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
}
