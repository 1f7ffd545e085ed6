package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// Transport defines the interface to the chat platform's voice connection and
// audio-frame delivery. Implementations own the encoder process; the session
// core only hands over a cached audio file path.
type Transport interface {
	// Connect joins the bot to the given voice channel.
	Connect(ctx context.Context, guildID, channelID snowflake.ID) error

	// Play starts playback of the audio file at path and returns once the
	// playback loop is spawned; it must not block on the audio itself.
	// onFinished is invoked exactly once when playback ends, whether it ran
	// to completion, failed, or was stopped via StopAudio, and never
	// synchronously from within Play. Play is called at most once per track.
	Play(ctx context.Context, guildID snowflake.ID, path string, onFinished func(err error)) error

	// StopAudio aborts the in-flight playback, if any.
	StopAudio(guildID snowflake.ID) error

	// Pause suspends frame delivery. Must not block; implementations flip an
	// in-process flag consulted by the send loop.
	Pause(guildID snowflake.ID) error

	// Resume reverses Pause. Must not block.
	Resume(guildID snowflake.ID) error

	// Disconnect leaves the voice channel.
	Disconnect(ctx context.Context, guildID snowflake.ID) error
}
