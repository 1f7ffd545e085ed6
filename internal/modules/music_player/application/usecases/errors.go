package usecases

import "errors"

// Precondition errors for the music player module. These are reported to the
// user and cause no state change.
var (
	// ErrNotPlaying is returned when an operation requires an active track.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrAlreadyPaused is returned when trying to pause while already paused.
	ErrAlreadyPaused = errors.New("playback is already paused")

	// ErrNotPaused is returned when trying to resume while not paused.
	ErrNotPaused = errors.New("playback is not paused")

	// ErrSessionStopped is returned when an operation hits a session that has
	// already been stopped and is awaiting removal.
	ErrSessionStopped = errors.New("session has been stopped")

	// ErrEmptyPlaylist is returned when playing a playlist with no entries.
	ErrEmptyPlaylist = errors.New("playlist is empty")

	// ErrInvalidPlaylistName is returned when a playlist name contains the
	// reserved private marker.
	ErrInvalidPlaylistName = errors.New("playlist names cannot contain underscores")
)
