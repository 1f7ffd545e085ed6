package domain

// Status represents the playback state of a guild session.
type Status int

const (
	// StatusIdle means no current track and an empty pipeline.
	StatusIdle Status = iota
	// StatusPlaying means a current track is bound and audio is flowing
	// (or about to flow while its audio is being fetched).
	StatusPlaying
	// StatusPaused means a current track is bound but audio is suspended.
	StatusPaused
	// StatusStopped is terminal: the session disconnected and its queue was
	// cleared. A stopped session accepts no further operations.
	StatusStopped
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	default:
		return "idle"
	}
}
