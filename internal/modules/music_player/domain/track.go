package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// TrackID is the stable cache key for a track. It is the resolver-assigned
// source ID when available, otherwise a hash of the source URL.
type TrackID string

// Track is an immutable description of a resolved audio track. Tracks are
// created at resolution time and freely copied by value afterwards.
type Track struct {
	ID            TrackID
	Title         string
	Duration      time.Duration
	SourceURL     string // descriptor consumed by the audio fetcher
	RequesterID   snowflake.ID
	RequesterName string
	EnqueuedAt    time.Time
}

// NewTrack creates a Track with the given parameters.
func NewTrack(
	id TrackID,
	title string,
	duration time.Duration,
	sourceURL string,
	requesterID snowflake.ID,
	requesterName string,
) Track {
	return Track{
		ID:            id,
		Title:         title,
		Duration:      duration,
		SourceURL:     sourceURL,
		RequesterID:   requesterID,
		RequesterName: requesterName,
		EnqueuedAt:    time.Now().UTC(),
	}
}

// DeriveTrackID returns the stable identifier for a track: the source-assigned
// ID when the resolver provided one, otherwise a SHA-1 of the source URL.
func DeriveTrackID(sourceID, sourceURL string) TrackID {
	if sourceID != "" {
		return TrackID(sourceID)
	}
	sum := sha1.Sum([]byte(sourceURL))
	return TrackID(hex.EncodeToString(sum[:]))
}

// IsValid returns true if the track has the minimum required fields.
func (t Track) IsValid() bool {
	return t.ID != "" && t.SourceURL != ""
}

// FormattedDuration returns the duration as a human-readable string (mm:ss or hh:mm:ss).
func (t Track) FormattedDuration() string {
	totalSeconds := int(t.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
