package domain

import (
	"strings"

	"github.com/disgoorg/snowflake/v2"
)

// PrivateMarker is the reserved suffix that marks a playlist name as private.
// A name ending in the marker is scoped to the requesting user rather than
// shared across the guild.
const PrivateMarker = "_"

// Visibility controls who can load a playlist.
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityPrivate
)

// String returns a human-readable representation of the visibility.
func (v Visibility) String() string {
	if v == VisibilityPrivate {
		return "private"
	}
	return "public"
}

// PlaylistScope addresses a playlist namespace within a guild. UserID is zero
// for public playlists and the owning user for private ones.
type PlaylistScope struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
}

// IsPrivate returns true if the scope addresses a user-private namespace.
func (s PlaylistScope) IsPrivate() bool {
	return s.UserID != 0
}

// Playlist is a named, ordered list of track queries. Entries store enough to
// re-resolve each track on demand (a query or source URL).
type Playlist struct {
	Name       string
	Visibility Visibility
	Entries    []string
}

// ParsePlaylistName splits user input into the bare playlist name and whether
// the private marker was present.
func ParsePlaylistName(input string) (name string, private bool) {
	if strings.HasSuffix(input, PrivateMarker) {
		return strings.TrimSuffix(input, PrivateMarker), true
	}
	return input, false
}

// ScopeFor returns the playlist scope for the given input name, attributing
// private names to the requesting user.
func ScopeFor(guildID, userID snowflake.ID, input string) (PlaylistScope, string) {
	name, private := ParsePlaylistName(input)
	if private {
		return PlaylistScope{GuildID: guildID, UserID: userID}, name
	}
	return PlaylistScope{GuildID: guildID}, name
}

// ValidPlaylistName reports whether a name is acceptable for creation. The
// private marker character is reserved and cannot appear inside names.
func ValidPlaylistName(name string) bool {
	return name != "" && !strings.Contains(name, PrivateMarker)
}
