package ports

import (
	"context"
	"errors"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

// Playlist store errors.
var (
	// ErrPlaylistNotFound is returned when no playlist with the given name
	// exists in the addressed scope.
	ErrPlaylistNotFound = errors.New("playlist does not exist")

	// ErrPrivatePlaylist is returned when a private playlist exists but is
	// owned by a different user than the requester.
	ErrPrivatePlaylist = errors.New("playlist is private to another user")

	// ErrPlaylistExists is returned when creating a playlist whose name is
	// already taken in the addressed scope.
	ErrPlaylistExists = errors.New("playlist already exists")

	// ErrEntryNotFound is returned when removing an entry that is not in the
	// playlist.
	ErrEntryNotFound = errors.New("entry does not exist in playlist")
)

// PlaylistStore defines the interface to the on-disk playlist store: flat
// per-guild JSON documents holding named track lists.
type PlaylistStore interface {
	// Load returns the playlist with the given name in scope.
	// Returns ErrPlaylistNotFound or ErrPrivatePlaylist on failure.
	Load(ctx context.Context, scope domain.PlaylistScope, name string) (*domain.Playlist, error)

	// Create registers an empty playlist. Returns ErrPlaylistExists if the
	// name is taken in scope.
	Create(ctx context.Context, scope domain.PlaylistScope, name string) error

	// Append adds an entry at the tail of the named playlist.
	Append(ctx context.Context, scope domain.PlaylistScope, name, entry string) error

	// Remove deletes the first occurrence of entry from the named playlist.
	Remove(ctx context.Context, scope domain.PlaylistScope, name, entry string) error

	// Names lists the playlist names visible to the given user in a guild:
	// the guild's public playlists and the user's own private ones.
	Names(ctx context.Context, guildID, userID snowflake.ID) (public, private []string, err error)
}
