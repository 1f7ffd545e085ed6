package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

// CreatePlaylistInput contains the input for the CreatePlaylist use case.
type CreatePlaylistInput struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
	Name    string
	Private bool
}

// AddToPlaylistInput contains the input for the AddToPlaylist use case.
type AddToPlaylistInput struct {
	GuildID  snowflake.ID
	UserID   snowflake.ID
	Playlist string // may carry the private marker suffix
	Song     string
}

// RemoveFromPlaylistInput contains the input for the RemoveFromPlaylist use case.
type RemoveFromPlaylistInput struct {
	GuildID  snowflake.ID
	UserID   snowflake.ID
	Playlist string // may carry the private marker suffix
	Song     string
}

// PlaylistNamesOutput contains the playlist names visible to a user.
type PlaylistNamesOutput struct {
	Public  []string
	Private []string
}

// PlaylistService handles playlist management operations against the external
// playlist store.
type PlaylistService struct {
	store ports.PlaylistStore
}

// NewPlaylistService creates a new PlaylistService.
func NewPlaylistService(store ports.PlaylistStore) *PlaylistService {
	return &PlaylistService{store: store}
}

// Create registers a new empty playlist. The private marker character is
// reserved for name scoping and rejected inside names.
func (p *PlaylistService) Create(ctx context.Context, input CreatePlaylistInput) error {
	if !domain.ValidPlaylistName(input.Name) {
		return ErrInvalidPlaylistName
	}

	scope := domain.PlaylistScope{GuildID: input.GuildID}
	if input.Private {
		scope.UserID = input.UserID
	}
	return p.store.Create(ctx, scope, input.Name)
}

// Add appends a song entry to the named playlist.
func (p *PlaylistService) Add(ctx context.Context, input AddToPlaylistInput) error {
	scope, name := domain.ScopeFor(input.GuildID, input.UserID, input.Playlist)
	return p.store.Append(ctx, scope, name, input.Song)
}

// Remove deletes a song entry from the named playlist.
func (p *PlaylistService) Remove(ctx context.Context, input RemoveFromPlaylistInput) error {
	scope, name := domain.ScopeFor(input.GuildID, input.UserID, input.Playlist)
	return p.store.Remove(ctx, scope, name, input.Song)
}

// Names lists the playlists visible to the user: the guild's public playlists
// plus the user's own private ones.
func (p *PlaylistService) Names(
	ctx context.Context,
	guildID, userID snowflake.ID,
) (*PlaylistNamesOutput, error) {
	public, private, err := p.store.Names(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	return &PlaylistNamesOutput{Public: public, Private: private}, nil
}

// Songs returns the entries of the named playlist, for autocomplete.
func (p *PlaylistService) Songs(
	ctx context.Context,
	guildID, userID snowflake.ID,
	playlist string,
) ([]string, error) {
	scope, name := domain.ScopeFor(guildID, userID, playlist)
	loaded, err := p.store.Load(ctx, scope, name)
	if err != nil {
		return nil, err
	}
	return loaded.Entries, nil
}
