package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

// publicKey is the document key holding a guild's shared playlists; private
// playlists live under the owning user's ID.
const publicKey = "public"

// guildDocument is the on-disk layout of one guild's playlist file:
// namespace key -> playlist name -> ordered entries.
type guildDocument map[string]map[string][]string

// JSONPlaylistStore persists playlists as one flat JSON document per guild
// under a configured root directory. Writers for the same guild are
// serialized by a per-guild mutex and land via temp-file-then-rename.
type JSONPlaylistStore struct {
	root string

	mu     sync.Mutex
	guards map[snowflake.ID]*sync.Mutex
}

var _ ports.PlaylistStore = (*JSONPlaylistStore)(nil)

// NewJSONPlaylistStore creates the store rooted at dir.
func NewJSONPlaylistStore(dir string) (*JSONPlaylistStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create playlists dir: %w", err)
	}
	return &JSONPlaylistStore{
		root:   dir,
		guards: make(map[snowflake.ID]*sync.Mutex),
	}, nil
}

// Load returns the playlist with the given name in scope.
func (s *JSONPlaylistStore) Load(
	_ context.Context,
	scope domain.PlaylistScope,
	name string,
) (*domain.Playlist, error) {
	guard := s.guard(scope.GuildID)
	guard.Lock()
	defer guard.Unlock()

	doc, err := s.read(scope.GuildID)
	if err != nil {
		return nil, err
	}

	entries, ok := doc[scopeKey(scope)][name]
	if !ok {
		if ownedByOther(doc, scope, name) {
			return nil, ports.ErrPrivatePlaylist
		}
		return nil, ports.ErrPlaylistNotFound
	}

	visibility := domain.VisibilityPublic
	if scope.IsPrivate() {
		visibility = domain.VisibilityPrivate
	}
	return &domain.Playlist{
		Name:       name,
		Visibility: visibility,
		Entries:    slices.Clone(entries),
	}, nil
}

// Create registers an empty playlist in scope.
func (s *JSONPlaylistStore) Create(
	_ context.Context,
	scope domain.PlaylistScope,
	name string,
) error {
	return s.update(scope.GuildID, func(doc guildDocument) error {
		key := scopeKey(scope)
		if _, ok := doc[key]; !ok {
			doc[key] = make(map[string][]string)
		}
		if _, ok := doc[key][name]; ok {
			return ports.ErrPlaylistExists
		}
		doc[key][name] = []string{}
		return nil
	})
}

// Append adds an entry at the tail of the named playlist.
func (s *JSONPlaylistStore) Append(
	_ context.Context,
	scope domain.PlaylistScope,
	name, entry string,
) error {
	return s.update(scope.GuildID, func(doc guildDocument) error {
		key := scopeKey(scope)
		entries, ok := doc[key][name]
		if !ok {
			if ownedByOther(doc, scope, name) {
				return ports.ErrPrivatePlaylist
			}
			return ports.ErrPlaylistNotFound
		}
		doc[key][name] = append(entries, entry)
		return nil
	})
}

// Remove deletes the first occurrence of entry from the named playlist.
func (s *JSONPlaylistStore) Remove(
	_ context.Context,
	scope domain.PlaylistScope,
	name, entry string,
) error {
	return s.update(scope.GuildID, func(doc guildDocument) error {
		key := scopeKey(scope)
		entries, ok := doc[key][name]
		if !ok {
			if ownedByOther(doc, scope, name) {
				return ports.ErrPrivatePlaylist
			}
			return ports.ErrPlaylistNotFound
		}
		idx := slices.Index(entries, entry)
		if idx < 0 {
			return ports.ErrEntryNotFound
		}
		doc[key][name] = slices.Delete(entries, idx, idx+1)
		return nil
	})
}

// Names lists the playlist names visible to the user in a guild.
func (s *JSONPlaylistStore) Names(
	_ context.Context,
	guildID, userID snowflake.ID,
) (public, private []string, err error) {
	guard := s.guard(guildID)
	guard.Lock()
	defer guard.Unlock()

	doc, err := s.read(guildID)
	if err != nil {
		return nil, nil, err
	}

	for name := range doc[publicKey] {
		public = append(public, name)
	}
	for name := range doc[userID.String()] {
		private = append(private, name)
	}
	sort.Strings(public)
	sort.Strings(private)
	return public, private, nil
}

// guard returns the per-guild writer mutex.
func (s *JSONPlaylistStore) guard(guildID snowflake.ID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	guard, ok := s.guards[guildID]
	if !ok {
		guard = &sync.Mutex{}
		s.guards[guildID] = guard
	}
	return guard
}

func (s *JSONPlaylistStore) path(guildID snowflake.ID) string {
	return filepath.Join(s.root, guildID.String()+".json")
}

// read loads a guild's document, defaulting to an empty public namespace when
// the file does not exist yet.
func (s *JSONPlaylistStore) read(guildID snowflake.ID) (guildDocument, error) {
	data, err := os.ReadFile(s.path(guildID))
	if os.IsNotExist(err) {
		return guildDocument{publicKey: make(map[string][]string)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist file: %w", err)
	}

	var doc guildDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode playlist file: %w", err)
	}
	if doc == nil {
		doc = guildDocument{}
	}
	if _, ok := doc[publicKey]; !ok {
		doc[publicKey] = make(map[string][]string)
	}
	return doc, nil
}

// update applies op to a guild's document under its guard and persists the
// result atomically.
func (s *JSONPlaylistStore) update(guildID snowflake.ID, op func(guildDocument) error) error {
	guard := s.guard(guildID)
	guard.Lock()
	defer guard.Unlock()

	doc, err := s.read(guildID)
	if err != nil {
		return err
	}
	if err := op(doc); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode playlist file: %w", err)
	}

	path := s.path(guildID)
	tmp, err := os.CreateTemp(s.root, guildID.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to stage playlist file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write playlist file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close playlist file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace playlist file: %w", err)
	}
	return nil
}

// scopeKey maps a scope to its document namespace key.
func scopeKey(scope domain.PlaylistScope) string {
	if scope.IsPrivate() {
		return scope.UserID.String()
	}
	return publicKey
}

// ownedByOther reports whether the name exists in some other user's private
// namespace, which distinguishes an access violation from a missing playlist.
func ownedByOther(doc guildDocument, scope domain.PlaylistScope, name string) bool {
	for key, playlists := range doc {
		if key == publicKey || key == scopeKey(scope) {
			continue
		}
		if _, ok := playlists[name]; ok {
			return true
		}
	}
	return false
}
