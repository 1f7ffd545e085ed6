package infrastructure

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

const (
	storeGuildID = snowflake.ID(100)
	storeUserID  = snowflake.ID(200)
)

func newTestPlaylistStore(t *testing.T) (*JSONPlaylistStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewJSONPlaylistStore(dir)
	if err != nil {
		t.Fatalf("NewJSONPlaylistStore failed: %v", err)
	}
	return store, dir
}

func TestJSONPlaylistStore_CreateAndLoad(t *testing.T) {
	store, _ := newTestPlaylistStore(t)
	ctx := context.Background()
	scope := domain.PlaylistScope{GuildID: storeGuildID}

	if err := store.Create(ctx, scope, "mix"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	playlist, err := store.Load(ctx, scope, "mix")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if playlist.Name != "mix" || playlist.Visibility != domain.VisibilityPublic {
		t.Errorf("unexpected playlist %+v", playlist)
	}
	if len(playlist.Entries) != 0 {
		t.Errorf("expected empty playlist, got %v", playlist.Entries)
	}

	if err := store.Create(ctx, scope, "mix"); !errors.Is(err, ports.ErrPlaylistExists) {
		t.Errorf("expected ErrPlaylistExists, got %v", err)
	}

	if _, err := store.Load(ctx, scope, "nope"); !errors.Is(err, ports.ErrPlaylistNotFound) {
		t.Errorf("expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestJSONPlaylistStore_AppendAndRemove(t *testing.T) {
	store, _ := newTestPlaylistStore(t)
	ctx := context.Background()
	scope := domain.PlaylistScope{GuildID: storeGuildID}

	if err := store.Create(ctx, scope, "mix"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	for _, entry := range []string{"s1", "s2", "s3", "s2"} {
		if err := store.Append(ctx, scope, "mix", entry); err != nil {
			t.Fatalf("Append(%q) failed: %v", entry, err)
		}
	}

	// Remove deletes only the first occurrence.
	if err := store.Remove(ctx, scope, "mix", "s2"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	playlist, err := store.Load(ctx, scope, "mix")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{"s1", "s3", "s2"}
	if len(playlist.Entries) != len(want) {
		t.Fatalf("expected %v, got %v", want, playlist.Entries)
	}
	for i := range want {
		if playlist.Entries[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, playlist.Entries)
		}
	}

	if err := store.Remove(ctx, scope, "mix", "gone"); !errors.Is(err, ports.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
	if err := store.Append(ctx, scope, "nope", "s1"); !errors.Is(err, ports.ErrPlaylistNotFound) {
		t.Errorf("expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestJSONPlaylistStore_PrivateScoping(t *testing.T) {
	store, _ := newTestPlaylistStore(t)
	ctx := context.Background()

	owner := domain.PlaylistScope{GuildID: storeGuildID, UserID: storeUserID}
	other := domain.PlaylistScope{GuildID: storeGuildID, UserID: storeUserID + 1}
	public := domain.PlaylistScope{GuildID: storeGuildID}

	if err := store.Create(ctx, owner, "secret"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Append(ctx, owner, "secret", "s1"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if _, err := store.Load(ctx, owner, "secret"); err != nil {
		t.Errorf("expected owner to load own playlist: %v", err)
	}

	// Anyone else, private or public scope, is told the playlist is private
	// rather than missing.
	if _, err := store.Load(ctx, other, "secret"); !errors.Is(err, ports.ErrPrivatePlaylist) {
		t.Errorf("expected ErrPrivatePlaylist for other user, got %v", err)
	}
	if _, err := store.Load(ctx, public, "secret"); !errors.Is(err, ports.ErrPrivatePlaylist) {
		t.Errorf("expected ErrPrivatePlaylist via public scope, got %v", err)
	}
	if err := store.Append(ctx, other, "secret", "s2"); !errors.Is(err, ports.ErrPrivatePlaylist) {
		t.Errorf("expected ErrPrivatePlaylist on append, got %v", err)
	}
	if err := store.Remove(ctx, other, "secret", "s1"); !errors.Is(err, ports.ErrPrivatePlaylist) {
		t.Errorf("expected ErrPrivatePlaylist on remove, got %v", err)
	}

	// Same name in the public namespace coexists with the private one.
	if err := store.Create(ctx, public, "secret"); err != nil {
		t.Fatalf("Create public failed: %v", err)
	}
	playlist, err := store.Load(ctx, public, "secret")
	if err != nil {
		t.Fatalf("Load public failed: %v", err)
	}
	if len(playlist.Entries) != 0 {
		t.Errorf("expected distinct public playlist, got %v", playlist.Entries)
	}
}

func TestJSONPlaylistStore_Names(t *testing.T) {
	store, _ := newTestPlaylistStore(t)
	ctx := context.Background()

	public := domain.PlaylistScope{GuildID: storeGuildID}
	mine := domain.PlaylistScope{GuildID: storeGuildID, UserID: storeUserID}
	theirs := domain.PlaylistScope{GuildID: storeGuildID, UserID: storeUserID + 1}

	for _, name := range []string{"party", "chill"} {
		if err := store.Create(ctx, public, name); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if err := store.Create(ctx, mine, "secret"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Create(ctx, theirs, "hidden"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	publicNames, privateNames, err := store.Names(ctx, storeGuildID, storeUserID)
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}

	if len(publicNames) != 2 || publicNames[0] != "chill" || publicNames[1] != "party" {
		t.Errorf("expected sorted public names, got %v", publicNames)
	}
	if len(privateNames) != 1 || privateNames[0] != "secret" {
		t.Errorf("expected only own private names, got %v", privateNames)
	}
}

func TestJSONPlaylistStore_NamesForEmptyGuild(t *testing.T) {
	store, _ := newTestPlaylistStore(t)

	public, private, err := store.Names(context.Background(), storeGuildID, storeUserID)
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	if len(public) != 0 || len(private) != 0 {
		t.Errorf("expected no names, got %v / %v", public, private)
	}
}

func TestJSONPlaylistStore_PersistsAcrossReopen(t *testing.T) {
	store, dir := newTestPlaylistStore(t)
	ctx := context.Background()
	scope := domain.PlaylistScope{GuildID: storeGuildID}

	if err := store.Create(ctx, scope, "mix"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Append(ctx, scope, "mix", "s1"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, storeGuildID.String()+".json")); err != nil {
		t.Fatalf("expected one document per guild: %v", err)
	}

	reopened, err := NewJSONPlaylistStore(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	playlist, err := reopened.Load(ctx, scope, "mix")
	if err != nil {
		t.Fatalf("Load after reopen failed: %v", err)
	}
	if len(playlist.Entries) != 1 || playlist.Entries[0] != "s1" {
		t.Errorf("expected persisted entries, got %v", playlist.Entries)
	}

	// No leftover temp files from the atomic writes.
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no staging files, got %v", matches)
	}
}

func TestJSONPlaylistStore_IsolatesGuilds(t *testing.T) {
	store, _ := newTestPlaylistStore(t)
	ctx := context.Background()

	first := domain.PlaylistScope{GuildID: storeGuildID}
	second := domain.PlaylistScope{GuildID: storeGuildID + 1}

	if err := store.Create(ctx, first, "mix"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := store.Load(ctx, second, "mix"); !errors.Is(err, ports.ErrPlaylistNotFound) {
		t.Errorf("expected guild isolation, got %v", err)
	}
}
