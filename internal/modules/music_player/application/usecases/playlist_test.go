package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

func TestPlaylistService_Create(t *testing.T) {
	store := newMockPlaylistStore()
	service := NewPlaylistService(store)
	ctx := context.Background()

	err := service.Create(ctx, CreatePlaylistInput{
		GuildID: testGuildID,
		UserID:  testUserID,
		Name:    "favorites",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Public playlists are stored guild-wide, not per user.
	publicScope := domain.PlaylistScope{GuildID: testGuildID}
	if _, err := store.Load(ctx, publicScope, "favorites"); err != nil {
		t.Errorf("expected playlist in public scope: %v", err)
	}

	err = service.Create(ctx, CreatePlaylistInput{
		GuildID: testGuildID,
		UserID:  testUserID,
		Name:    "favorites",
	})
	if !errors.Is(err, ports.ErrPlaylistExists) {
		t.Errorf("expected ErrPlaylistExists, got %v", err)
	}
}

func TestPlaylistService_CreatePrivate(t *testing.T) {
	store := newMockPlaylistStore()
	service := NewPlaylistService(store)
	ctx := context.Background()

	err := service.Create(ctx, CreatePlaylistInput{
		GuildID: testGuildID,
		UserID:  testUserID,
		Name:    "secret",
		Private: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	privateScope := domain.PlaylistScope{GuildID: testGuildID, UserID: testUserID}
	if _, err := store.Load(ctx, privateScope, "secret"); err != nil {
		t.Errorf("expected playlist in private scope: %v", err)
	}

	// A private playlist does not shadow the public namespace: another user
	// can still create a public playlist of the same name.
	err = service.Create(ctx, CreatePlaylistInput{
		GuildID: testGuildID,
		UserID:  testUserID + 1,
		Name:    "secret",
	})
	if err != nil {
		t.Errorf("expected public creation to succeed, got %v", err)
	}
}

func TestPlaylistService_CreateRejectsMarker(t *testing.T) {
	service := NewPlaylistService(newMockPlaylistStore())
	ctx := context.Background()

	for _, name := range []string{"_", "trailing_", "mid_dle", ""} {
		err := service.Create(ctx, CreatePlaylistInput{
			GuildID: testGuildID,
			UserID:  testUserID,
			Name:    name,
		})
		if !errors.Is(err, ErrInvalidPlaylistName) {
			t.Errorf("Create(%q): expected ErrInvalidPlaylistName, got %v", name, err)
		}
	}
}

func TestPlaylistService_AddAndRemove(t *testing.T) {
	store := newMockPlaylistStore()
	service := NewPlaylistService(store)
	ctx := context.Background()

	publicScope := domain.PlaylistScope{GuildID: testGuildID}
	store.put(publicScope, "mix")

	for _, song := range []string{"s1", "s2", "s3"} {
		err := service.Add(ctx, AddToPlaylistInput{
			GuildID:  testGuildID,
			UserID:   testUserID,
			Playlist: "mix",
			Song:     song,
		})
		if err != nil {
			t.Fatalf("Add(%q) failed: %v", song, err)
		}
	}

	songs, err := service.Songs(ctx, testGuildID, testUserID, "mix")
	if err != nil {
		t.Fatalf("Songs failed: %v", err)
	}
	if len(songs) != 3 || songs[0] != "s1" || songs[1] != "s2" || songs[2] != "s3" {
		t.Errorf("expected insertion order preserved, got %v", songs)
	}

	err = service.Remove(ctx, RemoveFromPlaylistInput{
		GuildID:  testGuildID,
		UserID:   testUserID,
		Playlist: "mix",
		Song:     "s2",
	})
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	songs, err = service.Songs(ctx, testGuildID, testUserID, "mix")
	if err != nil {
		t.Fatalf("Songs failed: %v", err)
	}
	if len(songs) != 2 || songs[0] != "s1" || songs[1] != "s3" {
		t.Errorf("expected s2 removed, got %v", songs)
	}

	err = service.Remove(ctx, RemoveFromPlaylistInput{
		GuildID:  testGuildID,
		UserID:   testUserID,
		Playlist: "mix",
		Song:     "s2",
	})
	if !errors.Is(err, ports.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}

	err = service.Add(ctx, AddToPlaylistInput{
		GuildID:  testGuildID,
		UserID:   testUserID,
		Playlist: "nope",
		Song:     "s1",
	})
	if !errors.Is(err, ports.ErrPlaylistNotFound) {
		t.Errorf("expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestPlaylistService_MarkerRoutesToPrivateScope(t *testing.T) {
	store := newMockPlaylistStore()
	service := NewPlaylistService(store)
	ctx := context.Background()

	privateScope := domain.PlaylistScope{GuildID: testGuildID, UserID: testUserID}
	store.put(privateScope, "secret")

	err := service.Add(ctx, AddToPlaylistInput{
		GuildID:  testGuildID,
		UserID:   testUserID,
		Playlist: "secret_",
		Song:     "s1",
	})
	if err != nil {
		t.Fatalf("Add to private playlist failed: %v", err)
	}

	loaded, err := store.Load(ctx, privateScope, "secret")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Entries) != 1 || loaded.Entries[0] != "s1" {
		t.Errorf("expected entry in private playlist, got %v", loaded.Entries)
	}

	// Without the marker the lookup targets the public scope and misses.
	err = service.Add(ctx, AddToPlaylistInput{
		GuildID:  testGuildID,
		UserID:   testUserID,
		Playlist: "secret",
		Song:     "s2",
	})
	if !errors.Is(err, ports.ErrPlaylistNotFound) {
		t.Errorf("expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestPlaylistService_Names(t *testing.T) {
	store := newMockPlaylistStore()
	service := NewPlaylistService(store)
	ctx := context.Background()

	store.put(domain.PlaylistScope{GuildID: testGuildID}, "mix")
	store.put(domain.PlaylistScope{GuildID: testGuildID}, "party")
	store.put(domain.PlaylistScope{GuildID: testGuildID, UserID: testUserID}, "secret")
	store.put(domain.PlaylistScope{GuildID: testGuildID, UserID: testUserID + 1}, "other")
	store.put(domain.PlaylistScope{GuildID: testGuildID + 1}, "elsewhere")

	names, err := service.Names(ctx, testGuildID, testUserID)
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}

	if len(names.Public) != 2 {
		t.Errorf("expected 2 public playlists, got %v", names.Public)
	}
	if len(names.Private) != 1 || names.Private[0] != "secret" {
		t.Errorf("expected only the caller's private playlists, got %v", names.Private)
	}
}
