package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

const (
	testGuildID   = snowflake.ID(100)
	testUserID    = snowflake.ID(200)
	testChannelID = snowflake.ID(300)
	testVoiceID   = snowflake.ID(400)
)

type mockTransport struct {
	mu          sync.Mutex
	connects    []snowflake.ID // voice channel IDs
	plays       []string       // played file paths
	onFinished  func(err error)
	stops       int
	pauses      int
	resumes     int
	disconnects int

	connectErr error
	playErr    error
	pauseErr   error
	resumeErr  error
}

func (m *mockTransport) Connect(_ context.Context, _, channelID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connects = append(m.connects, channelID)
	return nil
}

func (m *mockTransport) Play(
	_ context.Context,
	_ snowflake.ID,
	path string,
	onFinished func(err error),
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.plays = append(m.plays, path)
	m.onFinished = onFinished
	return nil
}

func (m *mockTransport) StopAudio(_ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

func (m *mockTransport) Pause(_ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pauseErr != nil {
		return m.pauseErr
	}
	m.pauses++
	return nil
}

func (m *mockTransport) Resume(_ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resumeErr != nil {
		return m.resumeErr
	}
	m.resumes++
	return nil
}

func (m *mockTransport) Disconnect(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnects++
	return nil
}

// finish invokes the last registered playback-finished callback, as the real
// transport does from its playback goroutine.
func (m *mockTransport) finish(err error) {
	m.mu.Lock()
	cb := m.onFinished
	m.onFinished = nil
	m.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

func (m *mockTransport) playedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.plays...)
}

type mockResolver struct {
	mu      sync.Mutex
	calls   int
	err     error
	failFor map[string]error
}

func (m *mockResolver) Resolve(_ context.Context, query string) (*ports.ResolvedTrack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if err, ok := m.failFor[query]; ok {
		return nil, err
	}
	return &ports.ResolvedTrack{
		SourceID:  "id-" + query,
		Title:     "Title " + query,
		Duration:  3 * time.Minute,
		SourceURL: "https://example.com/" + query,
	}, nil
}

// mockHandle is an immediately- or manually-completed preload handle.
type mockHandle struct {
	id   domain.TrackID
	path string
	err  error
	done chan struct{} // nil means already complete

	mu       sync.Mutex
	released int
}

func (h *mockHandle) TrackID() domain.TrackID {
	return h.id
}

func (h *mockHandle) Await(ctx context.Context) (string, error) {
	if h.done != nil {
		select {
		case <-h.done:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return h.path, h.err
}

func (h *mockHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released++
}

func (h *mockHandle) releaseCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

type mockPreloader struct {
	mu      sync.Mutex
	handles map[domain.TrackID][]*mockHandle
	failFor map[domain.TrackID]error
	blocked map[domain.TrackID]chan struct{} // tracks whose fetch must be completed manually
}

func newMockPreloader() *mockPreloader {
	return &mockPreloader{
		handles: make(map[domain.TrackID][]*mockHandle),
		failFor: make(map[domain.TrackID]error),
		blocked: make(map[domain.TrackID]chan struct{}),
	}
}

func (m *mockPreloader) Preload(track domain.Track) ports.PreloadHandle {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := &mockHandle{
		id:   track.ID,
		path: "/cache/" + string(track.ID),
		err:  m.failFor[track.ID],
		done: m.blocked[track.ID],
	}
	m.handles[track.ID] = append(m.handles[track.ID], h)
	return h
}

// totalReleases counts Release calls across every handle handed out for id.
func (m *mockPreloader) totalReleases(id domain.TrackID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, h := range m.handles[id] {
		total += h.releaseCount()
	}
	return total
}

func (m *mockPreloader) handleCount(id domain.TrackID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles[id])
}

type playlistKey struct {
	scope domain.PlaylistScope
	name  string
}

type mockPlaylistStore struct {
	mu        sync.Mutex
	playlists map[playlistKey][]string
	loadErr   map[string]error // by name, overrides lookup
}

func newMockPlaylistStore() *mockPlaylistStore {
	return &mockPlaylistStore{
		playlists: make(map[playlistKey][]string),
		loadErr:   make(map[string]error),
	}
}

func (m *mockPlaylistStore) put(scope domain.PlaylistScope, name string, entries ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playlists[playlistKey{scope: scope, name: name}] = entries
}

func (m *mockPlaylistStore) Load(
	_ context.Context,
	scope domain.PlaylistScope,
	name string,
) (*domain.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.loadErr[name]; ok {
		return nil, err
	}
	entries, ok := m.playlists[playlistKey{scope: scope, name: name}]
	if !ok {
		return nil, ports.ErrPlaylistNotFound
	}
	visibility := domain.VisibilityPublic
	if scope.IsPrivate() {
		visibility = domain.VisibilityPrivate
	}
	return &domain.Playlist{
		Name:       name,
		Visibility: visibility,
		Entries:    append([]string(nil), entries...),
	}, nil
}

func (m *mockPlaylistStore) Create(
	_ context.Context,
	scope domain.PlaylistScope,
	name string,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := playlistKey{scope: scope, name: name}
	if _, ok := m.playlists[key]; ok {
		return ports.ErrPlaylistExists
	}
	m.playlists[key] = []string{}
	return nil
}

func (m *mockPlaylistStore) Append(
	_ context.Context,
	scope domain.PlaylistScope,
	name, entry string,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := playlistKey{scope: scope, name: name}
	entries, ok := m.playlists[key]
	if !ok {
		return ports.ErrPlaylistNotFound
	}
	m.playlists[key] = append(entries, entry)
	return nil
}

func (m *mockPlaylistStore) Remove(
	_ context.Context,
	scope domain.PlaylistScope,
	name, entry string,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := playlistKey{scope: scope, name: name}
	entries, ok := m.playlists[key]
	if !ok {
		return ports.ErrPlaylistNotFound
	}
	for i, e := range entries {
		if e == entry {
			m.playlists[key] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return ports.ErrEntryNotFound
}

func (m *mockPlaylistStore) Names(
	_ context.Context,
	guildID, userID snowflake.ID,
) (public, private []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.playlists {
		if key.scope.GuildID != guildID {
			continue
		}
		switch key.scope.UserID {
		case 0:
			public = append(public, key.name)
		case userID:
			private = append(private, key.name)
		}
	}
	return public, private, nil
}

type mockPublisher struct {
	mu              sync.Mutex
	playbackStarted []domain.PlaybackStartedEvent
	trackFailed     []domain.TrackFailedEvent
	queueEnded      []domain.QueueEndedEvent
}

func (m *mockPublisher) PublishPlaybackStarted(event domain.PlaybackStartedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playbackStarted = append(m.playbackStarted, event)
}

func (m *mockPublisher) PublishTrackFailed(event domain.TrackFailedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackFailed = append(m.trackFailed, event)
}

func (m *mockPublisher) PublishQueueEnded(event domain.QueueEndedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueEnded = append(m.queueEnded, event)
}

func (m *mockPublisher) startedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.playbackStarted)
}

func (m *mockPublisher) failedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trackFailed)
}

func (m *mockPublisher) endedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queueEnded)
}

// testSession bundles a session with its mocks.
type testSession struct {
	session   *Session
	transport *mockTransport
	resolver  *mockResolver
	preloader *mockPreloader
	playlists *mockPlaylistStore
	publisher *mockPublisher
}

func newTestSession() *testSession {
	transport := &mockTransport{}
	resolver := &mockResolver{}
	preloader := newMockPreloader()
	playlists := newMockPlaylistStore()
	publisher := &mockPublisher{}
	return &testSession{
		session:   NewSession(testGuildID, transport, resolver, preloader, playlists, publisher),
		transport: transport,
		resolver:  resolver,
		preloader: preloader,
		playlists: playlists,
		publisher: publisher,
	}
}

func enqueueInput(query string) EnqueueInput {
	return EnqueueInput{
		Query:          query,
		RequesterID:    testUserID,
		RequesterName:  "tester",
		ChannelID:      testChannelID,
		VoiceChannelID: testVoiceID,
	}
}
