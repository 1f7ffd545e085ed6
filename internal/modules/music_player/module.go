package music_player

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"

	"github.com/sglre6355/groovebot/internal/bot"
	"github.com/sglre6355/groovebot/internal/modules/music_player/application"
	"github.com/sglre6355/groovebot/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/groovebot/internal/modules/music_player/cache"
	"github.com/sglre6355/groovebot/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/groovebot/internal/modules/music_player/preload"
	"github.com/sglre6355/groovebot/internal/modules/music_player/presentation/discord"
)

func init() {
	bot.Register(&MusicPlayerModule{})
}

// shutdownTimeout bounds how long Shutdown waits for sessions to stop.
const shutdownTimeout = 10 * time.Second

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*MusicPlayerModule)(nil)

// MusicPlayerModule provides music playback and playlist commands.
type MusicPlayerModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers
	autocomplete    *discord.AutocompleteHandler

	registry *usecases.Registry
	store    *cache.Store
	pipeline *preload.Pipeline

	eventBus            *infrastructure.ChannelEventBus
	notificationHandler *application.NotificationEventHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play":     m.commandHandlers.HandlePlay,
		"skip":     m.commandHandlers.HandleSkip,
		"pause":    m.commandHandlers.HandlePause,
		"resume":   m.commandHandlers.HandleResume,
		"exit":     m.commandHandlers.HandleExit,
		"playlist": m.commandHandlers.HandlePlaylist,
		"create":   m.commandHandlers.HandleCreate,
		"add":      m.commandHandlers.HandleAdd,
		"remove":   m.commandHandlers.HandleRemove,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			m.handleInteractionCreate(s, i)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return errors.New("music_player module requires a Discord session")
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())

	store, err := cache.New(m.config.CachePath, m.config.CacheGrace)
	if err != nil {
		return err
	}
	m.store = store
	m.store.StartJanitor(m.config.ReclaimInterval)

	playlistStore, err := infrastructure.NewJSONPlaylistStore(m.config.PlaylistsPath)
	if err != nil {
		return err
	}

	m.eventBus = infrastructure.NewChannelEventBus(infrastructure.DefaultEventBufferSize)

	resolver := infrastructure.NewYtdlpResolver(m.config.ResolveTimeout)
	fetcher := infrastructure.NewYtdlpFetcher()
	m.pipeline = preload.New(m.store, fetcher, m.config.FetchTimeout)

	transport := infrastructure.NewDiscordTransport(deps.Session, m.config.FfmpegPath)
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)

	m.registry = usecases.NewRegistry(usecases.Dependencies{
		Transport: transport,
		Resolver:  resolver,
		Preloader: m.pipeline,
		Playlists: playlistStore,
		Publisher: m.eventBus,
	}, m.config.IdleTimeout)
	m.registry.StartIdleSweep(m.config.SweepInterval)

	playlists := usecases.NewPlaylistService(playlistStore)

	notifier := infrastructure.NewNotifier(deps.Session)
	m.notificationHandler = application.NewNotificationEventHandler(notifier, m.eventBus)
	m.notificationHandler.Start(m.ctx)

	m.commandHandlers = discord.NewCommandHandlers(m.registry, playlists, voiceState)
	m.autocomplete = discord.NewAutocompleteHandler(playlists)

	slog.Info("music_player module initialized",
		"cache_path", m.config.CachePath,
		"playlists_path", m.config.PlaylistsPath,
	)

	return nil
}

// Shutdown cleans up module resources.
func (m *MusicPlayerModule) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}

	// Stop all sessions before tearing down the bus so final events still
	// have somewhere to go.
	if m.registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		m.registry.Close(ctx)
	}

	if m.notificationHandler != nil {
		m.notificationHandler.Stop()
	}
	if m.eventBus != nil {
		m.eventBus.Close()
	}
	if m.store != nil {
		m.store.Close()
	}

	return nil
}

// handleInteractionCreate routes autocomplete interactions.
func (m *MusicPlayerModule) handleInteractionCreate(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
) {
	if i.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return
	}

	data := i.ApplicationCommandData()

	switch data.Name {
	case "playlist":
		m.autocomplete.HandlePlaylistName(s, i)
	case "add", "remove":
		for _, opt := range data.Options {
			if !opt.Focused {
				continue
			}
			switch opt.Name {
			case "playlist":
				m.autocomplete.HandlePlaylistName(s, i)
			case "song":
				m.autocomplete.HandleSong(s, i)
			}
		}
	}
}
