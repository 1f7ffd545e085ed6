package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebot/internal/bot"
	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/groovebot/internal/modules/music_player/application/usecases"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	registry   *usecases.Registry
	playlists  *usecases.PlaylistService
	voiceState ports.VoiceStateProvider
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	registry *usecases.Registry,
	playlists *usecases.PlaylistService,
	voiceState ports.VoiceStateProvider,
) *CommandHandlers {
	return &CommandHandlers{
		registry:   registry,
		playlists:  playlists,
		voiceState: voiceState,
	}
}

// interactionIDs bundles the parsed identifiers every handler needs.
type interactionIDs struct {
	guildID   snowflake.ID
	userID    snowflake.ID
	channelID snowflake.ID
	userName  string
}

func parseInteraction(i *discordgo.InteractionCreate) (interactionIDs, error) {
	var ids interactionIDs

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return ids, fmt.Errorf("invalid guild ID: %w", err)
	}

	if i.Member == nil || i.Member.User == nil {
		return ids, errors.New("interaction has no member")
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return ids, fmt.Errorf("invalid user ID: %w", err)
	}

	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return ids, fmt.Errorf("invalid channel ID: %w", err)
	}

	ids.guildID = guildID
	ids.userID = userID
	ids.channelID = channelID
	ids.userName = i.Member.User.Username
	if i.Member.Nick != "" {
		ids.userName = i.Member.Nick
	}
	return ids, nil
}

// stringOption returns the named string option value, or "".
func stringOption(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

// boolOption returns the named boolean option value, or false.
func boolOption(i *discordgo.InteractionCreate, name string) bool {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt.BoolValue()
		}
	}
	return false
}

// HandlePlay handles the /play command.
func (h *CommandHandlers) HandlePlay(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "Invalid interaction")
	}

	voiceChannelID, err := h.voiceState.UserVoiceChannel(ids.guildID, ids.userID)
	if err != nil || voiceChannelID == 0 {
		return respondError(r, "Join a voice channel first.")
	}

	query := stringOption(i, "song")
	if query == "" {
		return respondError(r, "No song given.")
	}

	// Resolution and download can take a while; the interaction token only
	// allows 3 seconds for an initial response.
	if err := r.Defer(); err != nil {
		return err
	}

	session := h.registry.GetOrCreate(ids.guildID)
	output, err := session.EnqueuePlay(ctx, usecases.EnqueueInput{
		Query:          query,
		RequesterID:    ids.userID,
		RequesterName:  ids.userName,
		ChannelID:      ids.channelID,
		VoiceChannelID: voiceChannelID,
	})
	if err != nil {
		return followupError(r, userMessage(err))
	}

	var description string
	if output.Position == 0 {
		description = fmt.Sprintf("Playing [%s](%s).", output.Track.Title, output.Track.SourceURL)
	} else {
		description = fmt.Sprintf(
			"Added [%s](%s) to the queue (position %d).",
			output.Track.Title, output.Track.SourceURL, output.Position,
		)
	}

	return followupEmbed(r, description, colorSuccess)
}

// HandlePlaylist handles the /playlist command.
func (h *CommandHandlers) HandlePlaylist(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "Invalid interaction")
	}

	voiceChannelID, err := h.voiceState.UserVoiceChannel(ids.guildID, ids.userID)
	if err != nil || voiceChannelID == 0 {
		return respondError(r, "Join a voice channel first.")
	}

	name := stringOption(i, "playlist_name")
	if name == "" {
		return respondError(r, "No playlist given.")
	}

	if err := r.Defer(); err != nil {
		return err
	}

	session := h.registry.GetOrCreate(ids.guildID)
	output, err := session.PlayPlaylist(ctx, usecases.PlayPlaylistInput{
		Name:           name,
		RequesterID:    ids.userID,
		RequesterName:  ids.userName,
		ChannelID:      ids.channelID,
		VoiceChannelID: voiceChannelID,
	})
	if err != nil {
		return followupError(r, userMessage(err))
	}

	description := fmt.Sprintf("Enqueued **%d** tracks from **%s**.", output.Enqueued, name)
	if output.Failed > 0 {
		description += fmt.Sprintf(" %d entries could not be resolved.", output.Failed)
	}

	return followupEmbed(r, description, colorSuccess)
}

// HandleSkip handles the /skip command.
func (h *CommandHandlers) HandleSkip(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "Invalid interaction")
	}

	session := h.registry.Get(ids.guildID)
	if session == nil {
		return respondError(r, userMessage(usecases.ErrNotPlaying))
	}

	// Skip blocks until the next track is cache-resident, which can exceed
	// the interaction response window.
	if err := r.Defer(); err != nil {
		return err
	}

	if err := session.Skip(ctx); err != nil {
		return followupError(r, userMessage(err))
	}

	return followupEmbed(r, "Skipped.", colorSuccess)
}

// HandlePause handles the /pause command.
func (h *CommandHandlers) HandlePause(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "Invalid interaction")
	}

	session := h.registry.Get(ids.guildID)
	if session == nil {
		return respondError(r, userMessage(usecases.ErrNotPlaying))
	}

	if err := session.Pause(); err != nil {
		return respondError(r, userMessage(err))
	}

	return respondEmbed(r, "Paused playback.", colorSuccess)
}

// HandleResume handles the /resume command.
func (h *CommandHandlers) HandleResume(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "Invalid interaction")
	}

	session := h.registry.Get(ids.guildID)
	if session == nil {
		return respondError(r, userMessage(usecases.ErrNotPlaying))
	}

	if err := session.Resume(); err != nil {
		return respondError(r, userMessage(err))
	}

	return respondEmbed(r, "Resumed playback.", colorSuccess)
}

// HandleExit handles the /exit command.
func (h *CommandHandlers) HandleExit(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "Invalid interaction")
	}

	if err := h.registry.Stop(ctx, ids.guildID); err != nil {
		return respondError(r, userMessage(err))
	}

	return respondEmbed(r, "Disconnected.", colorSuccess)
}

// HandleCreate handles the /create command.
func (h *CommandHandlers) HandleCreate(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "Invalid interaction")
	}

	name := stringOption(i, "playlist_name")
	private := boolOption(i, "private")

	err = h.playlists.Create(ctx, usecases.CreatePlaylistInput{
		GuildID: ids.guildID,
		UserID:  ids.userID,
		Name:    name,
		Private: private,
	})
	if err != nil {
		return respondError(r, userMessage(err))
	}

	visibility := "public"
	if private {
		visibility = "private"
	}
	return respondEmbed(
		r,
		fmt.Sprintf("Created %s playlist **%s**.", visibility, name),
		colorSuccess,
	)
}

// HandleAdd handles the /add command.
func (h *CommandHandlers) HandleAdd(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "Invalid interaction")
	}

	song := stringOption(i, "song")
	playlist := stringOption(i, "playlist")

	err = h.playlists.Add(ctx, usecases.AddToPlaylistInput{
		GuildID:  ids.guildID,
		UserID:   ids.userID,
		Playlist: playlist,
		Song:     song,
	})
	if err != nil {
		return respondError(r, userMessage(err))
	}

	return respondEmbed(
		r,
		fmt.Sprintf("Added **%s** to **%s**.", song, playlist),
		colorSuccess,
	)
}

// HandleRemove handles the /remove command.
func (h *CommandHandlers) HandleRemove(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "Invalid interaction")
	}

	song := stringOption(i, "song")
	playlist := stringOption(i, "playlist")

	err = h.playlists.Remove(ctx, usecases.RemoveFromPlaylistInput{
		GuildID:  ids.guildID,
		UserID:   ids.userID,
		Playlist: playlist,
		Song:     song,
	})
	if err != nil {
		return respondError(r, userMessage(err))
	}

	return respondEmbed(
		r,
		fmt.Sprintf("Removed **%s** from **%s**.", song, playlist),
		colorSuccess,
	)
}

// userMessage maps service errors to user-facing text.
func userMessage(err error) string {
	switch {
	case errors.Is(err, usecases.ErrNotPlaying):
		return "Nothing is playing."
	case errors.Is(err, usecases.ErrAlreadyPaused):
		return "Playback is already paused."
	case errors.Is(err, usecases.ErrNotPaused):
		return "Playback is not paused."
	case errors.Is(err, usecases.ErrSessionStopped):
		return "The player is shutting down, try again."
	case errors.Is(err, usecases.ErrEmptyPlaylist):
		return "That playlist is empty."
	case errors.Is(err, usecases.ErrInvalidPlaylistName):
		return "Playlist names must not contain underscores."
	case errors.Is(err, ports.ErrPlaylistNotFound):
		return "No such playlist."
	case errors.Is(err, ports.ErrPrivatePlaylist):
		return "That playlist is private."
	case errors.Is(err, ports.ErrPlaylistExists):
		return "A playlist with that name already exists."
	case errors.Is(err, ports.ErrEntryNotFound):
		return "That song is not in the playlist."
	default:
		var resolutionErr *ports.ResolutionError
		if errors.As(err, &resolutionErr) {
			return fmt.Sprintf("Could not find a track for **%s**.", resolutionErr.Query)
		}
		return "An error occurred while processing your command."
	}
}

// Response helpers.

func respondEmbed(r bot.Responder, description string, color int) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: description,
					Color:       color,
				},
			},
		},
	})
}

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}

func followupEmbed(r bot.Responder, description string, color int) error {
	return r.Followup(&discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{
			{
				Description: description,
				Color:       color,
			},
		},
	})
}

func followupError(r bot.Responder, message string) error {
	return r.Followup(&discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "Error",
				Description: message,
				Color:       colorError,
			},
		},
	})
}
