package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebot/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

// Discord caps autocomplete results at 25 choices.
const maxChoices = 25

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	playlists *usecases.PlaylistService
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(playlists *usecases.PlaylistService) *AutocompleteHandler {
	return &AutocompleteHandler{
		playlists: playlists,
	}
}

// HandlePlaylistName handles autocomplete for options naming a playlist.
// Public playlists are offered as-is; the user's private playlists carry the
// scope marker in the value so later commands resolve them correctly.
func (h *AutocompleteHandler) HandlePlaylistName(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
) {
	ctx := context.Background()

	guildID, userID, ok := autocompleteIDs(i)
	if !ok {
		respondChoices(s, i, nil)
		return
	}

	partial := focusedValue(i)

	output, err := h.playlists.Names(ctx, guildID, userID)
	if err != nil {
		slog.Warn("failed to list playlists for autocomplete",
			"guild", guildID,
			"error", err,
		)
		respondChoices(s, i, nil)
		return
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0)
	for _, name := range output.Public {
		if !matchesPartial(name, partial) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(name, 100),
			Value: name,
		})
	}
	for _, name := range output.Private {
		if !matchesPartial(name, partial) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(fmt.Sprintf("%s (private)", name), 100),
			Value: name + domain.PrivateMarker,
		})
	}
	if len(choices) > maxChoices {
		choices = choices[:maxChoices]
	}

	respondChoices(s, i, choices)
}

// HandleSong handles autocomplete for the song option of /remove, offering
// the entries of the already-selected playlist.
func (h *AutocompleteHandler) HandleSong(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
) {
	ctx := context.Background()

	guildID, userID, ok := autocompleteIDs(i)
	if !ok {
		respondChoices(s, i, nil)
		return
	}

	// The playlist option must already be filled in for entries to be known.
	var playlist string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "playlist" {
			playlist = opt.StringValue()
		}
	}
	if playlist == "" {
		respondChoices(s, i, nil)
		return
	}

	partial := focusedValue(i)

	songs, err := h.playlists.Songs(ctx, guildID, userID, playlist)
	if err != nil {
		respondChoices(s, i, nil)
		return
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0)
	for _, song := range songs {
		if !matchesPartial(song, partial) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(song, 100),
			Value: song,
		})
		if len(choices) == maxChoices {
			break
		}
	}

	respondChoices(s, i, choices)
}

func autocompleteIDs(i *discordgo.InteractionCreate) (guildID, userID snowflake.ID, ok bool) {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return 0, 0, false
	}
	if i.Member == nil || i.Member.User == nil {
		return 0, 0, false
	}
	userID, err = snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return 0, 0, false
	}
	return guildID, userID, true
}

// focusedValue returns the current text of the focused option.
func focusedValue(i *discordgo.InteractionCreate) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Focused {
			return opt.StringValue()
		}
	}
	return ""
}

func matchesPartial(candidate, partial string) bool {
	if partial == "" {
		return true
	}
	return strings.Contains(strings.ToLower(candidate), strings.ToLower(partial))
}

func respondChoices(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	choices []*discordgo.ApplicationCommandOptionChoice,
) {
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
	if err != nil {
		slog.Warn("failed to send autocomplete response", "error", err)
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
