package discord

import "github.com/bwmarrin/discordgo"

// Commands returns all slash commands for the music player module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Play a track from URL or search",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "song",
					Description: "URL or search term",
					Required:    true,
				},
			},
		},
		{
			Name:        "skip",
			Description: "Skip the current track",
		},
		{
			Name:        "pause",
			Description: "Pause playback",
		},
		{
			Name:        "resume",
			Description: "Resume playback",
		},
		{
			Name:        "exit",
			Description: "Stop playback and leave the voice channel",
		},
		{
			Name:        "playlist",
			Description: "Play every song in a playlist",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "playlist_name",
					Description:  "Playlist to play",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		{
			Name:        "create",
			Description: "Create a new playlist",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "playlist_name",
					Description: "Name for the new playlist",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "private",
					Description: "Only you can see and modify a private playlist",
					Required:    false,
				},
			},
		},
		{
			Name:        "add",
			Description: "Add a song to a playlist",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "song",
					Description: "URL or search term to add",
					Required:    true,
				},
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "playlist",
					Description:  "Playlist to add the song to",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		{
			Name:        "remove",
			Description: "Remove a song from a playlist",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "playlist",
					Description:  "Playlist to remove the song from",
					Required:     true,
					Autocomplete: true,
				},
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "song",
					Description:  "Song entry to remove",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
	}
}
