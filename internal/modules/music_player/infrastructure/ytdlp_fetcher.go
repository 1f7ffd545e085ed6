package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lrstanley/go-ytdlp"

	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/groovebot/internal/modules/music_player/domain"
)

// YtdlpFetcher downloads a track's audio via yt-dlp. Files land in a staging
// subdirectory of dir; the preload pipeline installs them into the cache
// proper with an atomic rename.
type YtdlpFetcher struct{}

var _ ports.AudioFetcher = (*YtdlpFetcher)(nil)

// NewYtdlpFetcher creates a YtdlpFetcher.
func NewYtdlpFetcher() *YtdlpFetcher {
	return &YtdlpFetcher{}
}

// Fetch downloads the track's audio and returns the produced file path.
func (f *YtdlpFetcher) Fetch(
	ctx context.Context,
	track domain.Track,
	dir string,
) (string, error) {
	staging := filepath.Join(dir, "tmp")
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", err
	}

	template := filepath.Join(staging, string(track.ID)+".%(ext)s")
	_, err := ytdlp.New().
		Format("bestaudio[ext=webm]/bestaudio").
		Output(template).
		NoPlaylist().
		NoPart().
		NoCheckFormats().
		NoWarnings().
		IgnoreConfig().
		Run(ctx, track.SourceURL)
	if err != nil {
		return "", err
	}

	matches, err := filepath.Glob(filepath.Join(staging, string(track.ID)+".*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("download produced no file for %s", track.ID)
	}
	if len(matches) > 1 {
		return "", errors.New("download produced multiple files")
	}
	return matches[0], nil
}
