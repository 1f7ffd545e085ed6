package music_player

import "time"

// Config holds the music player module configuration.
type Config struct {
	PlaylistsPath string `env:"PLAYLISTS_PATH" envDefault:"data/playlists"`
	CachePath     string `env:"CACHE_PATH"     envDefault:"data/cache"`
	FfmpegPath    string `env:"FFMPEG_PATH"    envDefault:"ffmpeg"`

	ResolveTimeout time.Duration `env:"RESOLVE_TIMEOUT" envDefault:"30s"`
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT"   envDefault:"3m"`

	CacheGrace      time.Duration `env:"CACHE_GRACE"       envDefault:"10m"`
	ReclaimInterval time.Duration `env:"RECLAIM_INTERVAL"  envDefault:"1m"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT"      envDefault:"5m"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL"    envDefault:"30s"`
}
