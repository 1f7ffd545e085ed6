package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
)

// opusFrameDuration is the frame length Discord expects.
const opusFrameDuration = 20 * time.Millisecond

// DiscordTransport implements ports.Transport on a discordgo session. Audio
// files are transcoded to ogg/opus by an external ffmpeg process and the opus
// packets are fed to the voice connection at frame rate.
type DiscordTransport struct {
	session *discordgo.Session
	ffmpeg  string // ffmpeg executable path

	mu    sync.Mutex
	conns map[snowflake.ID]*voiceConn
}

var _ ports.Transport = (*DiscordTransport)(nil)

// voiceConn tracks one guild's voice connection and its in-flight playback.
type voiceConn struct {
	vc     *discordgo.VoiceConnection
	cancel context.CancelFunc // cancels the current playback, if any
	paused atomic.Bool
}

// NewDiscordTransport creates a transport bound to the given session. ffmpeg
// is the encoder executable to invoke; pass "ffmpeg" to use PATH lookup.
func NewDiscordTransport(session *discordgo.Session, ffmpeg string) *DiscordTransport {
	return &DiscordTransport{
		session: session,
		ffmpeg:  ffmpeg,
		conns:   make(map[snowflake.ID]*voiceConn),
	}
}

// Connect joins the guild's voice channel. Rejoining the same channel is a
// no-op; a different channel moves the connection.
func (t *DiscordTransport) Connect(
	_ context.Context,
	guildID, channelID snowflake.ID,
) error {
	t.mu.Lock()
	conn, ok := t.conns[guildID]
	t.mu.Unlock()
	if ok && conn.vc != nil && conn.vc.ChannelID == channelID.String() {
		return nil
	}

	vc, err := t.session.ChannelVoiceJoin(guildID.String(), channelID.String(), false, true)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	t.mu.Lock()
	if conn == nil {
		conn = &voiceConn{}
		t.conns[guildID] = conn
	}
	conn.vc = vc
	t.mu.Unlock()
	return nil
}

// Play transcodes the file at path and streams it to the guild's voice
// connection. onFinished fires exactly once from the playback goroutine.
func (t *DiscordTransport) Play(
	_ context.Context,
	guildID snowflake.ID,
	path string,
	onFinished func(err error),
) error {
	t.mu.Lock()
	conn := t.conns[guildID]
	t.mu.Unlock()
	if conn == nil || conn.vc == nil {
		return fmt.Errorf("no voice connection for guild %s", guildID)
	}

	playCtx, cancel := context.WithCancel(context.Background())

	// Encoder internals stay external: ffmpeg produces an ogg/opus stream we
	// only have to packetize.
	cmd := exec.CommandContext(playCtx, t.ffmpeg,
		"-i", path,
		"-vn",
		"-c:a", "libopus",
		"-b:a", "96k",
		"-f", "ogg",
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start encoder: %w", err)
	}

	conn.cancel = cancel
	conn.paused.Store(false)

	go func() {
		streamErr := t.stream(playCtx, conn, stdout)
		if err := cmd.Wait(); err != nil && streamErr == nil && playCtx.Err() == nil {
			streamErr = fmt.Errorf("encoder failed: %w", err)
		}
		cancel()
		if playCtx.Err() != nil {
			// Stopped deliberately; not a playback failure.
			streamErr = nil
		}
		onFinished(streamErr)
	}()

	return nil
}

// stream feeds opus packets to the voice connection at frame rate, honoring
// the pause flag.
func (t *DiscordTransport) stream(ctx context.Context, conn *voiceConn, r io.Reader) error {
	if err := conn.vc.Speaking(true); err != nil {
		slog.Warn("failed to set speaking state", "error", err)
	}
	defer func() {
		if err := conn.vc.Speaking(false); err != nil {
			slog.Warn("failed to clear speaking state", "error", err)
		}
	}()

	packets := newOggPacketReader(r)
	ticker := time.NewTicker(opusFrameDuration)
	defer ticker.Stop()

	skipped := 0
	for {
		packet, err := packets.NextPacket()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read opus packet: %w", err)
		}
		// The first two ogg packets are the OpusHead/OpusTags headers, not
		// audio frames.
		if skipped < 2 {
			skipped++
			continue
		}

		for conn.paused.Load() {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(opusFrameDuration):
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		select {
		case <-ctx.Done():
			return nil
		case conn.vc.OpusSend <- packet:
		}
	}
}

// StopAudio aborts the in-flight playback, if any.
func (t *DiscordTransport) StopAudio(guildID snowflake.ID) error {
	t.mu.Lock()
	conn := t.conns[guildID]
	t.mu.Unlock()
	if conn != nil && conn.cancel != nil {
		conn.cancel()
	}
	return nil
}

// Pause suspends frame delivery.
func (t *DiscordTransport) Pause(guildID snowflake.ID) error {
	t.mu.Lock()
	conn := t.conns[guildID]
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("no voice connection for guild %s", guildID)
	}
	conn.paused.Store(true)
	return nil
}

// Resume reverses Pause.
func (t *DiscordTransport) Resume(guildID snowflake.ID) error {
	t.mu.Lock()
	conn := t.conns[guildID]
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("no voice connection for guild %s", guildID)
	}
	conn.paused.Store(false)
	return nil
}

// Disconnect leaves the guild's voice channel.
func (t *DiscordTransport) Disconnect(_ context.Context, guildID snowflake.ID) error {
	t.mu.Lock()
	conn := t.conns[guildID]
	delete(t.conns, guildID)
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	if conn.cancel != nil {
		conn.cancel()
	}
	if conn.vc != nil {
		return conn.vc.Disconnect()
	}
	return nil
}
