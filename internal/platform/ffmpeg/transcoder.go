package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phrazzld/postmedia/internal/media"
)

// ErrTranscodeFailed is returned when ffmpeg exits with an error.
var ErrTranscodeFailed = errors.New("ffmpeg transcode failed")

// maxStderr bounds how much ffmpeg output is kept in errors
const maxStderr = 2048

// Config controls video transcoding
type Config struct {
	// BinaryPath is the ffmpeg executable, resolved through PATH when relative
	BinaryPath string
	// MaxWidth is the widest output frame in pixels; narrower input is kept
	MaxWidth int
	// TempDir holds intermediate files. Empty uses os.TempDir.
	TempDir string
}

// Transcoder implements media.Compressor for videos.
type Transcoder struct {
	config Config
	logger *slog.Logger
}

var _ media.Compressor = (*Transcoder)(nil)

// NewTranscoder creates a Transcoder.
func NewTranscoder(config Config, logger *slog.Logger) (*Transcoder, error) {
	if config.BinaryPath == "" {
		return nil, fmt.Errorf("ffmpeg binary path cannot be empty")
	}
	if config.MaxWidth <= 0 {
		return nil, fmt.Errorf("max width must be positive, got %d", config.MaxWidth)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Transcoder{
		config: config,
		logger: logger.With("component", "video_transcoder"),
	}, nil
}

// Compress writes raw to a temporary file, runs ffmpeg on it and returns the
// encoded MP4. The ffmpeg process is killed when ctx is cancelled.
func (t *Transcoder) Compress(ctx context.Context, raw media.Raw) (media.Encoded, error) {
	if raw.Kind != media.KindVideo {
		return media.Encoded{}, fmt.Errorf("%w: %q is not a video", media.ErrUnsupportedKind, raw.Kind)
	}

	dir, err := os.MkdirTemp(t.config.TempDir, "postmedia-video-*")
	if err != nil {
		return media.Encoded{}, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			t.logger.Warn("failed to remove work directory", "error", err)
		}
	}()

	input := filepath.Join(dir, "input"+inputExt(raw.Filename))
	output := filepath.Join(dir, "output.mp4")

	if err := os.WriteFile(input, raw.Data, 0o600); err != nil {
		return media.Encoded{}, fmt.Errorf("failed to write input: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.config.BinaryPath, BuildArgs(input, output, t.config.MaxWidth)...)
	cmd.Stderr = &stderr

	t.logger.Debug("running ffmpeg", "size_bytes", len(raw.Data), "max_width", t.config.MaxWidth)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return media.Encoded{}, ctxErr
		}
		return media.Encoded{}, fmt.Errorf("%w: %w: %s", ErrTranscodeFailed, err, tail(stderr.String(), maxStderr))
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return media.Encoded{}, fmt.Errorf("failed to read output: %w", err)
	}
	if len(data) == 0 {
		return media.Encoded{}, fmt.Errorf("%w: empty output", ErrTranscodeFailed)
	}

	return media.Encoded{
		Kind:        media.KindVideo,
		ContentType: "video/mp4",
		Data:        data,
	}, nil
}

// BuildArgs returns the ffmpeg arguments transcoding input into output.
func BuildArgs(input, output string, maxWidth int) []string {
	width := strconv.Itoa(maxWidth)
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", input,
		// Never upscale; -2 keeps the height even as libx264 requires
		"-vf", "scale='min(" + width + ",iw)':-2",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "28",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		output,
	}
}

func inputExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 6 {
		return ".bin"
	}
	return ext
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
