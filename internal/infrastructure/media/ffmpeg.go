package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"courtstream/internal/core/ports"

	"go.uber.org/zap"
)

// Every segment is normalized to a common canvas so stream-copy
// concatenation works across heterogeneous camera uploads.
const (
	segmentFilter = "scale=1280:720:force_original_aspect_ratio=decrease," +
		"pad=1280:720:(ow-iw)/2:(oh-ih)/2,setsar=1"
	segmentFrameRate = "30"
	pixelFormat      = "yuv420p"
)

// FFmpeg runs the external encoder as a subprocess. It implements
// ports.Encoder; every invocation honors context cancellation.
type FFmpeg struct {
	path   string
	logger *zap.SugaredLogger
}

func NewFFmpeg(path string, logger *zap.SugaredLogger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path, logger: logger}
}

// CheckAvailable verifies the encoder binary is installed and runnable.
func (f *FFmpeg) CheckAvailable() error {
	out, err := exec.Command(f.path, "-version").Output()
	if err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	if !strings.Contains(string(out), "ffmpeg version") {
		return fmt.Errorf("ffmpeg not properly installed")
	}
	return nil
}

// ExtractSegment cuts one EDL window from a source capture, normalizing
// resolution, pixel aspect, pixel format and frame rate.
func (f *FFmpeg) ExtractSegment(ctx context.Context, job ports.SegmentJob) error {
	args := []string{"-y", "-ss", fmt.Sprintf("%.3f", job.StartSeconds), "-i", job.Source}
	if !job.ToEnd {
		args = append(args, "-t", fmt.Sprintf("%.3f", job.DurationSeconds))
	}
	args = append(args,
		"-vf", segmentFilter,
		"-r", segmentFrameRate,
		"-pix_fmt", pixelFormat,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-c:a", "aac",
		job.Output,
	)
	return f.run(ctx, args)
}

// Concat stitches segment files listed in the manifest into one output
// without re-encoding.
func (f *FFmpeg) Concat(ctx context.Context, manifestPath, outputPath string) error {
	return f.run(ctx, []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		outputPath,
	})
}

// Transcode re-encodes a raw capture into a broadly compatible deliverable.
func (f *FFmpeg) Transcode(ctx context.Context, inputPath, outputPath string) error {
	return f.run(ctx, []string{
		"-y",
		"-i", inputPath,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", pixelFormat,
		"-c:a", "aac",
		outputPath,
	})
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.path, args...)

	// ffmpeg writes diagnostics to stderr; keep the tail for errors.
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if f.logger != nil {
		f.logger.Debugw("running encoder", "args", strings.Join(args, " "))
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("encoder canceled: %w", ctx.Err())
		}
		return fmt.Errorf("encoder failed: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
