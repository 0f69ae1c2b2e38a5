package processors

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"videoQuiz/core"
)

// AudioDownloader fetches the audio track of a video URL into a local file
// named after the content key. Implementations must respect ctx deadlines.
type AudioDownloader interface {
	Download(ctx context.Context, url, key string) (string, error)
}

// YtDlpDownloader shells out to yt-dlp to extract a video's audio as mp3.
type YtDlpDownloader struct {
	Bin     string
	DataDir string
}

func (d YtDlpDownloader) Download(ctx context.Context, url, key string) (string, error) {
	bin := d.Bin
	if bin == "" {
		bin = "yt-dlp"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return "", fmt.Errorf("%w: %s binary not found: %v", core.ErrUpstreamUnavailable, bin, err)
	}

	outDir := filepath.Join(d.DataDir, "audio")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	args := []string{
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"-o", filepath.Join(outDir, key+".%(ext)s"),
		"--quiet",
		url,
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("%w: yt-dlp: %s", core.ErrUpstreamUnavailable, detail)
	}

	audioPath := filepath.Join(outDir, key+".mp3")
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("%w: yt-dlp produced no audio file: %v", core.ErrUpstreamUnavailable, err)
	}
	return audioPath, nil
}

// MockDownloader skips the network entirely; paired with MockTranscriber for
// running without upstream credentials.
type MockDownloader struct {
	DataDir string
}

func (d MockDownloader) Download(ctx context.Context, url, key string) (string, error) {
	outDir := filepath.Join(d.DataDir, "audio")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	audioPath := filepath.Join(outDir, key+".mp3")
	if err := os.WriteFile(audioPath, []byte{}, 0644); err != nil {
		return "", err
	}
	return audioPath, nil
}
