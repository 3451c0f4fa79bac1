package videos

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// YTDLPProber reads video details with the yt-dlp CLI tool.
type YTDLPProber struct {
	Binary  string
	Args    []string
	Run     CommandRunner
	Timeout time.Duration
}

// NewYTDLPProber constructs a Prober that shells out to yt-dlp.
func NewYTDLPProber(binary string, timeout time.Duration) *YTDLPProber {
	if strings.TrimSpace(binary) == "" {
		binary = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YTDLPProber{
		Binary:  binary,
		Args:    []string{"--dump-single-json", "--no-warnings", "--no-playlist", "--skip-download"},
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

// Probe executes yt-dlp for url and parses the JSON response.
func (p *YTDLPProber) Probe(ctx context.Context, url string) (Info, error) {
	if p == nil {
		return Info{}, ErrProberUnavailable
	}
	run := p.Run
	if run == nil {
		run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	// "--" stops yt-dlp from reading a dash-prefixed url as an option.
	args := append([]string{}, p.Args...)
	args = append(args, "--", url)

	out, err := run(execCtx, p.Binary, args...)
	if err != nil {
		return Info{}, fmt.Errorf("yt-dlp probe: %w", err)
	}

	var payload struct {
		Thumbnail  string  `json:"thumbnail"`
		Duration   float64 `json:"duration"`
		Thumbnails []struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return Info{}, fmt.Errorf("parse yt-dlp response: %w", err)
	}

	info := Info{Thumbnail: payload.Thumbnail, Duration: payload.Duration}
	if info.Thumbnail == "" && len(payload.Thumbnails) > 0 {
		// yt-dlp lists thumbnails from lowest to highest resolution.
		info.Thumbnail = payload.Thumbnails[len(payload.Thumbnails)-1].URL
	}
	if info.Empty() {
		return Info{}, errors.New("yt-dlp returned no video details")
	}
	return info, nil
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}
