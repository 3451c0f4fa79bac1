package videos

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestYTDLPProberProbe(t *testing.T) {
	prober := NewYTDLPProber("yt-dlp", time.Second)
	prober.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		if binary != "yt-dlp" {
			t.Fatalf("unexpected binary %q", binary)
		}
		wantArgs := []string{"--dump-single-json", "--no-warnings", "--no-playlist", "--skip-download", "--", "https://example.com/v"}
		if len(args) != len(wantArgs) {
			t.Fatalf("unexpected args length: got %d want %d", len(args), len(wantArgs))
		}
		for i, arg := range wantArgs {
			if args[i] != arg {
				t.Fatalf("unexpected arg at %d: got %q want %q", i, args[i], arg)
			}
		}
		return []byte(`{"title":"Example","thumbnail":"thumb.jpg","duration":41.5}`), nil
	}

	info, err := prober.Probe(context.Background(), "https://example.com/v")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if info.Thumbnail != "thumb.jpg" || info.Duration != 41.5 {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestYTDLPProberFallsBackToThumbnailList(t *testing.T) {
	prober := NewYTDLPProber("", 0)
	prober.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		return []byte(`{"thumbnails":[{"url":"small.jpg"},{"url":"large.jpg"}]}`), nil
	}

	info, err := prober.Probe(context.Background(), "https://example.com/v")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if info.Thumbnail != "large.jpg" {
		t.Fatalf("expected last thumbnail, got %q", info.Thumbnail)
	}
	if prober.Binary != "yt-dlp" || prober.Timeout != 30*time.Second {
		t.Fatalf("expected defaults, got %q %v", prober.Binary, prober.Timeout)
	}
}

func TestYTDLPProberEndsOptionsBeforeURL(t *testing.T) {
	var got []string
	prober := NewYTDLPProber("yt-dlp", time.Second)
	prober.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		got = args
		return []byte(`{"thumbnail":"t.jpg"}`), nil
	}

	if _, err := prober.Probe(context.Background(), "--batch-file=/etc/passwd"); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if len(got) < 2 || got[len(got)-2] != "--" || got[len(got)-1] != "--batch-file=/etc/passwd" {
		t.Fatalf("expected url after option terminator, got %q", got)
	}
}

func TestYTDLPProberErrors(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
	}{
		{name: "command failure", err: errors.New("exit status 1")},
		{name: "invalid json", out: "not json"},
		{name: "empty details", out: `{"title":"only a title"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prober := NewYTDLPProber("yt-dlp", time.Second)
			prober.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
				return []byte(tc.out), tc.err
			}
			if _, err := prober.Probe(context.Background(), "https://example.com/v"); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	var nilProber *YTDLPProber
	if _, err := nilProber.Probe(context.Background(), "x"); !errors.Is(err, ErrProberUnavailable) {
		t.Fatalf("expected ErrProberUnavailable, got %v", err)
	}
}
