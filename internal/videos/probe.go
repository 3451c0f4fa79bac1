// Package videos looks up playback details for reel videos.
package videos

import (
	"context"
	"errors"
)

// ErrProberUnavailable indicates no prober is configured.
var ErrProberUnavailable = errors.New("video prober unavailable")

// Info holds the details a reel needs that clients often omit.
type Info struct {
	Thumbnail string
	Duration  float64
}

// Empty reports whether nothing useful was found.
func (i Info) Empty() bool {
	return i.Thumbnail == "" && i.Duration <= 0
}

// Prober returns playback details for a video URL.
type Prober interface {
	Probe(ctx context.Context, url string) (Info, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, url string) (Info, error)

// Probe implements Prober.
func (f ProberFunc) Probe(ctx context.Context, url string) (Info, error) {
	return f(ctx, url)
}
