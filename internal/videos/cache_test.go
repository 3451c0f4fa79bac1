package videos

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubProber struct {
	info  Info
	err   error
	calls int
}

func (s *stubProber) Probe(context.Context, string) (Info, error) {
	s.calls++
	if s.err != nil {
		return Info{}, s.err
	}
	return s.info, nil
}

func TestCachingProberProbe(t *testing.T) {
	base := &stubProber{info: Info{Thumbnail: "thumb.jpg", Duration: 12}}
	cache := NewCachingProber(base, time.Minute)

	ctx := context.Background()

	info, err := cache.Probe(ctx, "https://example.com/v.mp4")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if info.Thumbnail != "thumb.jpg" || info.Duration != 12 {
		t.Fatalf("unexpected info: %+v", info)
	}

	if _, err := cache.Probe(ctx, "https://example.com/v.mp4"); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if base.calls != 1 {
		t.Fatalf("expected cached result got %d calls", base.calls)
	}
}

func TestCachingProberErrors(t *testing.T) {
	cache := NewCachingProber(nil, time.Minute)
	if _, err := cache.Probe(context.Background(), "https://example.com"); !errors.Is(err, ErrProberUnavailable) {
		t.Fatalf("expected prober unavailable got %v", err)
	}

	base := &stubProber{err: errors.New("boom")}
	cache = NewCachingProber(base, time.Minute)
	for i := 0; i < 2; i++ {
		if _, err := cache.Probe(context.Background(), "https://example.com"); err == nil {
			t.Fatal("expected error")
		}
	}
	if base.calls != 2 {
		t.Fatalf("expected failures to bypass the cache, got %d calls", base.calls)
	}
}

func TestCachingProberExpiry(t *testing.T) {
	base := &stubProber{info: Info{Duration: 3}}
	cache := NewCachingProber(base, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if _, err := cache.Probe(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("probe: %v", err)
	}

	now = now.Add(2 * time.Minute)

	if _, err := cache.Probe(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected cache miss after expiry got %d calls", base.calls)
	}
}

func TestCachingProberDefaultTTL(t *testing.T) {
	cache := NewCachingProber(&stubProber{}, 0)
	if cache.ttl <= 0 {
		t.Fatalf("expected ttl to default positive got %v", cache.ttl)
	}
}
