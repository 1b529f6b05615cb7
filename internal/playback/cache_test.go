package playback

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/shared"
	testutil "github.com/chorusfm/chorus/internal/testing"
)

func TestCache(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("SecondCallServedFromCache", func(t *testing.T) {
		resolver := &testutil.MockResolver{}
		cache := NewCache(resolver, logger)

		first, err := cache.GetOrResolve(context.Background(), "track-1", models.QualityNormal)
		if err != nil {
			t.Fatalf("first resolution failed: %v", err)
		}

		second, err := cache.GetOrResolve(context.Background(), "track-1", models.QualityNormal)
		if err != nil {
			t.Fatalf("second resolution failed: %v", err)
		}

		if resolver.CallCount() != 1 {
			t.Errorf("expected 1 resolver call, got %d", resolver.CallCount())
		}
		if first != second {
			t.Error("expected the identical cached descriptor")
		}
	})

	t.Run("ConcurrentCallsShareOneRace", func(t *testing.T) {
		resolver := &testutil.MockResolver{}
		cache := NewCache(resolver, logger)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := cache.GetOrResolve(context.Background(), "track-1", models.QualityNormal); err != nil {
					t.Errorf("resolution failed: %v", err)
				}
			}()
		}
		wg.Wait()

		if resolver.CallCount() != 1 {
			t.Errorf("expected 1 shared resolver call, got %d", resolver.CallCount())
		}
	})

	t.Run("ErrorsNotCached", func(t *testing.T) {
		resolver := &testutil.MockResolver{Err: errors.New("mirrors down")}
		cache := NewCache(resolver, logger)

		if _, err := cache.GetOrResolve(context.Background(), "track-1", models.QualityNormal); err == nil {
			t.Fatal("expected resolution error")
		}
		if cache.Len() != 0 {
			t.Errorf("failed resolution should not be cached, len=%d", cache.Len())
		}

		resolver.Err = nil
		if _, err := cache.GetOrResolve(context.Background(), "track-1", models.QualityNormal); err != nil {
			t.Fatalf("retry after failure should resolve: %v", err)
		}
	})

	t.Run("DistinctIDsResolveSeparately", func(t *testing.T) {
		resolver := &testutil.MockResolver{}
		cache := NewCache(resolver, logger)

		if _, err := cache.GetOrResolve(context.Background(), "track-1", models.QualityNormal); err != nil {
			t.Fatal(err)
		}
		if _, err := cache.GetOrResolve(context.Background(), "track-2", models.QualityNormal); err != nil {
			t.Fatal(err)
		}

		if resolver.CallCount() != 2 {
			t.Errorf("expected 2 resolver calls, got %d", resolver.CallCount())
		}
		if cache.Len() != 2 {
			t.Errorf("expected 2 cached entries, got %d", cache.Len())
		}
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		cache := NewCache(&testutil.MockResolver{}, logger)

		cache.Put("track-1", &models.StreamDescriptor{AudioURL: "https://cdn/old"})
		cache.Put("track-1", &models.StreamDescriptor{AudioURL: "https://cdn/new"})

		desc, ok := cache.Peek("track-1")
		if !ok {
			t.Fatal("expected cached entry")
		}
		if desc.AudioURL != "https://cdn/new" {
			t.Errorf("expected overwritten entry, got %s", desc.AudioURL)
		}
	})
}
