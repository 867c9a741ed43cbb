package ads

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"

	"submitdesk-bot/internal/storage"
)

// DefaultPublishInterval is how often the scheduler refreshes placements.
const DefaultPublishInterval = time.Hour

// Scheduler periodically republishes every enabled advertisement into the
// destination chats.
type Scheduler struct {
	manager      *SlotManager
	ads          storage.AdvertisementRepository
	destinations []int64
	interval     time.Duration
}

// NewScheduler creates a scheduler. A non-positive interval falls back to
// the default. Unresolved destinations should be filtered out by the caller.
func NewScheduler(manager *SlotManager, ads storage.AdvertisementRepository, destinations []int64, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultPublishInterval
	}
	return &Scheduler{manager: manager, ads: ads, destinations: destinations, interval: interval}
}

// Run publishes on every tick until the context is cancelled. Failures are
// logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) {
	if len(s.destinations) == 0 {
		log.Println("[Ads] No destinations configured, scheduler idle")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.publishAll(ctx)
		}
	}
}

func (s *Scheduler) publishAll(ctx context.Context) {
	enabled, err := s.ads.ListEnabled(ctx)
	if err != nil {
		log.Printf("[Ads] Failed to list enabled advertisements: %v", err)
		sentry.CaptureException(err)
		return
	}

	for i := range enabled {
		ad := &enabled[i]
		for _, dest := range s.destinations {
			if _, err := s.manager.Publish(ctx, ad, dest); err != nil {
				log.Printf("[Ads Chat:%d] Failed to publish advertisement %s: %v", dest, ad.ID.Hex(), err)
				sentry.CaptureException(err)
			}
		}
	}
}
