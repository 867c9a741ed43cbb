// Package stats recomputes the per-user counters cached on user records
// from the submission ledger.
package stats

import (
	"context"
	"fmt"
	"log"
	"sync"

	"submitdesk-bot/internal/storage"
	"submitdesk-bot/internal/storage/models"
)

const defaultBatchSize = 10

// Reconciler walks the user ledger and rewrites stale cached counters.
type Reconciler struct {
	users     storage.UserRepository
	subs      storage.SubmissionRepository
	batchSize int
}

// NewReconciler creates a reconciler. A non-positive batchSize falls back
// to the default.
func NewReconciler(users storage.UserRepository, subs storage.SubmissionRepository, batchSize int) *Reconciler {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Reconciler{users: users, subs: subs, batchSize: batchSize}
}

// Run pages through all users in batches, recomputes each user's counters
// concurrently, and writes back only those that differ from the cached
// values. It returns the number of users whose counters were corrected.
// A failure for one user does not abort the sweep.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	corrected := 0
	startID := int64(1)

	for {
		if err := ctx.Err(); err != nil {
			return corrected, err
		}

		batch, err := r.users.ListFrom(ctx, startID, r.batchSize)
		if err != nil {
			return corrected, fmt.Errorf("failed to list users from id %d: %w", startID, err)
		}
		if len(batch) == 0 {
			break
		}

		changed := make([]bool, len(batch))
		var wg sync.WaitGroup
		for i := range batch {
			wg.Add(1)
			go func(i int, user models.User) {
				defer wg.Done()
				updated, err := r.reconcileUser(ctx, user)
				if err != nil {
					log.Printf("[Stats User:%d] Failed to reconcile counters: %v", user.TelegramID, err)
					return
				}
				changed[i] = updated
			}(i, batch[i])
		}
		wg.Wait()

		for _, c := range changed {
			if c {
				corrected++
			}
		}

		startID += int64(r.batchSize)
	}

	return corrected, nil
}

// reconcileUser recomputes one user's counters from the submission ledger
// and writes them back when they differ from the cached copy. Returns
// whether a write happened.
func (r *Reconciler) reconcileUser(ctx context.Context, user models.User) (bool, error) {
	fresh, err := r.computeCounters(ctx, user.TelegramID)
	if err != nil {
		return false, err
	}
	if fresh == user.Counters {
		return false, nil
	}
	if err := r.users.UpdateCounters(ctx, user.TelegramID, fresh); err != nil {
		return false, fmt.Errorf("failed to update counters: %w", err)
	}
	return true, nil
}

func (r *Reconciler) computeCounters(ctx context.Context, telegramID int64) (models.Counters, error) {
	var c models.Counters

	submitted, err := r.subs.CountByPoster(ctx, telegramID)
	if err != nil {
		return c, fmt.Errorf("failed to count submissions: %w", err)
	}
	accepted, err := r.subs.CountByPosterStatus(ctx, telegramID, models.StatusAccepted)
	if err != nil {
		return c, fmt.Errorf("failed to count accepted submissions: %w", err)
	}
	rejected, err := r.subs.CountByPosterStatus(ctx, telegramID, models.StatusRejected)
	if err != nil {
		return c, fmt.Errorf("failed to count rejected submissions: %w", err)
	}
	expired, err := r.subs.CountExpiredByPoster(ctx, telegramID)
	if err != nil {
		return c, fmt.Errorf("failed to count expired submissions: %w", err)
	}
	reviewed, err := r.subs.CountReviewedBy(ctx, telegramID)
	if err != nil {
		return c, fmt.Errorf("failed to count reviews: %w", err)
	}

	c = models.Counters{
		Submitted: int(submitted),
		Accepted:  int(accepted),
		Rejected:  int(rejected),
		Expired:   int(expired),
		Reviewed:  int(reviewed),
	}
	return c, nil
}
