package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/taskforge/attachment-service/internal/domain/repository"
	"github.com/taskforge/attachment-service/internal/domain/storage"
	"go.uber.org/zap"
)

// Reconciler is the compensating action for the narrow window between byte
// commit and metadata insert: a crash or metadata failure there leaves an
// orphaned blob with no record. The sweep lists the blob store, filters out
// names the metadata table knows, and removes the rest.
//
// A name is only removed when it was already unknown on the previous sweep.
// An upload that has committed its bytes but not yet written its record
// looks orphaned for an instant; the two-pass rule keeps the sweep from
// racing it, without depending on backend timestamps.
type Reconciler struct {
	store       storage.BlobStore
	attachments repository.AttachmentRepository
	interval    time.Duration
	logger      *zap.Logger

	suspects map[string]struct{}
}

// NewReconciler creates a reconciler sweeping at the given interval.
func NewReconciler(store storage.BlobStore, attachments repository.AttachmentRepository, interval time.Duration, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:       store,
		attachments: attachments,
		interval:    interval,
		logger:      logger,
		suspects:    make(map[string]struct{}),
	}
}

// Run sweeps on the configured interval until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed, err := r.Sweep(ctx); err != nil {
				r.logger.Error("Reconciliation sweep failed", zap.Error(err))
			} else if removed > 0 {
				r.logger.Info("Reconciliation sweep reclaimed orphans", zap.Int("removed", removed))
			}
		}
	}
}

// Sweep performs one reconciliation pass and returns how many orphaned blobs
// were removed.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	names, err := r.store.List(ctx)
	if err != nil {
		return 0, err
	}

	known, err := r.attachments.FilterKnownStorageNames(ctx, names)
	if err != nil {
		return 0, err
	}

	removed := 0
	nextSuspects := make(map[string]struct{})
	for _, name := range names {
		if _, ok := known[name]; ok {
			continue
		}
		if _, seenBefore := r.suspects[name]; !seenBefore {
			nextSuspects[name] = struct{}{}
			continue
		}

		if err := r.store.Remove(ctx, name); err != nil && !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("Failed to remove orphaned blob",
				zap.String("storage_name", name),
				zap.Error(err))
			nextSuspects[name] = struct{}{}
			continue
		}
		r.logger.Info("Removed orphaned blob", zap.String("storage_name", name))
		removed++
	}

	r.suspects = nextSuspects
	return removed, nil
}
