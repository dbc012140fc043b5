package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ladleworks/ladle/internal/masterdata/branches"
	"github.com/ladleworks/ladle/internal/masterdata/shared"
	"github.com/ladleworks/ladle/internal/purchasing"
)

// ShortagePreviewer builds the supplier-grouped shortage set for a branch.
type ShortagePreviewer interface {
	PreviewShortages(ctx context.Context, branchID int64) ([]purchasing.ShortageGroup, error)
}

// BranchLister enumerates branches to scan.
type BranchLister interface {
	List(ctx context.Context, filters shared.ListFilters) ([]branches.Branch, int, error)
}

// IdempotencyCleaner prunes aged idempotency keys.
type IdempotencyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// NewReorderScanHandler returns the handler for TaskReorderScan. The scan is
// observation only: it warms the shortage preview and reports counts, the
// operator still drives order creation.
func NewReorderScanHandler(previews ShortagePreviewer, branchList BranchLister, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReorderScanPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return asynq.SkipRetry
			}
		}

		var branchIDs []int64
		if payload.BranchID > 0 {
			branchIDs = []int64{payload.BranchID}
		} else {
			all, _, err := branchList.List(ctx, shared.ListFilters{Page: 1, Limit: 500})
			if err != nil {
				return err
			}
			for _, branch := range all {
				branchIDs = append(branchIDs, branch.ID)
			}
		}

		for _, branchID := range branchIDs {
			groups, err := previews.PreviewShortages(ctx, branchID)
			if err != nil {
				logger.Error("reorder scan", slog.Int64("branch_id", branchID), slog.Any("error", err))
				continue
			}
			lines := 0
			for _, group := range groups {
				lines += len(group.Lines)
			}
			logger.Info("reorder scan",
				slog.Int64("branch_id", branchID),
				slog.Int("suppliers", len(groups)),
				slog.Int("short_lines", lines))
		}
		return nil
	}
}

// NewIdempotencyCleanupHandler returns the handler for TaskIdempotencyCleanup.
func NewIdempotencyCleanupHandler(store IdempotencyCleaner, retention time.Duration, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := store.Cleanup(ctx, retention); err != nil {
			logger.Error("idempotency cleanup", slog.Any("error", err))
			return err
		}
		return nil
	}
}
