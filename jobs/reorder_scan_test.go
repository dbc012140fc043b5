package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/ladleworks/ladle/internal/masterdata/branches"
	"github.com/ladleworks/ladle/internal/masterdata/shared"
	"github.com/ladleworks/ladle/internal/purchasing"
)

type stubPreviews struct {
	scanned []int64
	groups  []purchasing.ShortageGroup
}

func (s *stubPreviews) PreviewShortages(ctx context.Context, branchID int64) ([]purchasing.ShortageGroup, error) {
	s.scanned = append(s.scanned, branchID)
	return s.groups, nil
}

type stubBranches struct {
	branches []branches.Branch
}

func (s *stubBranches) List(ctx context.Context, filters shared.ListFilters) ([]branches.Branch, int, error) {
	return s.branches, len(s.branches), nil
}

func TestReorderScanWalksAllBranches(t *testing.T) {
	previews := &stubPreviews{}
	lister := &stubBranches{branches: []branches.Branch{{ID: 1}, {ID: 2}}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewReorderScanHandler(previews, lister, logger)

	task, err := NewReorderScanTask(0)
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, []int64{1, 2}, previews.scanned)
}

func TestReorderScanSingleBranch(t *testing.T) {
	previews := &stubPreviews{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewReorderScanHandler(previews, &stubBranches{}, logger)

	task, err := NewReorderScanTask(7)
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, []int64{7}, previews.scanned)
}

func TestReorderScanSkipsMalformedPayload(t *testing.T) {
	previews := &stubPreviews{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewReorderScanHandler(previews, &stubBranches{}, logger)

	err := handler(context.Background(), asynq.NewTask(TaskReorderScan, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, previews.scanned)
}
