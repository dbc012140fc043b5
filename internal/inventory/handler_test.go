package inventory

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ladleworks/ladle/internal/shared"
)

type captureAudit struct {
	logs []shared.AuditLog
}

func (a *captureAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func TestAdjustEndpointRecordsActor(t *testing.T) {
	repo := newMemoryInvRepo(Line{BranchID: 1, IngredientID: 11, CurrentStock: 5, ReorderLevel: 50})
	audit := &captureAudit{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo, audit))
	router := chi.NewRouter()
	router.Route("/inventory", handler.MountRoutes)

	req := httptest.NewRequest(http.MethodPost, "/inventory/adjust",
		strings.NewReader(`{"branch_id":1,"ingredient_id":11,"delta":10,"reason":"stocktake"}`))
	req.Header.Set("X-Actor-ID", "9")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, audit.logs, 1)
	require.Equal(t, int64(9), audit.logs[0].ActorID)
	require.Equal(t, "inventory:ADJUST", audit.logs[0].Action)
}

func TestAdjustEndpointWithoutActorHeader(t *testing.T) {
	repo := newMemoryInvRepo(Line{BranchID: 1, IngredientID: 11, CurrentStock: 5, ReorderLevel: 50})
	audit := &captureAudit{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo, audit))
	router := chi.NewRouter()
	router.Route("/inventory", handler.MountRoutes)

	req := httptest.NewRequest(http.MethodPost, "/inventory/adjust",
		strings.NewReader(`{"branch_id":1,"ingredient_id":11,"delta":10}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, audit.logs, 1)
	require.Equal(t, int64(0), audit.logs[0].ActorID)
}
