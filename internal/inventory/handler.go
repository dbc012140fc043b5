package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ladleworks/ladle/internal/platform/httpx"
)

// Handler exposes inventory endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleSnapshot)
	r.Post("/adjust", h.handleAdjust)
}

type lineDTO struct {
	BranchID       int64   `json:"branch_id"`
	BranchName     string  `json:"branch_name"`
	IngredientID   int64   `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name"`
	Unit           string  `json:"unit"`
	CurrentStock   float64 `json:"current_stock"`
	ReorderLevel   float64 `json:"reorder_level"`
	UnitPrice      float64 `json:"unit_price"`
	SupplierID     int64   `json:"supplier_id"`
	SupplierName   string  `json:"supplier_name"`
}

type adjustRequest struct {
	BranchID     int64   `json:"branch_id"`
	IngredientID int64   `json:"ingredient_id"`
	Delta        float64 `json:"delta"`
	Reason       string  `json:"reason"`
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	branchID, _ := strconv.ParseInt(r.URL.Query().Get("branch_id"), 10, 64)
	supplierID, _ := strconv.ParseInt(r.URL.Query().Get("supplier_id"), 10, 64)
	onlyShort := r.URL.Query().Get("below_reorder") == "true"

	lines, err := h.service.Snapshot(r.Context(), SnapshotFilter{
		BranchID:   branchID,
		SupplierID: supplierID,
		OnlyShort:  onlyShort,
	})
	if err != nil {
		h.logger.Error("inventory snapshot", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	dtos := make([]lineDTO, 0, len(lines))
	for _, line := range lines {
		dtos = append(dtos, lineDTO{
			BranchID:       line.BranchID,
			BranchName:     line.BranchName,
			IngredientID:   line.IngredientID,
			IngredientName: line.IngredientName,
			Unit:           line.Unit,
			CurrentStock:   line.CurrentStock,
			ReorderLevel:   line.ReorderLevel,
			UnitPrice:      line.UnitPrice,
			SupplierID:     line.SupplierID,
			SupplierName:   line.SupplierName,
		})
	}
	httpx.Data(w, http.StatusOK, map[string]any{"inventory": dtos})
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	result, err := h.service.Adjust(r.Context(), AdjustmentInput{
		BranchID:     req.BranchID,
		IngredientID: req.IngredientID,
		Delta:        req.Delta,
		Reason:       req.Reason,
		ActorID:      actorFrom(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrLineNotFound):
			httpx.RespondError(w, httpx.ErrNotFound)
		case errors.Is(err, ErrNegativeStock), errors.Is(err, ErrInvalidDelta):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		default:
			h.logger.Error("inventory adjust", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}

	httpx.Data(w, http.StatusOK, map[string]any{
		"branch_id":     req.BranchID,
		"ingredient_id": req.IngredientID,
		"current_stock": result,
	})
}

// actorFrom reads the acting user from the X-Actor-ID header. Authentication
// sits in front of this service; the gateway injects the header.
func actorFrom(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return id
}
