package purchasing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	mdshared "github.com/ladleworks/ladle/internal/masterdata/shared"
	"github.com/ladleworks/ladle/internal/observability"
	"github.com/ladleworks/ladle/internal/platform/httpx"
	"github.com/ladleworks/ladle/internal/shared"
)

// Handler exposes purchase order endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	metrics  *observability.Metrics
	validate *validator.Validate
	printer  *message.Printer
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		metrics:  metrics,
		validate: validator.New(),
		printer:  message.NewPrinter(language.English),
	}
}

// MountRoutes registers purchase order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/auto-generate/preview", h.handlePreview)
	r.Post("/auto-generate", h.handleAutoGenerate)
	r.Get("/{id}", h.handleGet)
	r.Patch("/{id}/status", h.handleUpdateStatus)
	r.Post("/{id}/receive", h.handleReceive)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	branchID, _ := strconv.ParseInt(r.URL.Query().Get("branch_id"), 10, 64)
	groups, err := h.service.PreviewShortages(r.Context(), branchID)
	if err != nil {
		h.respondError(w, "shortage preview", err)
		return
	}
	httpx.Data(w, http.StatusOK, toPreviewResponse(branchID, groups))
}

func (h *Handler) handleAutoGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	input := GenerateInput{ActorID: actorFrom(r)}
	for _, order := range req.PurchaseOrders {
		draft := Draft{SupplierID: order.SupplierID, BranchID: order.BranchID}
		for _, ing := range order.Ingredients {
			draft.Lines = append(draft.Lines, DraftLine{IngredientID: ing.IngredientID, Quantity: ing.Quantity})
		}
		input.Orders = append(input.Orders, draft)
	}

	ids, err := h.service.AutoGenerate(r.Context(), input)
	if err != nil {
		h.respondError(w, "auto generate", err)
		return
	}
	if h.metrics != nil {
		for range ids {
			h.metrics.PurchaseOrderCreated()
		}
	}
	lineCount := 0
	for _, order := range input.Orders {
		lineCount += len(order.Lines)
	}
	httpx.Data(w, http.StatusCreated, generateResponse{
		CreatedCount: len(ids),
		POIDs:        ids,
		Summary: h.printer.Sprintf("created %d purchase orders covering %d items",
			len(ids), lineCount),
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := CreateInput{
		ActorID:    actorFrom(r),
		BranchID:   req.BranchID,
		SupplierID: req.SupplierID,
		Note:       req.Note,
	}
	if req.ExpectedDeliveryDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ExpectedDeliveryDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expectedDeliveryDate must be YYYY-MM-DD")
			return
		}
		input.ExpectedDeliveryDate = parsed
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, CreateItem{
			IngredientName: item.IngredientName,
			Quantity:       item.Quantity,
			Unit:           item.Unit,
			UnitPrice:      item.UnitPrice,
		})
	}

	id, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, "create purchase order", err)
		return
	}
	if h.metrics != nil {
		h.metrics.PurchaseOrderCreated()
	}
	httpx.Data(w, http.StatusCreated, map[string]any{"po_id": id})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	po, lines, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get purchase order", err)
		return
	}
	httpx.Data(w, http.StatusOK, toDetailDTO(po, lines))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	if page < mdshared.DefaultPage {
		page = mdshared.DefaultPage
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = mdshared.DefaultLimit
	}
	supplierID, _ := strconv.ParseInt(query.Get("supplier_id"), 10, 64)
	branchID, _ := strconv.ParseInt(query.Get("branch_id"), 10, 64)

	filters := ListFilters{
		SupplierID: supplierID,
		BranchID:   branchID,
		Search:     query.Get("q"),
		SortBy:     query.Get("sort_by"),
		SortDir:    query.Get("sort_dir"),
	}
	if raw := query.Get("status"); raw != "" {
		status := Status(raw)
		if !status.Valid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status "+raw)
			return
		}
		filters.Status = status
	}

	items, total, err := h.service.List(r.Context(), limit, (page-1)*limit, filters)
	if err != nil {
		h.respondError(w, "list purchase orders", err)
		return
	}
	httpx.Data(w, http.StatusOK, map[string]any{
		"purchase_orders": items,
		"total":           total,
		"page":            page,
		"limit":           limit,
	})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.UpdateStatus(r.Context(), actorFrom(r), id, Status(req.Status)); err != nil {
		h.respondError(w, "update status", err)
		return
	}
	httpx.Data(w, http.StatusOK, map[string]any{"po_id": id, "status": req.Status})
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req receiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	record := ReceivingRecord{POID: id}
	for _, item := range req.Items {
		record.Lines = append(record.Lines, ReceiptLine{POLineID: item.POLineID, QtyReceived: item.QtyReceived})
	}
	if err := h.service.Receive(r.Context(), actorFrom(r), record); err != nil {
		h.respondError(w, "receive purchase order", err)
		return
	}
	httpx.Data(w, http.StatusOK, map[string]any{"po_id": id, "status": StatusReceived})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrInvalidTransition):
		if h.metrics != nil {
			h.metrics.TransitionRejected()
		}
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrEmptyDraft):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", "delivery already recorded")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

// actorFrom reads the acting user from the X-Actor-ID header. Authentication
// sits in front of this service; the gateway injects the header.
func actorFrom(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return id
}
