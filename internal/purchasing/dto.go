package purchasing

import "time"

// Wire DTOs. Field names are part of the API contract; the preview and
// receive payloads use snake_case while manual creation keeps the camelCase
// shape existing clients already send.

type previewIngredientDTO struct {
	IngredientID      int64   `json:"ingredient_id"`
	IngredientName    string  `json:"ingredient_name"`
	BranchName        string  `json:"branch_name"`
	CurrentStock      float64 `json:"current_stock"`
	ReorderLevel      float64 `json:"reorder_level"`
	Unit              string  `json:"unit"`
	UnitPrice         float64 `json:"unit_price"`
	SuggestedQuantity float64 `json:"suggested_quantity"`
}

type previewSupplierDTO struct {
	SupplierID   int64                  `json:"supplier_id"`
	SupplierName string                 `json:"supplier_name"`
	Ingredients  []previewIngredientDTO `json:"ingredients"`
}

type previewResponse struct {
	BranchID  int64                `json:"branch_id"`
	Suppliers []previewSupplierDTO `json:"suppliers"`
}

type generateIngredientDTO struct {
	IngredientID int64   `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
}

type generateOrderDTO struct {
	SupplierID  int64                   `json:"supplier_id"`
	BranchID    int64                   `json:"branch_id"`
	Ingredients []generateIngredientDTO `json:"ingredients"`
}

type generateRequest struct {
	PurchaseOrders []generateOrderDTO `json:"purchase_orders"`
}

type generateResponse struct {
	CreatedCount int     `json:"created_count"`
	POIDs        []int64 `json:"po_ids"`
	Summary      string  `json:"summary"`
}

type createItemDTO struct {
	IngredientName string  `json:"ingredientName" validate:"required"`
	Quantity       float64 `json:"quantity" validate:"gt=0"`
	Unit           string  `json:"unit"`
	UnitPrice      float64 `json:"unitPrice" validate:"gte=0"`
}

type createRequest struct {
	BranchID             int64           `json:"branchId" validate:"required,gt=0"`
	SupplierID           int64           `json:"supplierId" validate:"required,gt=0"`
	ExpectedDeliveryDate string          `json:"expectedDeliveryDate"`
	Note                 string          `json:"note"`
	Items                []createItemDTO `json:"items" validate:"required,min=1,dive"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type receiveItemDTO struct {
	POLineID    int64   `json:"po_line_id" validate:"required,gt=0"`
	QtyReceived float64 `json:"quantity_received" validate:"gte=0"`
}

type receiveRequest struct {
	Items []receiveItemDTO `json:"items" validate:"required,min=1,dive"`
}

type poLineDTO struct {
	ID           int64   `json:"po_line_id"`
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"ingredient_name"`
	Unit         string  `json:"unit"`
	QtyOrdered   float64 `json:"quantity_ordered"`
	UnitPrice    float64 `json:"unit_price"`
	Subtotal     float64 `json:"subtotal"`
}

type poDetailDTO struct {
	ID                   int64       `json:"po_id"`
	Number               string      `json:"number"`
	BranchID             int64       `json:"branch_id"`
	SupplierID           int64       `json:"supplier_id"`
	Status               Status      `json:"status"`
	PODate               time.Time   `json:"po_date"`
	ExpectedDeliveryDate time.Time   `json:"expected_delivery_date"`
	Note                 string      `json:"note,omitempty"`
	ReceivedDate         *time.Time  `json:"received_date,omitempty"`
	ReceivedBy           *int64      `json:"received_by,omitempty"`
	Total                float64     `json:"total"`
	Lines                []poLineDTO `json:"lines"`
}

func toDetailDTO(po PurchaseOrder, lines []POLine) poDetailDTO {
	dto := poDetailDTO{
		ID:                   po.ID,
		Number:               po.Number,
		BranchID:             po.BranchID,
		SupplierID:           po.SupplierID,
		Status:               po.Status,
		PODate:               po.PODate,
		ExpectedDeliveryDate: po.ExpectedDeliveryDate,
		Note:                 po.Note,
		ReceivedDate:         po.ReceivedDate,
		ReceivedBy:           po.ReceivedBy,
		Lines:                make([]poLineDTO, 0, len(lines)),
	}
	for _, line := range lines {
		subtotal := line.QtyOrdered * line.UnitPrice
		dto.Total += subtotal
		dto.Lines = append(dto.Lines, poLineDTO{
			ID:           line.ID,
			IngredientID: line.IngredientID,
			Name:         line.Name,
			Unit:         line.Unit,
			QtyOrdered:   line.QtyOrdered,
			UnitPrice:    line.UnitPrice,
			Subtotal:     subtotal,
		})
	}
	return dto
}

func toPreviewResponse(branchID int64, groups []ShortageGroup) previewResponse {
	resp := previewResponse{BranchID: branchID, Suppliers: make([]previewSupplierDTO, 0, len(groups))}
	for _, group := range groups {
		supplier := previewSupplierDTO{
			SupplierID:   group.SupplierID,
			SupplierName: group.SupplierName,
			Ingredients:  make([]previewIngredientDTO, 0, len(group.Lines)),
		}
		for _, line := range group.Lines {
			supplier.Ingredients = append(supplier.Ingredients, previewIngredientDTO{
				IngredientID:      line.IngredientID,
				IngredientName:    line.IngredientName,
				BranchName:        line.BranchName,
				CurrentStock:      line.CurrentStock,
				ReorderLevel:      line.ReorderLevel,
				Unit:              line.Unit,
				UnitPrice:         line.UnitPrice,
				SuggestedQuantity: line.SuggestedQuantity,
			})
		}
		resp.Suppliers = append(resp.Suppliers, supplier)
	}
	return resp
}
