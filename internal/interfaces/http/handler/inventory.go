package handler

import (
	"github.com/gin-gonic/gin"
	inventoryapp "github.com/retailpos/backend/internal/application/inventory"
)

// InventoryHandler serves waste records
type InventoryHandler struct {
	BaseHandler
	waste *inventoryapp.WasteService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(waste *inventoryapp.WasteService) *InventoryHandler {
	return &InventoryHandler{waste: waste}
}

// RecordWaste handles POST /inventory/waste
func (h *InventoryHandler) RecordWaste(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	var req RecordWasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	record, err := h.waste.RecordWaste(c.Request.Context(), inventoryapp.RecordWasteInput{
		ShopID:    shopID,
		UserID:    h.userID(c),
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toWasteResponse(record))
}

// GetWaste handles GET /inventory/waste/:id
func (h *InventoryHandler) GetWaste(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	wasteID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	record, err := h.waste.GetWaste(c.Request.Context(), shopID, wasteID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toWasteResponse(record))
}

// CorrectQuantity handles PUT /inventory/waste/:id/quantity
func (h *InventoryHandler) CorrectQuantity(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	wasteID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	record, err := h.waste.CorrectWasteQuantity(c.Request.Context(), shopID, wasteID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toWasteResponse(record))
}
