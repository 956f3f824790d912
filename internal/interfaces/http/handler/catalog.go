package handler

import (
	"github.com/gin-gonic/gin"
	catalogapp "github.com/retailpos/backend/internal/application/catalog"
)

// CatalogHandler serves products, variants, stock reductions and price quotes
type CatalogHandler struct {
	BaseHandler
	variants *catalogapp.VariantService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(variants *catalogapp.VariantService) *CatalogHandler {
	return &CatalogHandler{variants: variants}
}

// CreateProduct handles POST /catalog/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.variants.CreateProduct(c.Request.Context(), shopID, catalogapp.CreateProductInput(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toProductResponse(product))
}

// GetProduct handles GET /catalog/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.variants.GetProduct(c.Request.Context(), shopID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := toProductResponse(detail.Product)
	resp.Variants = make([]VariantResponse, 0, len(detail.Variants))
	for i := range detail.Variants {
		resp.Variants = append(resp.Variants, toVariantResponse(&detail.Variants[i]))
	}
	h.Success(c, resp)
}

// CreateVariant handles POST /catalog/products/:id/variants
func (h *CatalogHandler) CreateVariant(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req CreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	variant, err := h.variants.CreateVariant(c.Request.Context(), shopID, productID, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toVariantResponse(variant))
}

// GetVariant handles GET /catalog/variants/:id
func (h *CatalogHandler) GetVariant(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	variantID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	variant, err := h.variants.GetVariant(c.Request.Context(), shopID, variantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toVariantResponse(variant))
}

// UpdateVariant handles PUT /catalog/variants/:id
func (h *CatalogHandler) UpdateVariant(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	variantID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req UpdateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	variant, err := h.variants.UpdateVariant(c.Request.Context(), shopID, variantID, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toVariantResponse(variant))
}

// DeleteVariant handles DELETE /catalog/variants/:id
func (h *CatalogHandler) DeleteVariant(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	variantID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.variants.DeleteVariant(c.Request.Context(), shopID, variantID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// QuotePrice handles GET /catalog/variants/:id/quote?quantity=N
func (h *CatalogHandler) QuotePrice(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	variantID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var q QuoteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	price, err := h.variants.QuotePrice(c.Request.Context(), shopID, variantID, q.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toQuoteResponse(variantID, price))
}

// ReduceStock handles POST /catalog/variants/:id/reduce-stock
func (h *CatalogHandler) ReduceStock(c *gin.Context) {
	shopID, ok := h.shopID(c)
	if !ok {
		return
	}
	variantID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	variant, err := h.variants.ReduceStock(c.Request.Context(), shopID, variantID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toVariantResponse(variant))
}
