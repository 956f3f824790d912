package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogHandler_ProductWithVariants(t *testing.T) {
	f := newAPIFixture(t)
	variant := f.packVariant(t, "Shirt", 12)

	assert.Equal(t, 12, variant.StockQuantity)
	assert.True(t, variant.IsPack)
	assert.Equal(t, 6, variant.UnitsPerPack)

	w := f.request(http.MethodGet, "/api/v1/catalog/products/"+variant.ProductID.String(), nil)
	product := decodeData[ProductResponse](t, w, http.StatusOK)
	assert.Equal(t, "Shirt", product.Name)
	assert.Equal(t, 12, product.StockQuantity)
	require.Len(t, product.Variants, 1)
	assert.Equal(t, variant.ID, product.Variants[0].ID)

	w = f.request(http.MethodGet, "/api/v1/catalog/variants/"+variant.ID.String(), nil)
	assert.Equal(t, variant.ID, decodeData[VariantResponse](t, w, http.StatusOK).ID)
}

func TestCatalogHandler_CreateVariant_Validation(t *testing.T) {
	f := newAPIFixture(t)
	w := f.request(http.MethodPost, "/api/v1/catalog/products", map[string]string{"name": "Shirt"})
	product := decodeData[ProductResponse](t, w, http.StatusCreated)
	path := "/api/v1/catalog/products/" + product.ID.String() + "/variants"

	tests := []struct {
		name   string
		path   string
		body   map[string]any
		status int
		code   string
	}{
		{"negative price", path, map[string]any{"single_sale_price": "-1"}, http.StatusBadRequest, dto.ErrCodeInvalidAmount},
		{"negative stock", path, map[string]any{"single_sale_price": "10", "stock": -1}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"unknown product", "/api/v1/catalog/products/" + uuid.NewString() + "/variants",
			map[string]any{"single_sale_price": "10"}, http.StatusNotFound, dto.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.request(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.code, errorCode(t, w, tt.status))
		})
	}
}

func TestCatalogHandler_QuotePrice(t *testing.T) {
	f := newAPIFixture(t)
	variant := f.packVariant(t, "Shirt", 20)

	tests := []struct {
		name     string
		quantity string
		packs    int
		leftover int
		total    string
	}{
		{"singles only", "4", 0, 4, "40"},
		{"one pack and two singles", "8", 1, 2, "74"},
		{"two packs", "12", 2, 0, "108"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.request(http.MethodGet, "/api/v1/catalog/variants/"+variant.ID.String()+"/quote?quantity="+tt.quantity, nil)
			quote := decodeData[QuoteResponse](t, w, http.StatusOK)
			assert.Equal(t, tt.packs, quote.NumPacks)
			assert.Equal(t, tt.leftover, quote.Leftover)
			assert.True(t, quote.Total.Equal(dec(tt.total)), "total %s", quote.Total)
		})
	}

	t.Run("quantity is required", func(t *testing.T) {
		w := f.request(http.MethodGet, "/api/v1/catalog/variants/"+variant.ID.String()+"/quote", nil)
		assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w, http.StatusBadRequest))
	})
}

func TestCatalogHandler_UpdateAndDeleteVariant(t *testing.T) {
	f := newAPIFixture(t)
	variant := f.packVariant(t, "Shirt", 5)
	path := "/api/v1/catalog/variants/" + variant.ID.String()

	w := f.request(http.MethodPut, path, map[string]any{
		"color":             "Red",
		"size":              "L",
		"purchase_price":    "5",
		"single_sale_price": "12",
		"pack_sale_price":   "60",
		"is_pack":           true,
		"units_per_pack":    6,
	})
	updated := decodeData[VariantResponse](t, w, http.StatusOK)
	assert.Equal(t, "Red", updated.Color)
	assert.True(t, updated.SingleSalePrice.Equal(dec("12")))
	assert.Equal(t, 5, updated.StockQuantity, "update leaves stock alone")
	assert.Greater(t, updated.Version, variant.Version)

	w = f.request(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.request(http.MethodGet, path, nil)
	assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w, http.StatusNotFound))

	w = f.request(http.MethodGet, "/api/v1/catalog/products/"+variant.ProductID.String(), nil)
	assert.Equal(t, 0, decodeData[ProductResponse](t, w, http.StatusOK).StockQuantity)
}

func TestCatalogHandler_ReduceStock(t *testing.T) {
	f := newAPIFixture(t)
	variant := f.packVariant(t, "Shirt", 5)
	path := "/api/v1/catalog/variants/" + variant.ID.String() + "/reduce-stock"

	w := f.request(http.MethodPost, path, map[string]int{"quantity": 3})
	assert.Equal(t, 2, decodeData[VariantResponse](t, w, http.StatusOK).StockQuantity)

	w = f.request(http.MethodPost, path, map[string]int{"quantity": 3})
	assert.Equal(t, dto.ErrCodeInsufficientStock, errorCode(t, w, http.StatusUnprocessableEntity))

	w = f.request(http.MethodPost, path, map[string]int{"quantity": 0})
	assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w, http.StatusBadRequest))
}
