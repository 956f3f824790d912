package partner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	shopID := uuid.New()

	c, err := NewCustomer(shopID, Contact{Name: "  Ana  ", Phone: "0812", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.Name)
	assert.Equal(t, shopID, c.GetShopID())
	assert.True(t, c.TotalDebt.IsZero())
	assert.NoError(t, shared.EnsureShop(c, shopID))
	assert.ErrorIs(t, shared.EnsureShop(c, uuid.New()), shared.ErrNotFound)

	_, err = NewCustomer(shopID, Contact{Name: " "})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewCustomer(shopID, Contact{Name: "Bo", Email: "not-an-email"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCustomer_RefreshTotalDebt(t *testing.T) {
	c, err := NewCustomer(uuid.New(), Contact{Name: "Ana"})
	require.NoError(t, err)

	c.RefreshTotalDebt(decimal.NewFromInt(40))
	assert.True(t, c.HasDebt())
	assert.True(t, c.TotalDebt.Equal(decimal.NewFromInt(40)))

	c.RefreshTotalDebt(decimal.NewFromInt(-1))
	assert.False(t, c.HasDebt())
}

func TestNewSupplier(t *testing.T) {
	s, err := NewSupplier(uuid.New(), Contact{Name: "Textile Co"})
	require.NoError(t, err)
	assert.Equal(t, "Textile Co", s.Name)

	_, err = NewSupplier(uuid.New(), Contact{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
