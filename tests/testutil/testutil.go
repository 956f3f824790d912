// Package testutil holds helpers shared by the integration suite: fixed ids,
// decimal literals and an in-process client for the HTTP API.
package testutil

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var seedNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// NewTestUUID derives a stable UUID from seed.
func NewTestUUID(seed string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(seed))
}

// TestShopID is the default shop of an APIClient.
func TestShopID() uuid.UUID { return NewTestUUID("test-shop") }

// TestUserID is the default cashier of an APIClient.
func TestUserID() uuid.UUID { return NewTestUUID("test-user") }

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
