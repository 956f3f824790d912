package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/infrastructure/logger"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
)

// Request identity headers. Authentication happens upstream; this service
// trusts the gateway to set them.
const (
	ShopIDHeader         = "X-Shop-ID"
	UserIDHeader         = "X-User-ID"
	IdempotencyKeyHeader = "Idempotency-Key"
)

// gin.Context keys
const (
	ShopIDKey = "shop_id"
	UserIDKey = "user_id"
)

// ShopConfig holds configuration for the shop middleware
type ShopConfig struct {
	// SkipPaths are served without a shop (health checks)
	SkipPaths []string
}

// DefaultShopConfig returns the default shop middleware configuration
func DefaultShopConfig() ShopConfig {
	return ShopConfig{
		SkipPaths: []string{"/health", "/api/v1/health"},
	}
}

// ShopContext requires a UUID X-Shop-ID header and accepts an optional UUID
// X-User-ID. Both are stored on the gin context and on the request context so
// services and the request logger see them.
func ShopContext(cfg ShopConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		shopID, err := uuid.Parse(strings.TrimSpace(c.GetHeader(ShopIDHeader)))
		if err != nil || shopID == uuid.Nil {
			abortMissingShop(c, "X-Shop-ID header must be a valid shop UUID")
			return
		}

		userID := uuid.Nil
		if raw := strings.TrimSpace(c.GetHeader(UserIDHeader)); raw != "" {
			userID, err = uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeBadRequest, "X-User-ID header must be a valid UUID", GetRequestID(c),
				))
				return
			}
		}

		c.Set(ShopIDKey, shopID)
		c.Set(UserIDKey, userID)

		ctx := c.Request.Context()
		ctx, reqLogger := logger.WithShopID(ctx, logger.FromContext(ctx), shopID.String())
		if userID != uuid.Nil {
			ctx, _ = logger.WithUserID(ctx, reqLogger, userID.String())
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func abortMissingShop(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeMissingShop, message, GetRequestID(c),
	))
}

// GetShopID returns the shop set by ShopContext
func GetShopID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ShopIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// GetUserID returns the user set by ShopContext, uuid.Nil when absent
func GetUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
