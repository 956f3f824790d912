package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
)

// APIClient calls an in-process handler with the shop headers a till sends.
type APIClient struct {
	Handler http.Handler
	Prefix  string
	ShopID  uuid.UUID
	UserID  uuid.UUID
}

// NewAPIClient creates a client for the /api/v1 routes of handler.
func NewAPIClient(handler http.Handler) *APIClient {
	return &APIClient{
		Handler: handler,
		Prefix:  "/api/v1",
		ShopID:  TestShopID(),
		UserID:  TestUserID(),
	}
}

// ForShop returns a copy of the client acting for another shop.
func (c *APIClient) ForShop(shopID uuid.UUID) *APIClient {
	clone := *c
	clone.ShopID = shopID
	return &clone
}

// Do sends body as JSON. A string body is sent unchanged. headers are
// alternating key/value pairs.
func (c *APIClient) Do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err, "Failed to marshal request body")
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, c.Prefix+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.ShopID != uuid.Nil {
		req.Header.Set(middleware.ShopIDHeader, c.ShopID.String())
	}
	if c.UserID != uuid.Nil {
		req.Header.Set(middleware.UserIDHeader, c.UserID.String())
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, req)
	return w
}

// Envelope is the decoded response envelope with the payload kept raw.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

// DecodeEnvelope parses the response body as an API envelope.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// DecodeData asserts the status and a successful envelope, then unmarshals the payload into T.
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder, status int) T {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	env := DecodeEnvelope(t, w)
	require.True(t, env.Success, "Expected success to be true")
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// ErrorCode asserts the status and a failed envelope, then returns its error code.
func ErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int) string {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	env := DecodeEnvelope(t, w)
	require.False(t, env.Success, "Expected success to be false")
	require.NotNil(t, env.Error, "Expected error object in response")
	return env.Error.Code
}
