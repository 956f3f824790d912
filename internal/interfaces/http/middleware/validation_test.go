package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentBody struct {
	Amount   decimal.Decimal  `json:"amount" binding:"dpos"`
	Paid     *decimal.Decimal `json:"paid" binding:"omitempty,dnonneg"`
	Quantity int              `json:"quantity" binding:"required,gt=0"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var body paymentBody
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(body.Amount))
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupValidator_Decimals(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantCode    string
		wantFields  []string
		wantMessage string
	}{
		{
			name:       "positive amount as string",
			body:       `{"amount": "40.50", "quantity": 1}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "positive amount as number with paid",
			body:       `{"amount": 40, "paid": "0", "quantity": 1}`,
			wantStatus: http.StatusOK,
		},
		{
			name:        "zero amount",
			body:        `{"amount": "0", "quantity": 1}`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    dto.ErrCodeInvalidAmount,
			wantFields:  []string{"amount"},
			wantMessage: "Must be a positive amount with at most 4 decimal places",
		},
		{
			name:        "amount finer than the money scale",
			body:        `{"amount": "0.00005", "quantity": 1}`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    dto.ErrCodeInvalidAmount,
			wantFields:  []string{"amount"},
			wantMessage: "Must be a positive amount with at most 4 decimal places",
		},
		{
			name:       "four decimal places",
			body:       `{"amount": "3.3333", "paid": "0.0001", "quantity": 1}`,
			wantStatus: http.StatusOK,
		},
		{
			name:        "negative paid",
			body:        `{"amount": "10", "paid": "-1", "quantity": 1}`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    dto.ErrCodeInvalidAmount,
			wantFields:  []string{"paid"},
			wantMessage: "Must be a non-negative amount with at most 4 decimal places",
		},
		{
			name:       "missing amount and quantity",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
			wantFields: []string{"amount", "quantity"},
		},
		{
			name:       "malformed json",
			body:       `{"amount": `,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeInvalidJSON,
		},
		{
			name:       "amount is not a number",
			body:       `{"amount": "ten", "quantity": 1}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantCode == "" {
				return
			}

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)

			var fields []string
			for _, d := range resp.Error.Details {
				fields = append(fields, d.Field)
				if tt.wantMessage != "" {
					assert.Equal(t, tt.wantMessage, d.Message)
				}
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Required string `validate:"required"`
		Min      string `validate:"min=5"`
		OneOf    string `validate:"omitempty,oneof=a b c"`
		GT       int    `validate:"gt=0"`
	}

	v := validator.New()
	err := v.Struct(sample{Min: "ab", OneOf: "d"})
	require.Error(t, err)

	messages := map[string]string{}
	for _, e := range err.(validator.ValidationErrors) {
		messages[e.Field()] = getValidationMessage(e)
	}

	assert.Equal(t, "This field is required", messages["Required"])
	assert.Equal(t, "Must be at least 5 characters", messages["Min"])
	assert.Equal(t, "Must be one of: a b c", messages["OneOf"])
	assert.Equal(t, "Must be greater than 0", messages["GT"])
}
