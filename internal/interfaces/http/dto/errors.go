package dto

import "net/http"

// Error codes returned to API clients. Format: ERR_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Request error codes
const (
	// ErrCodeValidation is used when request binding or field validation fails
	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeMissingShop is used when the X-Shop-ID header is absent or malformed
	ErrCodeMissingShop = "ERR_MISSING_SHOP"
)

// Domain error codes
const (
	ErrCodeNotFound             = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists        = "ERR_ALREADY_EXISTS"
	ErrCodeInvalidInput         = "ERR_INVALID_INPUT"
	ErrCodeInvalidAmount        = "ERR_INVALID_AMOUNT"
	ErrCodeInvalidPeriod        = "ERR_INVALID_PERIOD"
	ErrCodeInvalidCustomer      = "ERR_INVALID_CUSTOMER"
	ErrCodeInvalidState         = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock    = "ERR_INSUFFICIENT_STOCK"
	ErrCodeConcurrencyConflict  = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeDuplicateRequest     = "ERR_DUPLICATE_REQUEST"
	ErrCodeConsistencyViolation = "ERR_CONSISTENCY_VIOLATION"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,
	ErrCodeMissingShop: http.StatusBadRequest,

	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInvalidAmount: http.StatusBadRequest,
	ErrCodeInvalidPeriod: http.StatusBadRequest,

	ErrCodeNotFound: http.StatusNotFound,

	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,

	// business rule violations -> 422
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
	ErrCodeInvalidCustomer:   http.StatusUnprocessableEntity,
	ErrCodeInvalidState:      http.StatusUnprocessableEntity,

	ErrCodeConsistencyViolation: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodes maps shared.DomainError codes to API codes
var domainCodes = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_AMOUNT":        ErrCodeInvalidAmount,
	"INVALID_PERIOD":        ErrCodeInvalidPeriod,
	"INVALID_CUSTOMER":      ErrCodeInvalidCustomer,
	"INVALID_STATE":         ErrCodeInvalidState,
	"INSUFFICIENT_STOCK":    ErrCodeInsufficientStock,
	"CONCURRENCY_CONFLICT":  ErrCodeConcurrencyConflict,
	"DUPLICATE_REQUEST":     ErrCodeDuplicateRequest,
	"CONSISTENCY_VIOLATION": ErrCodeConsistencyViolation,
}

// FromDomainCode converts a domain error code to its API code.
// Codes without a mapping are returned unchanged.
func FromDomainCode(code string) string {
	if apiCode, ok := domainCodes[code]; ok {
		return apiCode
	}
	return code
}
