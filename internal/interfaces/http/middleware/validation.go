package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// Decimal validation tags
const (
	TagDecimalPositive    = "dpos"
	TagDecimalNonNegative = "dnonneg"
)

var (
	setupOnce  sync.Once
	moneyScale = strconv.Itoa(shared.MoneyScale)
)

// SetupValidator configures gin's validator: field names come from json/form
// tags and decimal.Decimal fields get the dpos and dnonneg tags.
func SetupValidator() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			registerValidations(v)
		}
	})
}

func registerValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	// decimals are validated through their string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation(TagDecimalPositive, decimalCheck(decimal.Decimal.IsPositive))
	_ = v.RegisterValidation(TagDecimalNonNegative, decimalCheck(func(d decimal.Decimal) bool { return !d.IsNegative() }))
}

func decimalCheck(ok func(decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && ok(d) && shared.CheckMoney(fl.FieldName(), d) == nil
	}
}

// FormatValidationErrors formats validation errors into a standard response.
// When every failure is a decimal amount rule the code is ERR_INVALID_AMOUNT,
// matching what the ledger itself returns for a bad amount.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	amountOnly := false
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		amountOnly = len(validationErrors) > 0
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
			})
			if e.Tag() != TagDecimalPositive && e.Tag() != TagDecimalNonNegative {
				amountOnly = false
			}
		}
	}

	resp := dto.NewValidationErrorResponse("Request validation failed", requestID, details)
	if amountOnly {
		resp.Error.Code = dto.ErrCodeInvalidAmount
	}
	return resp
}

// HandleValidationError writes a 400 for a binding error. Malformed JSON gets
// ERR_INVALID_JSON; rule failures get ERR_VALIDATION with per-field details.
func HandleValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInvalidJSON, "Request body is not valid JSON for this endpoint", GetRequestID(c),
		))
		return
	}
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "datetime":
		return "Must be a date formatted as " + e.Param()
	case "dive":
		return "Invalid list entry"
	case TagDecimalPositive:
		return "Must be a positive amount with at most " + moneyScale + " decimal places"
	case TagDecimalNonNegative:
		return "Must be a non-negative amount with at most " + moneyScale + " decimal places"
	default:
		return "Invalid value"
	}
}
