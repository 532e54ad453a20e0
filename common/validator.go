package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"saveai-api/model"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps the request bodies ValidateAndDecode reads.
const MaxBodyBytes = 64 << 10

var validate = newValidator()

// newValidator reports fields by their JSON names so error details match the payload.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateTransactionRequest, model.CreateTransactionRequest{})
	return v
}

// validateTransactionRequest rejects amounts outside model.AmountWellFormed.
// The reported value is the exponent, never the amount.
func validateTransactionRequest(sl validator.StructLevel) {
	req := sl.Current().Interface().(model.CreateTransactionRequest)
	if !model.AmountWellFormed(req.Amount) {
		sl.ReportError(req.Amount.Exponent(), "amount", "Amount", "amount", "")
	}
}

// FieldError is one failed validation rule, returned in the error details.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// ValidateAndDecode decodes the JSON request body into payload and runs the
// struct's validation tags over it. Bodies over MaxBodyBytes get a 413.
func ValidateAndDecode(r *http.Request, payload any) *AppError {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return NewAppError(http.StatusRequestEntityTooLarge, "Request body too large", err)
		}
		return NewAppError(http.StatusBadRequest, "Invalid request body", err)
	}

	if err := validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return NewAppError(http.StatusBadRequest, "Invalid request body", err)
		}
		fields := make([]FieldError, 0, len(validationErrors))
		for _, fe := range validationErrors {
			fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		return NewAppError(http.StatusBadRequest, "Request validation failed", nil).WithDetails(fields)
	}

	return nil
}
