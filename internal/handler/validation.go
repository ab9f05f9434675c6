package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/cryptpass/internal/apperror"
)

// maxBodyBytes caps request bodies. Credentials are tiny; anything larger
// is a client bug or an attempt to make us hash megabytes.
const maxBodyBytes = 16 << 10

// newValidator returns a validator that reports JSON field names
// ("identity") instead of Go field names ("Identity").
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a JSON body into dst and runs the struct's validate
// tags. Both kinds of failure come back as an apperror validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("", "invalid JSON request body")
	}

	if err := v.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return fmt.Errorf("handler: validating request: %w", err)
	}
	return nil
}

func fieldError(fe validator.FieldError) *apperror.AppError {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperror.ValidationFailed(field, field+" is required")
	case "max":
		return apperror.ValidationFailed(field, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	case "min":
		return apperror.ValidationFailed(field, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
	case "printascii":
		return apperror.ValidationFailed(field, field+" must be printable ASCII")
	}
	return apperror.ValidationFailed(field, fmt.Sprintf("%s failed %q check", field, fe.Tag()))
}
