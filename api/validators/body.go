package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/shiplogix/logistics-backend/pkg/errors"
)

const maxBodyBytes = 1 << 20

var (
	validate        = newValidator()
	errBodyRequired = pkgerrors.New(pkgerrors.CodeValidation, "request body required")
)

// newValidator reports fields by their json names so error details match
// what the client sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// DecodeJSONBody decodes a mandatory JSON object of at most 1 MiB into dest,
// rejecting unknown fields, then runs `validate` tags.
func DecodeJSONBody(r *http.Request, dest any) error {
	return decode(r, dest, true)
}

// DecodeOptionalJSONBody is DecodeJSONBody that treats an empty body as {}.
func DecodeOptionalJSONBody(r *http.Request, dest any) error {
	return decode(r, dest, false)
}

func decode(r *http.Request, dest any, required bool) error {
	if r.Body != nil && r.Body != http.NoBody {
		defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		err := dec.Decode(dest)
		switch {
		case errors.Is(err, io.EOF):
			if required {
				return errBodyRequired
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
				WithDetails(map[string]any{"error": err.Error()})
		}
	} else if required {
		return errBodyRequired
	}
	return Struct(dest)
}

// Struct runs `validate` tags on dest, returning field -> message details.
func Struct(dest any) error {
	err := validate.Struct(dest)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = describe(fe)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
