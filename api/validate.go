package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

var messages = map[string]string{
	"required": "{field} is required",
	"gt":       "{field} must be greater than {param}",
	"gte":      "{field} must be greater than or equal to {param}",
	"min":      "{field} must be at least {param} characters",
	"max":      "{field} must be at most {param} characters",
	"email":    "{field} must be a valid email address",
	"numeric":  "{field} must contain digits only",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names, not Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and checks its validate tags.
// The returned error message is safe to show to the caller.
func decodeAndValidate[T any](r io.Reader, dst *T) error {
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return errors.New(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	for _, e := range errs {
		if msg, ok := messages[e.Tag()]; ok {
			msg = strings.ReplaceAll(msg, "{field}", e.Field())
			return strings.ReplaceAll(msg, "{param}", e.Param())
		}
	}
	return errs.Error()
}
