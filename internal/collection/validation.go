package collection

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tphakala/bonsai-go/internal/errors"
)

// inputValidator wraps go-playground/validator and converts its failures
// into validation category errors keyed by JSON field name.
type inputValidator struct {
	v *validator.Validate
}

func newInputValidator() *inputValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &inputValidator{v: v}
}

// Struct validates s, returning nil or a validation error listing every
// offending field.
func (iv *inputValidator) Struct(s any) error {
	err := iv.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Namespace()] = friendlyMessage(fe)
	}

	parts := make([]string, 0, len(fields))
	for name, msg := range fields {
		parts = append(parts, fieldLabel(name)+" "+msg)
	}
	sort.Strings(parts)

	return errors.Newf("invalid input: %s", strings.Join(parts, "; ")).
		Component("collection").
		Category(errors.CategoryValidation).
		Context("fields", fields).
		Build()
}

// fieldLabel drops the root struct name from a validator namespace,
// e.g. "UpdateInput.reminder.message" becomes "reminder.message".
func fieldLabel(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func friendlyMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}

// validationError builds a validation category error for checks the struct
// tags cannot express.
func validationError(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("collection").
		Category(errors.CategoryValidation).
		Build()
}
