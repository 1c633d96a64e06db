package types

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator with the project's custom tags registered.
//
// now supplies the reference time for the "notfuture" tag; pass time.Now
// in production and a managed clock in tests. Field names in errors use
// the json tag, so messages match what API consumers see.
func NewValidator(now func() time.Time) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// notfuture: a time.Time must not be after now(). Zero values pass and
	// are left to "required".
	_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return t.IsZero() || !t.After(now())
	})

	return v
}
