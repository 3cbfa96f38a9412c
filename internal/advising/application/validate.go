// Package application holds the request validation shared by the advising
// commands and queries.
package application

import (
	"errors"
	"reflect"
	"strings"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks req's struct tags and reports the failing fields as an
// ErrInvalidRequest.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.InvalidRequest()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return domain.InvalidRequest(fields...)
}

// Authenticate rejects callers the identity provider could not have issued.
func Authenticate(caller domain.Caller) error {
	if _, err := domain.NewCaller(caller.ID, caller.Role); err != nil {
		return domain.ErrUnauthorized
	}
	return nil
}
