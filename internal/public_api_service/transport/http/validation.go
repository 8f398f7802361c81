package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator reports fields by their json names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationCode turns the first validation failure into an error code like
// "REQUIRED-MOBILE_NUMBER" or "INVALID-ENCODING".
func validationCode(prefix string, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return prefix + "INVALID-PARAMS"
	}
	field := strings.ToUpper(verrs[0].Field())
	if verrs[0].Tag() == "required" {
		return prefix + "REQUIRED-" + field
	}
	return prefix + "INVALID-" + field
}
