// Package validation holds the request schemas of the API and turns
// go-playground/validator failures into field-level errors of the form
// {path, message, code}.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// SpecialChars is the set of characters a password must draw at least one from.
const SpecialChars = `!@#$%^&*(),.?":{}|<>`

// Error codes reported in FieldError.Code.
const (
	CodeInvalidType   = "invalid_type"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeInvalidString = "invalid_string"
	CodeInvalidEnum   = "invalid_enum_value"
	CodeCustom        = "custom"
)

// FieldError describes one failed rule.  Path is the JSON name of the field,
// or empty when the error concerns the request as a whole.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// checker is implemented by schemas with rules spanning several fields.
type checker interface {
	check() []FieldError
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "password", passwordRule)
	mustRegister(v, "integer", integerRule)
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// passwordRule requires at least one uppercase letter and one special character.
func passwordRule(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return strings.IndexFunc(s, unicode.IsUpper) >= 0 && strings.ContainsAny(s, SpecialChars)
}

func integerRule(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		return f.Float() == math.Trunc(f.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// Struct validates v and returns every failed rule.  A nil result means v
// is valid.
func Struct(v interface{}) []FieldError {
	var out []FieldError
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []FieldError{{Message: err.Error(), Code: CodeCustom}}
		}
		for _, fe := range verrs {
			out = append(out, translate(fe))
		}
	}
	if c, ok := v.(checker); ok {
		out = append(out, c.check()...)
	}
	return out
}

var labels = map[string]string{
	"name":            "Name",
	"email":           "Email",
	"password":        "Password",
	"address":         "Address",
	"role":            "Role",
	"rating":          "Rating",
	"storeId":         "Store ID",
	"ownerEmail":      "Owner email",
	"currentPassword": "Current password",
	"newPassword":     "New password",
}

func label(path string) string {
	if l, ok := labels[path]; ok {
		return l
	}
	return path
}

func isString(fe validator.FieldError) bool {
	k := fe.Kind()
	if k == reflect.Ptr {
		k = fe.Type().Elem().Kind()
	}
	return k == reflect.String
}

func translate(fe validator.FieldError) FieldError {
	path := fe.Field()
	name := label(path)
	out := FieldError{Path: path}
	switch fe.Tag() {
	case "required":
		out.Code, out.Message = CodeInvalidType, name+" is required"
	case "min", "gte":
		out.Code = CodeTooSmall
		if isString(fe) {
			out.Message = fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		} else {
			out.Message = fmt.Sprintf("%s must be at least %s", name, fe.Param())
		}
	case "max", "lte":
		out.Code = CodeTooBig
		if isString(fe) {
			out.Message = fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		} else {
			out.Message = fmt.Sprintf("%s must be at most %s", name, fe.Param())
		}
	case "gt":
		out.Code, out.Message = CodeTooSmall, name+" must be a positive integer"
	case "email":
		out.Code, out.Message = CodeInvalidString, "Invalid email address"
	case "password":
		out.Code = CodeInvalidString
		out.Message = "Password must contain at least one uppercase letter and one special character"
	case "integer":
		out.Code, out.Message = CodeInvalidType, name+" must be an integer"
	case "oneof":
		out.Code = CodeInvalidEnum
		out.Message = fmt.Sprintf("%s must be one of: %s", name, strings.Join(strings.Fields(fe.Param()), ", "))
	default:
		out.Code, out.Message = CodeCustom, name+" is invalid"
	}
	return out
}
