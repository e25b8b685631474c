// Package validate decodes request bodies and checks them against struct tags.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"tourbook/utils"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned when a struct fails validation.
type Errors struct {
	List []FieldError
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.List))
	for _, fe := range e.List {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Errors) Fields() any { return e.List }

// DecodeJSON reads a JSON body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return utils.BadRequest("Request body is empty")
		}
		return utils.BadRequest("Invalid request payload")
	}
	return nil
}

// Struct validates v; the result is nil or *Errors.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Errors{}
	for _, fe := range verrs {
		out.List = append(out.List, FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
		})
	}
	return out
}

// Decode is DecodeJSON followed by Struct.
func Decode(r *http.Request, dst any) error {
	if err := DecodeJSON(r, dst); err != nil {
		return err
	}
	return Struct(dst)
}

// fieldPath drops the root type and any embedded struct names from the namespace; JSON names
// are lower camel case so capitalised segments are always Go type names.
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts[1:] {
		if p != "" && unicode.IsUpper(rune(p[0])) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return fe.Field()
	}
	return strings.Join(out, ".")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "ltfield":
		return "must be below " + fe.Param()
	case "email":
		return "must be a valid email"
	case "len":
		return "must have length " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
