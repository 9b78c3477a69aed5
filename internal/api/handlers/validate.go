package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/dom/kavholm-api/internal/domain"
	"github.com/go-playground/validator/v10"
)

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

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// Failures come back as *domain.ValidationError.
func decodeAndValidate(r *http.Request, v *validator.Validate, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.NewValidationError("Invalid request body")
	}
	if err := v.Struct(dst); err != nil {
		return domain.NewValidationError("%s", translateValidationError(err))
	}
	return nil
}

func translateValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}

	messages := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			messages = append(messages, "Missing "+field+" in request body.")
		case "email":
			messages = append(messages, "Invalid email format.")
		case "max":
			messages = append(messages, field+" must be at most "+fe.Param()+" characters.")
		default:
			messages = append(messages, field+" is invalid.")
		}
	}
	return strings.Join(messages, " ")
}
