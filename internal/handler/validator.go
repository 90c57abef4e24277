package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/lottery-ticketing/internal/apperror"
)

// fieldMessages overrides the generated message for a field and tag.
var fieldMessages = map[string]map[string]string{
	"quantity":        {"required": "Quantity is required", "min": "Quantity must be at least 1"},
	"lotteryId":       {"required": "Lottery ID is required", "min": "Lottery ID is required"},
	"confirmPassword": {"eqfield": "Passwords do not match"},
	"email":           {"email": "Email must be a valid email"},
	"gender":          {"oneof": "Gender must be male or female"},
}

// Validator plugs go-playground/validator into echo.  Field names in
// messages are the JSON names.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate reports the first failing field as a 400.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperror.BadRequest(fieldMessage(verrs[0]))
	}
	return apperror.BadRequest("Invalid request body")
}

func fieldMessage(fe validator.FieldError) string {
	if msgs, ok := fieldMessages[fe.Field()]; ok {
		if msg, ok := msgs[fe.Tag()]; ok {
			return msg
		}
	}
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
