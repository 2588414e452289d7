package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/techpulse/marketplace/internal/model"
)

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
	mustRegister(v, "password", func(fl validator.FieldLevel) bool { return strongPassword(fl.Field().String()) })
	mustRegister(v, "brand", enumRule(model.Brands))
	mustRegister(v, "category", enumRule(model.Categories))
	mustRegister(v, "condition", enumRule(model.Conditions))
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func enumRule(set []string) validator.Func {
	return func(fl validator.FieldLevel) bool { return model.Contains(set, fl.Field().String()) }
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// strongPassword requires eight characters with at least one upper case
// letter, one lower case letter and one digit, within maxPasswordBytes.
func strongPassword(s string) bool {
	if len([]rune(s)) < 8 || len(s) > maxPasswordBytes {
		return false
	}
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// check validates s and turns the first violation into a validation error.
func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		return &Error{Kind: ErrValidation, Msg: fieldMessage(ves[0])}
	}
	return &Error{Kind: ErrValidation, Msg: "invalid input"}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	isText := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "password":
		return fmt.Sprintf("password must be between 8 characters and %d bytes long and contain an upper case letter, a lower case letter and a digit", maxPasswordBytes)
	case "brand":
		return field + " must be one of: " + strings.Join(model.Brands, ", ")
	case "category":
		return field + " must be one of: " + strings.Join(model.Categories, ", ")
	case "condition":
		return field + " must be one of: " + strings.Join(model.Conditions, ", ")
	case "min":
		if isText {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isText {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return field + " is invalid"
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
