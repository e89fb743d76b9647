package validator

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Echo compatible validator that reports fields by their wire names
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// Var validates a single value against a tag, e.g. Var(id, "uuid").
func (cv *CustomValidator) Var(field any, tag string) error {
	return cv.validator.Var(field, tag)
}

func Create() CustomValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(fieldName)

	// notblank rejects strings that are only whitespace
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), func(r rune) bool { return !unicode.IsSpace(r) }) >= 0
	})

	return CustomValidator{validator: validate}
}

func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"param", "query"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name != "" {
			return name
		}
	}

	jsonName := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if jsonName == "-" {
		return ""
	}
	if jsonName == "-," {
		return "-"
	}
	if jsonName == "" {
		return strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
	}
	return jsonName
}
