// Валидация входящих запросов formflow. Использует библиотеку go-playground/validator и регулярные выражения для проверки slug форм и имен полей.
package formflow

import (
	"regexp"
	"unicode/utf8"

	"github.com/go-playground/validator"
)

var (
	slugRegexp      = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	fieldNameRegexp = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	err := v.RegisterValidation("slug", slugValidator)
	if err != nil {
		return nil
	}

	err = v.RegisterValidation("fieldName", fieldNameValidator)
	if err != nil {
		return nil
	}

	err = v.RegisterValidation("formTitle", formTitleValidator)
	if err != nil {
		return nil
	}
	return &RequestValidator{v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validator.Struct(i); err != nil {
		_, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil
		}
		return err
	}
	return nil
}

func slugValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return len(value) >= 1 && len(value) <= 100 && slugRegexp.MatchString(value)
}

func fieldNameValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return len(value) >= 1 && len(value) <= 50 && fieldNameRegexp.MatchString(value)
}

func formTitleValidator(fl validator.FieldLevel) bool {
	lenStr := utf8.RuneCountInString(fl.Field().String())
	return lenStr >= 1 && lenStr <= 255
}
