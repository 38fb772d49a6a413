package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError - нарушение схемы записи (пустое обязательное поле,
// недопустимое значение перечисления). На HTTP-уровне отображается в 400.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError переводит ошибки validator в сообщения по полям
func NewValidationError(err error) *ValidationError {
	ve := &ValidationError{Fields: make(map[string]string)}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		ve.Message = err.Error()
		return ve
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "oneof":
			msg = fmt.Sprintf("must be one of %s", fe.Param())
		default:
			msg = fmt.Sprintf("failed %q constraint", fe.Tag())
		}
		ve.Fields[fe.Field()] = msg
		parts = append(parts, fmt.Sprintf("%s %s", fe.Field(), msg))
	}
	ve.Message = "validation failed: " + strings.Join(parts, "; ")
	return ve
}
