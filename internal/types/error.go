package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type ErrorCode string

const (
	ErrorCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrorCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrorCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrorCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrorCodeRateLimited  ErrorCode = "RATE_LIMITED"
	ErrorCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

type (
	Error struct {
		Fields  *map[string]string `json:"fields,omitempty" validate:"optional"`
		Code    ErrorCode          `json:"code"             validate:"required"`
		Message string             `json:"message"          validate:"required"`
	}
)

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func StringError(code ErrorCode, err string) Error {
	return Error{Code: code, Message: err}
}

func ValidationError(err error) Error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if ok {
		errorMap := make(map[string]string)
		for _, fieldError := range validationErrors {
			errorMap[fieldError.Field()] = fmt.Sprintf(
				"Failed to validate while checking condition: %s",
				fieldError.Tag(),
			)
		}

		return Error{Code: ErrorCodeValidation, Message: "validation error", Fields: &errorMap}
	}

	return Error{Code: ErrorCodeValidation, Message: "validation error"}
}
