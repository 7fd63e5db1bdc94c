// Package response формирует JSON-конверты ответов API.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Response конверт всех ответов API: при успехе заполнено Data, при ошибке Error.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse ответ с ошибкой, отдельный тип нужен для swagger.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

// Значения поля status.
const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// Тексты ошибок, которые видит клиент. Подробности остаются в логах.
const (
	MsgInvalidBody     = "invalid request body"
	MsgInternal        = "internal error"
	MsgUnauthorized    = "unauthorized"
	MsgForbidden       = "forbidden"
	MsgTooManyRequests = "too many requests"
)

// StatusOKWithData успешный ответ с данными.
func StatusOKWithData(data any) Response {
	return Response{Status: StatusOK, Data: data}
}

// Error ответ с сообщением для клиента. Сюда попадают только Msg* или
// тексты валидации, не err.Error().
func Error(msg string) ErrorResponse {
	return ErrorResponse{Status: StatusError, Error: msg}
}

// validationFormats тексты для тегов validator, %[1]s поле, %[2]s параметр тега.
var validationFormats = map[string]string{
	"required": "field %[1]s is a required field",
	"max":      "field %[1]s must be at most %[2]s",
	"min":      "field %[1]s must be at least %[2]s",
	"oneof":    "field %[1]s must be one of [%[2]s]",
	"uuid":     "field %[1]s must be a valid uuid",
}

// ValidationError собирает ошибки валидации запроса в одно сообщение.
func ValidationError(errs validator.ValidationErrors) Response {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		format, ok := validationFormats[fe.ActualTag()]
		if !ok {
			format = "field %[1]s is not valid"
		}
		msgs = append(msgs, fmt.Sprintf(format, fe.Field(), fe.Param()))
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(msgs, ", "),
	}
}
