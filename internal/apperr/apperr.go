// Package apperr описывает ошибки бизнес-логики, которые отдаются клиенту как HTTP-статусы.
package apperr

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"
)

// Kind классифицирует ошибку
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidRequest
	KindConflict
	KindUnauthorized
)

// Error ошибка с классом и сообщением для пользователя
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status возвращает HTTP-статус для класса ошибки
func (e *Error) Status() int {
	switch e.Kind {
	case KindNotFound:
		return fiber.StatusNotFound
	case KindForbidden:
		return fiber.StatusForbidden
	case KindInvalidRequest:
		return fiber.StatusBadRequest
	case KindConflict:
		return fiber.StatusConflict
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func NotFound(msg string) *Error       { return &Error{Kind: KindNotFound, Message: msg} }
func Forbidden(msg string) *Error      { return &Error{Kind: KindForbidden, Message: msg} }
func InvalidRequest(msg string) *Error { return &Error{Kind: KindInvalidRequest, Message: msg} }
func Conflict(msg string) *Error       { return &Error{Kind: KindConflict, Message: msg} }

// Unauthorized ошибка проверки подлинности; err сохраняется для логов
func Unauthorized(msg string, err error) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg, Err: err}
}

// Internal оборачивает ошибку хранилища; клиент увидит только msg
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf возвращает класс ошибки или KindInternal для чужих ошибок
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is сообщает, относится ли err к классу kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ErrorHandler отдаёт ошибки в JSON. *Error и *fiber.Error сохраняют свой статус,
// остальные превращаются в 500 без подробностей.
func ErrorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var appErr *Error
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		code = appErr.Status()
		message = appErr.Message
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	}

	if code >= fiber.StatusInternalServerError {
		log.Printf("Ошибка обработки %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
