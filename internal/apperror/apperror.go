// Package apperror определяет закрытую таксономию ошибок движка.
// Обработчики и мобильные клиенты ветвятся по Kind, а не по тексту.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindConfigurationMissing   Kind = "configuration_missing"
	KindOutsideGeofence        Kind = "outside_geofence"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindPreconditionFailed     Kind = "precondition_failed"
	KindConcurrentModification Kind = "concurrent_modification"
	KindNotFound               Kind = "not_found"
)

type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetail добавляет структурированную деталь для клиента (например distance_meters)
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// KindOf возвращает Kind ошибки или пустую строку для посторонних ошибок
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind проверяет, относится ли ошибка к заданному виду
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus отображает вид ошибки в HTTP-статус для слоя обработчиков
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidStateTransition, KindConcurrentModification:
		return http.StatusConflict
	case KindOutsideGeofence, KindPreconditionFailed:
		return http.StatusUnprocessableEntity
	case KindConfigurationMissing:
		return http.StatusFailedDependency
	default:
		return http.StatusInternalServerError
	}
}
