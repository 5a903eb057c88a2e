// errors.go — ошибки сервисного слоя File Module.
// Сервис возвращает *Error с HTTP-статусом и машиночитаемым кодом;
// обработчики транслируют их в ответы через api/errors.WriteError.
package service

import (
	"net/http"

	apierrors "github.com/bigkaa/teamchat/file-module/internal/api/errors"
)

// Error — ошибка сервисного слоя.
type Error struct {
	// StatusCode — HTTP статус-код.
	StatusCode int
	// Code — машиночитаемый код ошибки.
	Code string
	// Message — человекочитаемое описание.
	Message string
}

// Error реализует интерфейс error.
func (e *Error) Error() string {
	return e.Message
}

// --- Конструкторы типичных ошибок сервиса ---

func errValidation(message string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Code: apierrors.CodeValidationError, Message: message}
}

func errNotFound(message string) *Error {
	return &Error{StatusCode: http.StatusNotFound, Code: apierrors.CodeNotFound, Message: message}
}

func errTypeNotAllowed(message string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Code: apierrors.CodeTypeNotAllowed, Message: message}
}

func errFileTooLarge(message string) *Error {
	return &Error{StatusCode: http.StatusRequestEntityTooLarge, Code: apierrors.CodeFileTooLarge, Message: message}
}

func errSessionExpired(message string) *Error {
	return &Error{StatusCode: http.StatusNotFound, Code: apierrors.CodeSessionExpired, Message: message}
}

func errPresignUnavailable(message string) *Error {
	return &Error{StatusCode: http.StatusServiceUnavailable, Code: apierrors.CodePresignUnavailable, Message: message}
}

func errStorage(message string) *Error {
	return &Error{StatusCode: http.StatusInternalServerError, Code: apierrors.CodeStorageError, Message: message}
}

func errInternal(message string) *Error {
	return &Error{StatusCode: http.StatusInternalServerError, Code: apierrors.CodeInternalError, Message: message}
}
