// Пакет errors — конструкторы стандартных ошибок File Module.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // конфликт имени со stdlib осознанный, пакет внутренний

import (
	"encoding/json"
	"net/http"
)

// Машиночитаемые коды ошибок API.
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeTypeNotAllowed     = "FILE_TYPE_NOT_ALLOWED"
	CodeFileTooLarge       = "FILE_TOO_LARGE"
	CodeSessionExpired     = "UPLOAD_SESSION_EXPIRED"
	CodePresignUnavailable = "PRESIGN_UNAVAILABLE"
	CodeStorageError       = "STORAGE_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// TypeNotAllowed — 400 MIME-тип вне allow-list.
func TypeNotAllowed(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeTypeNotAllowed, message)
}

// FileTooLarge — 413 файл превышает лимит категории.
func FileTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, message)
}

// SessionExpired — 404 pending-сессия истекла или уже использована.
func SessionExpired(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeSessionExpired, message)
}

// PresignUnavailable — 503 backend не поддерживает presigned URL.
func PresignUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, CodePresignUnavailable, message)
}

// StorageError — 500 отказ объектного хранилища.
func StorageError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeStorageError, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
