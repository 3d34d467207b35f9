package httperrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yourname/upload_lite/internal/models"
)

// Body — описание ошибки в конверте ответа.
type Body struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Envelope — конверт ответа загрузчика: OK=1 с info либо OK=0 с error.
type Envelope struct {
	OK    int   `json:"OK"`
	Info  any   `json:"info,omitempty"`
	Error *Body `json:"error,omitempty"`
}

// Status переводит ошибку в HTTP-статус.
func Status(err error) int {
	if errors.Is(err, models.ErrNotFound) {
		return http.StatusNotFound
	}

	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}

	switch models.KindOf(err) {
	case models.ErrInput, models.ErrType:
		return http.StatusBadRequest
	case models.ErrSecurity:
		return http.StatusUnprocessableEntity
	case models.ErrMove:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Write пишет ошибку в конверте {"OK":0,"error":{...}}.
func Write(w http.ResponseWriter, err error) {
	body := &Body{Code: int(models.ErrUnknown), Message: err.Error()}
	if errors.Is(err, models.ErrNotFound) {
		body.Code = http.StatusNotFound
	} else {
		kind := models.KindOf(err)
		body.Code = kind.Code()
		body.Message = kind.Message()
	}

	writeJSON(w, Status(err), Envelope{OK: 0, Error: body})
}

// WriteOK пишет успешный ответ {"OK":1,"info":...}.
func WriteOK(w http.ResponseWriter, status int, info any) {
	writeJSON(w, status, Envelope{OK: 1, Info: info})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
