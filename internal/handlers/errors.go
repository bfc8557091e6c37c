package handlers

import (
	"GophDrive/internal/blob"
	"GophDrive/internal/model"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// statusFor переводит ошибку сервиса в HTTP-статус и текст ответа.
// Текст внутренних ошибок наружу не отдаётся.
func statusFor(err error) (int, string) {
	var be *blob.Error
	switch {
	case errors.Is(err, model.ErrNotFound), errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, model.ErrInvalidOperation):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &be):
		if be.Transient {
			return http.StatusServiceUnavailable, "blob store unavailable"
		}
		return http.StatusBadGateway, "blob store failure"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *StorageHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	fields := []any{"owner", ownerOf(r), "error", err, "request_id", chimw.GetReqID(r.Context())}
	if status >= http.StatusInternalServerError {
		h.Logger.Errorw(op+": failed", fields...)
	} else {
		h.Logger.Warnw(op+": rejected", fields...)
	}
	http.Error(w, msg, status)
}
