package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tidechat/tidechat/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeServiceError maps known service errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrReservedUsername),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotSender):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrExpiredToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
