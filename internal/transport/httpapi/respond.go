package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor сопоставляет ошибку домена с HTTP-статусом.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError отдаёт клиенту сообщение ошибки. Детали внутренних сбоев
// остаются в логе, клиент получает общий текст.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := h.logger.WithError(err).WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	})
	if status == http.StatusInternalServerError {
		entry.Error("request failed")
		writeError(w, status, "internal error")
		return
	}
	entry.Debug("request rejected")

	resp := errorResponse{Error: clientMessage(err)}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		resp.Details = vErr.Problems
	}
	writeJSON(w, status, resp)
}

// clientMessage убирает обёртки вызывающего кода, оставляя причину отказа.
func clientMessage(err error) string {
	var rej *domain.RejectionError
	if errors.As(err, &rej) {
		return rej.Error()
	}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return domain.ErrInvalidCheckout.Error()
	}
	for _, sentinel := range []error{
		domain.ErrIdempotencyHashMismatch,
		domain.ErrCheckoutInProgress,
		domain.ErrInvalidStatusTransition,
		domain.ErrOrderVersionConflict,
		domain.ErrOrderNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// decodeJSON строго разбирает тело: неизвестные поля и хвост после объекта отклоняются.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedInput, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", domain.ErrMalformedInput)
	}
	return nil
}
