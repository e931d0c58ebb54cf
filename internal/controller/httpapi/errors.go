package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// mapErr статус и текст для пользователя; для 500 текст общий
func mapErr(err error) (int, errorResponse) {
	var vErr *model.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, errorResponse{Error: "Please check the highlighted fields.", Fields: vErr.Fields}
	}

	var authErr *model.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Code {
		case model.AuthCodeEmailAlreadyInUse:
			return http.StatusConflict, errorResponse{Error: authErr.Message()}
		case model.AuthCodeInvalidEmail, model.AuthCodeWeakPassword:
			return http.StatusBadRequest, errorResponse{Error: authErr.Message()}
		}
		return http.StatusUnauthorized, errorResponse{Error: authErr.Message()}
	}

	switch {
	case errors.Is(err, model.ErrPermission):
		return http.StatusForbidden, errorResponse{Error: "You do not have permission to perform this action."}
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "The requested resource was not found."}
	case errors.Is(err, model.ErrOverlap):
		return http.StatusConflict, errorResponse{Error: "This time slot overlaps with an existing slot."}
	case errors.Is(err, model.ErrSlotIndex):
		return http.StatusNotFound, errorResponse{Error: "This time slot does not exist."}
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict, errorResponse{Error: "Only pending appointments can be approved or rejected."}
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, errorResponse{Error: "Please check the highlighted fields."}
	}
	return http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)}
}

// writeError пишет ответ по ошибке; 500 попадают в лог
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := mapErr(err)
	if status == http.StatusInternalServerError {
		loggerFrom(r.Context(), h.logger).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func writeErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp, _ := json.Marshal(v)
	w.Write(resp)
}

// decodeJSON тело запроса в v; неизвестные поля отклоняются
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return model.NewValidationError("body", "invalid JSON body")
	}
	return nil
}
