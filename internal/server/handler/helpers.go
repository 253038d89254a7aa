package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/playervalue/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"detail":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// errorBody is the wire form of every error response. Clients read detail;
// the other fields are populated depending on kind.
type errorBody struct {
	Detail          string              `json:"detail"`
	Kind            domain.Kind         `json:"kind,omitempty"`
	Stage           string              `json:"stage,omitempty"`
	Fields          []domain.FieldError `json:"fields,omitempty"`
	Code            *int                `json:"code,omitempty"`
	ValidCodes      []int               `json:"valid_codes,omitempty"`
	Path            string              `json:"path,omitempty"`
	AvailableModels []string            `json:"available_models,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(k domain.Kind) int {
	switch k {
	case domain.KindSchemaValidation, domain.KindUnknownPositionCode:
		return http.StatusBadRequest
	case domain.KindModelNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError renders err as a structured error response.
func writeDomainError(w http.ResponseWriter, err error) {
	de, ok := domain.AsError(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Prediction failed: "+err.Error())
		return
	}
	body := errorBody{
		Detail:          de.Detail(),
		Kind:            de.Kind,
		Stage:           de.Stage.String(),
		Fields:          de.Fields,
		Code:            de.Code,
		ValidCodes:      de.ValidCodes,
		Path:            de.Path,
		AvailableModels: de.AvailableModels,
	}
	if de.Kind == domain.KindInference {
		body.Detail = "Prediction failed: " + body.Detail
	}
	writeJSON(w, StatusFor(de.Kind), body)
}

// logHandler is a convenience to attach slog fields in handler code.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}
