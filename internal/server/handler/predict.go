package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/playervalue/internal/domain"
)

// Predictor runs the prediction pipeline.
type Predictor interface {
	Predict(ctx context.Context, body []byte) (domain.Prediction, error)
	Diagnostics(ctx context.Context) domain.Diagnostics
}

// PredictHandler serves prediction and model diagnostics.
type PredictHandler struct {
	svc          Predictor
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewPredictHandler creates a PredictHandler. Request bodies larger than
// maxBodyBytes are rejected with 413.
func NewPredictHandler(svc Predictor, maxBodyBytes int64, logger *slog.Logger) *PredictHandler {
	return &PredictHandler{
		svc:          svc,
		maxBodyBytes: maxBodyBytes,
		logger:       logHandler(logger, "predict"),
	}
}

// Predict validates the player record in the body and returns its predicted
// market value.
// POST /predict
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	pred, err := h.svc.Predict(r.Context(), body)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

// Models lists the model directory, the artifacts in it and the label file.
// GET /models
func (h *PredictHandler) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Diagnostics(r.Context()))
}
