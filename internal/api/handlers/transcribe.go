package handlers

import (
	"context"
	"net/http"

	"github.com/video-stream/recap/internal/failure"
	"github.com/video-stream/recap/internal/logger"
	"github.com/video-stream/recap/internal/pipeline"
	"github.com/video-stream/recap/internal/summarize"
)

// Pipeline runs one transcription request.
type Pipeline interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type TranscribeHandler struct {
	pipeline Pipeline
}

func NewTranscribeHandler(p Pipeline) *TranscribeHandler {
	return &TranscribeHandler{pipeline: p}
}

type transcribeResponse struct {
	Transcription string `json:"transcription"`
	Summary       string `json:"summary"`
}

// Transcribe downloads, transcribes and summarizes the posted video URL.
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.pipeline.Run(r.Context(), req)
	if err != nil {
		if failure.Is(err, failure.KindInvalidInput) {
			jsonError(w, failure.Detail(err), http.StatusBadRequest)
			return
		}
		logger.FromContext(r.Context()).WithError(err).
			WithField("kind", string(failure.KindOf(err))).
			Error("transcription failed")
		jsonErrorDetails(w, "Transcription failed", failure.Detail(err), failure.HTTPStatus(err))
		return
	}

	jsonResponse(w, transcribeResponse{
		Transcription: res.Transcript.Text,
		Summary:       res.Summary.OrFallback(summarize.Fallback),
	}, http.StatusOK)
}
