package handlers

import (
	"context"
	"net/http"

	"github.com/video-stream/recap/internal/failure"
)

// Responder answers a question about a transcript.
type Responder interface {
	Answer(ctx context.Context, question, transcript string) (string, error)
}

type AnswerHandler struct {
	responder Responder
}

func NewAnswerHandler(r Responder) *AnswerHandler {
	return &AnswerHandler{responder: r}
}

type answerRequest struct {
	Question      string `json:"question"`
	Transcription string `json:"transcription"`
}

type answerResponse struct {
	Answer string `json:"answer"`
}

func (h *AnswerHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	answer, err := h.responder.Answer(r.Context(), req.Question, req.Transcription)
	if err != nil {
		if failure.Is(err, failure.KindInvalidInput) {
			jsonError(w, "Question and transcription are required", http.StatusBadRequest)
			return
		}
		jsonError(w, "Failed to process your question", http.StatusInternalServerError)
		return
	}

	jsonResponse(w, answerResponse{Answer: answer}, http.StatusOK)
}
