// Package answer responds to free-form questions about a transcript.
package answer

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/video-stream/recap/internal/failure"
	"github.com/video-stream/recap/internal/logger"
)

// Responder is stateless: each call carries its own transcript.
type Responder struct {
	completer Completer
}

func NewResponder(c Completer) *Responder {
	return &Responder{completer: c}
}

// Answer asks the completer one grounded question. No retry.
func (r *Responder) Answer(ctx context.Context, question, transcript string) (string, error) {
	question = strings.TrimSpace(question)
	transcript = strings.TrimSpace(transcript)
	if question == "" || transcript == "" {
		return "", failure.InvalidInput("Question and transcription are required")
	}

	log := logger.FromContext(ctx).WithField("provider", r.completer.Name())
	start := time.Now()

	reply, err := r.completer.Complete(ctx, Prompt{
		System:      SystemPrompt,
		User:        BuildUserPrompt(question, transcript),
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		log.WithError(err).Error("completion failed")
		return "", failure.Wrap(failure.KindAnswer, err, "Failed to process your question").WithStage("answering")
	}

	if strings.TrimSpace(reply) == "" {
		reply = FallbackAnswer
	}

	log.WithFields(logrus.Fields{
		"question_len": len(question),
		"answer_len":   len(reply),
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Info("question answered")

	return reply, nil
}
