// Package whisper converts speech audio into raw text.
package whisper

import (
	"context"

	"github.com/video-stream/recap/internal/media"
)

// Transcriber is the common interface for all speech-recognition engines.
type Transcriber interface {
	// Transcribe returns the raw recognized text. The audio blob is consumed
	// and released.
	Transcribe(ctx context.Context, audio *media.Blob) (string, error)
	// Name returns the engine name
	Name() string
}
