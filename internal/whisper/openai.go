package whisper

import (
	"context"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/video-stream/recap/internal/failure"
	"github.com/video-stream/recap/internal/logger"
	"github.com/video-stream/recap/internal/media"
)

const DefaultOpenAIModel = openai.Whisper1

const maxOpenAIFileSize = 25 * 1024 * 1024 // 25MB upload limit

// OpenAIClient uses any OpenAI-compatible transcription endpoint
// (OpenAI, Groq, a local whisper server).
type OpenAIClient struct {
	client   *openai.Client
	model    string
	language string
}

// NewOpenAIClient creates the engine. An empty baseURL selects api.openai.com.
func NewOpenAIClient(apiKey, baseURL, model, language string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if language == "" {
		language = DefaultLanguage
	}
	return &OpenAIClient{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		language: language,
	}
}

func (c *OpenAIClient) Name() string {
	return "openai"
}

func (c *OpenAIClient) Transcribe(ctx context.Context, audio *media.Blob) (string, error) {
	defer audio.Release()

	size := audio.Len()
	if size > maxOpenAIFileSize {
		return "", failure.Newf(failure.KindTranscription, "audio is larger than the %d byte upload limit", maxOpenAIFileSize)
	}

	start := time.Now()
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: "audio.mp3",
		Reader:   audio.Reader(),
		Language: c.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return "", cerr
		}
		return "", failure.Wrap(failure.KindTranscription, err, "speech recognition failed")
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"engine":      c.Name(),
		"model":       c.model,
		"bytes":       size,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("audio transcribed")

	return resp.Text, nil
}
