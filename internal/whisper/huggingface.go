package whisper

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/video-stream/recap/internal/failure"
	"github.com/video-stream/recap/internal/hf"
	"github.com/video-stream/recap/internal/logger"
	"github.com/video-stream/recap/internal/media"
)

const (
	DefaultHFModel  = "openai/whisper-large-v3"
	DefaultLanguage = "en"
	chunkLengthS    = 30
)

type hfParameters struct {
	Language         string `json:"language,omitempty"`
	ReturnTimestamps bool   `json:"return_timestamps"`
	ChunkLengthS     int    `json:"chunk_length_s"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfResponse struct {
	Text string `json:"text"`
}

// HuggingFaceClient runs a Whisper model on the Hugging Face inference API.
type HuggingFaceClient struct {
	client   *hf.Client
	model    string
	language string
}

func NewHuggingFaceClient(client *hf.Client, model, language string) *HuggingFaceClient {
	if model == "" {
		model = DefaultHFModel
	}
	if language == "" {
		language = DefaultLanguage
	}
	return &HuggingFaceClient{client: client, model: model, language: language}
}

func (c *HuggingFaceClient) Name() string {
	return "huggingface"
}

func (c *HuggingFaceClient) Transcribe(ctx context.Context, audio *media.Blob) (string, error) {
	defer audio.Release()

	payload := hfRequest{
		Inputs: base64.StdEncoding.EncodeToString(audio.Bytes()),
		Parameters: hfParameters{
			Language:         c.language,
			ReturnTimestamps: false,
			ChunkLengthS:     chunkLengthS,
		},
	}
	size := audio.Len()
	audio.Release()

	start := time.Now()
	var resp hfResponse
	if err := c.client.Infer(ctx, c.model, payload, &resp); err != nil {
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
