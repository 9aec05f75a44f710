// Package summarize produces short abstractive summaries of transcripts.
package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/video-stream/recap/internal/hf"
	"github.com/video-stream/recap/internal/logger"
	"github.com/video-stream/recap/internal/retry"
)

const (
	DefaultModel     = "facebook/bart-large-cnn"
	DefaultMaxLength = 130
	DefaultMinLength = 30
)

var errEmptySummary = errors.New("summarizer returned an empty summary")

// DefaultPolicy waits 1s then 2s between three attempts.
func DefaultPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Second, Shape: retry.Linear}
}

// Attempt reports the outcome of one summarization call.
type Attempt struct {
	Number int
	Err    error
}

type Options struct {
	Model     string
	MaxLength int
	MinLength int
	Policy    retry.Policy
	OnAttempt func(Attempt)
}

type parameters struct {
	MaxLength int  `json:"max_length"`
	MinLength int  `json:"min_length"`
	DoSample  bool `json:"do_sample"`
}

type request struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
}

type output struct {
	SummaryText string `json:"summary_text"`
}

// Summarizer calls a summarization model with bounded retries. A failure
// never escapes: it becomes an Unavailable result.
type Summarizer struct {
	client    *hf.Client
	model     string
	params    parameters
	policy    retry.Policy
	onAttempt func(Attempt)
}

func New(client *hf.Client, opts Options) *Summarizer {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	if opts.Policy.MaxAttempts <= 0 {
		opts.Policy = DefaultPolicy()
	}
	return &Summarizer{
		client:    client,
		model:     opts.Model,
		params:    parameters{MaxLength: opts.MaxLength, MinLength: opts.MinLength},
		policy:    opts.Policy,
		onAttempt: opts.OnAttempt,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Unavailable("empty input")
	}

	log := logger.FromContext(ctx).WithField("model", s.model)

	var summary string
	attempts, err := s.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		out, err := s.call(ctx, text)
		if s.onAttempt != nil {
			s.onAttempt(Attempt{Number: attempt, Err: err})
		}
		if err != nil {
			return err
		}
		summary = out
		return nil
	}, func(attempt int, err error, wait time.Duration) {
		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"wait_ms": wait.Milliseconds(),
		}).WithError(err).Warn("summarization attempt failed, retrying")
	})

	if err != nil {
		log.WithField("attempts", attempts).WithError(err).Warn("summarization unavailable")
		return Unavailable(err.Error())
	}
	return Available(summary)
}

func (s *Summarizer) call(ctx context.Context, text string) (string, error) {
	var raw json.RawMessage
	err := s.client.Infer(ctx, s.model, request{Inputs: text, Parameters: s.params}, &raw)
	if err != nil {
		return "", err
	}
	summary, err := parseSummary(raw)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(summary) == "" {
		return "", errEmptySummary
	}
	return summary, nil
}

// parseSummary accepts both [{"summary_text":...}] and {"summary_text":...}.
func parseSummary(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var list []output
		if err := json.Unmarshal(raw, &list); err != nil {
			return "", fmt.Errorf("decode summary: %w", err)
		}
		if len(list) == 0 {
			return "", errEmptySummary
		}
		return list[0].SummaryText, nil
	}
	var single output
	if err := json.Unmarshal(raw, &single); err != nil {
		return "", fmt.Errorf("decode summary: %w", err)
	}
	return single.SummaryText, nil
}
