// Package pipeline runs a recording through download, audio extraction,
// speech recognition, cleanup and summarization.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/video-stream/recap/internal/failure"
	"github.com/video-stream/recap/internal/fetch"
	"github.com/video-stream/recap/internal/logger"
	"github.com/video-stream/recap/internal/media"
	"github.com/video-stream/recap/internal/retry"
	"github.com/video-stream/recap/internal/storage"
	"github.com/video-stream/recap/internal/summarize"
	"github.com/video-stream/recap/internal/transcript"
	"github.com/video-stream/recap/internal/whisper"
)

const DefaultBudget = 25 * time.Second

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*media.Blob, error)
}

type Extractor interface {
	Extract(ctx context.Context, ws *storage.Workspace, video *media.Blob) (*media.Blob, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) summarize.Result
}

// Request is one transcription call.
type Request struct {
	VideoURL string `json:"videoUrl"`
}

// Result is the only value a successful run produces.
type Result struct {
	Transcript transcript.Transcript
	Summary    summarize.Result
}

type Options struct {
	TempRoot         string
	Budget           time.Duration
	TranscribePolicy retry.Policy
	OnTransition     func(Transition)
}

// Orchestrator owns no per-run state; every Run gets its own workspace.
type Orchestrator struct {
	fetcher     Fetcher
	extractor   Extractor
	transcriber whisper.Transcriber
	summarizer  Summarizer

	tempRoot         string
	budget           time.Duration
	transcribePolicy retry.Policy
	onTransition     func(Transition)
}

func New(f Fetcher, e Extractor, t whisper.Transcriber, s Summarizer, opts Options) *Orchestrator {
	if opts.Budget <= 0 {
		opts.Budget = DefaultBudget
	}
	if opts.TranscribePolicy.MaxAttempts <= 0 {
		opts.TranscribePolicy = retry.Once()
	}
	return &Orchestrator{
		fetcher:          f,
		extractor:        e,
		transcriber:      t,
		summarizer:       s,
		tempRoot:         opts.TempRoot,
		budget:           opts.Budget,
		transcribePolicy: opts.TranscribePolicy,
		onTransition:     opts.OnTransition,
	}
}

// Validate rejects requests that must not start a run.
func Validate(req Request) error {
	_, err := fetch.ParseURL(req.VideoURL)
	return err
}

// run carries the mutable state of one Run call.
type run struct {
	o       *Orchestrator
	ws      *storage.Workspace
	log     *logrus.Entry
	state   State
	entered time.Time
}

// Run executes the pipeline. Every temporary resource is released before
// Run returns, whatever the outcome.
func (o *Orchestrator) Run(ctx context.Context, req Request) (res Result, err error) {
	if err := Validate(req); err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.budget)
	defer cancel()

	r := &run{
		o:   o,
		ws:  storage.NewWorkspace(o.tempRoot),
		log: logger.FromContext(ctx).WithField("budget_ms", o.budget.Milliseconds()),
	}
	defer func() {
		if rerr := r.ws.Release(); rerr != nil {
			r.log.WithError(rerr).Warn("workspace release failed")
		}
	}()
	defer func() {
		if p := recover(); p != nil {
			stage := r.state
			err = failure.Wrap(kindFor(stage), fmt.Errorf("panic: %v", p), "internal error").WithStage(string(stage))
			r.fail(err)
			res = Result{}
		}
	}()

	start := time.Now()
	r.enter(StateFetching)
	video, err := o.fetcher.Fetch(ctx, req.VideoURL)
	if err != nil {
		return Result{}, r.failStage(ctx, err)
	}
	r.ws.Track(video)
	r.log.WithField("bytes", video.Len()).Info("video fetched")

	r.enter(StateExtracting)
	audio, err := o.extractor.Extract(ctx, r.ws, video)
	if err != nil {
		return Result{}, r.failStage(ctx, err)
	}
	r.ws.Track(audio)
	r.log.WithField("bytes", audio.Len()).Info("audio extracted")

	r.enter(StateTranscribing)
	raw, err := r.transcribe(ctx, audio)
	if err != nil {
		return Result{}, r.failStage(ctx, err)
	}

	r.enter(StateCleaning)
	tr := transcript.Clean(raw)
	r.log.WithField("words", tr.WordCount()).Info("transcript cleaned")

	r.enter(StateSummarizing)
	summary := summarize.Unavailable("empty input")
	if !tr.IsEmpty() {
		summary = r.summarize(ctx, tr.Text)
	}
	if !summary.IsAvailable() {
		r.log.WithField("reason", summary.Reason()).Warn("summary unavailable")
	}

	r.enter(StateDone)
	r.log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("pipeline finished")

	return Result{Transcript: tr, Summary: summary}, nil
}

func (r *run) transcribe(ctx context.Context, audio *media.Blob) (string, error) {
	data, contentType := audio.Bytes(), audio.ContentType()
	defer audio.Release()

	var text string
	_, err := r.o.transcribePolicy.Do(ctx, func(ctx context.Context, attempt int) error {
		blob := media.NewBlob(media.KindAudio, contentType, data)
		r.ws.Track(blob)
		out, err := r.o.transcriber.Transcribe(ctx, blob)
		if err != nil {
			if !whisper.Retryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
		text = out
		return nil
	}, func(attempt int, err error, wait time.Duration) {
		r.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"wait_ms": wait.Milliseconds(),
		}).WithError(err).Warn("transcription attempt failed, retrying")
	})
	return text, err
}

// summarize never fails the run; a panicking summarizer degrades to an
// unavailable summary like any other summarization error.
func (r *run) summarize(ctx context.Context, text string) (res summarize.Result) {
	defer func() {
		if p := recover(); p != nil {
			r.log.WithField("panic", fmt.Sprint(p)).Error("summarizer panicked")
			res = summarize.Unavailable(fmt.Sprintf("panic: %v", p))
		}
	}()
	return r.o.summarizer.Summarize(ctx, text)
}

func (r *run) enter(next State) {
	now := time.Now()
	t := Transition{From: r.state, To: next}
	if r.state != "" {
		t.Elapsed = now.Sub(r.entered)
		r.log.WithFields(logrus.Fields{
			"stage":       string(r.state),
			"duration_ms": t.Elapsed.Milliseconds(),
		}).Debug("stage finished")
	}
	r.state = next
	r.entered = now
	r.log = r.log.WithField("state", string(next))
	if next != StateDone {
		r.log.WithField("stage", string(next)).Debug("stage started")
	}
	r.notify(t)
}

func (r *run) failStage(ctx context.Context, err error) error {
	ferr := classify(ctx, r.state, err)
	r.fail(ferr)
	return ferr
}

func (r *run) fail(err error) {
	t := Transition{From: r.state, To: StateFailed, Elapsed: time.Since(r.entered), Err: err}
	r.log.WithFields(logrus.Fields{
		"stage":       string(r.state),
		"duration_ms": t.Elapsed.Milliseconds(),
	}).WithError(err).Error("stage failed")
	r.notify(t)
}

func (r *run) notify(t Transition) {
	if r.o.onTransition != nil {
		r.o.onTransition(t)
	}
}

// classify turns a stage error into a stage-tagged failure. Context expiry
// wins over whatever error the stage produced.
func classify(ctx context.Context, stage State, err error) error {
	cerr := ctx.Err()
	if cerr == nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		cerr = err
	}
	switch {
	case errors.Is(cerr, context.DeadlineExceeded):
		return failure.Wrap(kindFor(stage), context.DeadlineExceeded, "deadline exceeded").WithStage(string(stage))
	case errors.Is(cerr, context.Canceled):
		return failure.Wrap(kindFor(stage), context.Canceled, "request cancelled").WithStage(string(stage))
	}

	if fe, ok := failure.As(err); ok {
		return fe.WithStage(string(stage))
	}
	msg, ok := stageMessage[stage]
	if !ok {
		msg = "internal error"
	}
	return failure.Wrap(kindFor(stage), err, msg).WithStage(string(stage))
}
