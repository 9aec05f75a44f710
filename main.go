package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/video-stream/recap/internal/answer"
	"github.com/video-stream/recap/internal/api"
	"github.com/video-stream/recap/internal/config"
	"github.com/video-stream/recap/internal/fetch"
	"github.com/video-stream/recap/internal/ffmpeg"
	"github.com/video-stream/recap/internal/hf"
	"github.com/video-stream/recap/internal/logger"
	"github.com/video-stream/recap/internal/pipeline"
	"github.com/video-stream/recap/internal/retry"
	"github.com/video-stream/recap/internal/storage"
	"github.com/video-stream/recap/internal/summarize"
	"github.com/video-stream/recap/internal/whisper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Clean up run directories left by a previous crash
	tempRoot := cfg.TempDir
	if tempRoot == "" {
		tempRoot = os.TempDir()
	}
	if removed, err := storage.SweepStale(tempRoot, cfg.StaleRunAge); err != nil {
		log.WithError(err).Warn("stale workspace sweep failed")
	} else if len(removed) > 0 {
		log.WithField("count", len(removed)).Info("removed stale workspaces")
	}

	for _, bin := range []string{cfg.FFmpegPath, cfg.FFprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			log.WithField("binary", bin).Warn("not found in PATH, audio extraction will fail")
		}
	}

	hfClient := hf.NewClient(cfg.HFBaseURL, cfg.HuggingFaceAPIKey, nil)

	asr := whisper.NewService(log)
	asr.RegisterEngine("huggingface", whisper.NewHuggingFaceClient(hfClient, modelFor(cfg, "huggingface"), cfg.ASRLanguage))
	if cfg.OpenAIAPIKey != "" {
		asr.RegisterEngine("openai", whisper.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, modelFor(cfg, "openai"), cfg.ASRLanguage))
	}
	if err := asr.Use(cfg.ASREngine); err != nil {
		log.Fatalf("Failed to select ASR engine: %v", err)
	}

	strategy, err := ffmpeg.ParseStrategy(cfg.TranscodeStrategy)
	if err != nil {
		log.Fatalf("Invalid transcode strategy: %v", err)
	}
	extractor := ffmpeg.NewExtractor(ffmpeg.Options{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		Strategy:    strategy,
	})

	shape, err := retry.ParseShape(cfg.SummaryBackoff)
	if err != nil {
		log.Fatalf("Invalid summary backoff: %v", err)
	}
	summarizer := summarize.New(hfClient, summarize.Options{
		Model: cfg.SummaryModel,
		Policy: retry.Policy{
			MaxAttempts: cfg.SummaryMaxAttempts,
			BaseDelay:   cfg.SummaryBaseDelay,
			Shape:       shape,
		},
	})

	orchestrator := pipeline.New(
		fetch.New(fetch.Options{Timeout: cfg.FetchTimeout, MaxBytes: cfg.MaxVideoBytes}),
		extractor,
		asr,
		summarizer,
		pipeline.Options{
			TempRoot: tempRoot,
			Budget:   cfg.RequestBudget,
			TranscribePolicy: retry.Policy{
				MaxAttempts: cfg.TranscribeMaxAttempts,
				BaseDelay:   time.Second,
				Shape:       retry.Exponential,
			},
		},
	)

	completer, err := answer.NewCompleter(ctx, answer.ProviderConfig{
		Provider: cfg.CompletionProvider,
		APIKey:   cfg.CompletionAPIKey,
		BaseURL:  cfg.CompletionBaseURL,
		Model:    cfg.CompletionModel,
	})
	if err != nil {
		log.Fatalf("Failed to initialize completion provider: %v", err)
	}

	router := api.NewRouter(ctx, cfg, log, orchestrator, answer.NewResponder(completer))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	log.WithFields(logrus.Fields{
		"addr":       srv.Addr,
		"asr_engine": asr.Name(),
		"completion": completer.Name(),
		"strategy":   string(extractor.Strategy()),
		"budget":     cfg.RequestBudget.String(),
		"temp_root":  tempRoot,
	}).Info("Starting server")

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", srv.Addr, err)
	}
	if err := serve(ctx, srv, ln, log, cfg.ServerWriteTimeout); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
	log.Info("Server stopped")
}

// serve runs srv on ln until ctx ends, then drains in-flight requests for up
// to drain before returning. It only returns once Shutdown has completed.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, log logrus.FieldLogger, drain time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// modelFor applies ASR_MODEL only to the engine it was configured for.
func modelFor(cfg *config.Config, engine string) string {
	if cfg.ASREngine == engine {
		return cfg.ASRModel
	}
	return ""
}
