// Package ffmpeg turns recorded video into speech-ready audio.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/video-stream/recap/internal/failure"
	"github.com/video-stream/recap/internal/logger"
	"github.com/video-stream/recap/internal/media"
	"github.com/video-stream/recap/internal/storage"
)

// Strategy selects how the source video reaches ffmpeg.
type Strategy string

const (
	// StrategyAuto streams and falls back to a temp file when the input
	// cannot be demuxed from a pipe.
	StrategyAuto   Strategy = "auto"
	StrategyStream Strategy = "stream"
	StrategyFile   Strategy = "file"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyAuto:
		return StrategyAuto, nil
	case StrategyStream:
		return StrategyStream, nil
	case StrategyFile:
		return StrategyFile, nil
	}
	return "", fmt.Errorf("unknown transcode strategy %q", s)
}

// Output profile: mono, 16 kHz, 64 kbit/s CBR MP3.
var audioArgs = []string{
	"-vn",
	"-acodec", "libmp3lame",
	"-ac", "1",
	"-ar", "16000",
	"-b:a", "64k",
	"-f", "mp3",
}

// stderr fragments ffmpeg prints when an input needs random access.
var seekMarkers = []string{
	"moov atom not found",
	"partial file",
	"could not seek",
}

type Options struct {
	FFmpegPath  string
	FFprobePath string
	Strategy    Strategy
	Runner      Runner
}

// Extractor produces the fixed audio profile from a video blob.
type Extractor struct {
	ffmpegPath  string
	ffprobePath string
	strategy    Strategy
	runner      Runner
}

func NewExtractor(opts Options) *Extractor {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyAuto
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	return &Extractor{
		ffmpegPath:  opts.FFmpegPath,
		ffprobePath: opts.FFprobePath,
		strategy:    opts.Strategy,
		runner:      opts.Runner,
	}
}

func (e *Extractor) Strategy() Strategy { return e.strategy }

// Extract transcodes video into an audio blob. The video blob is consumed
// and released; any files go through ws and are removed before returning.
func (e *Extractor) Extract(ctx context.Context, ws *storage.Workspace, video *media.Blob) (*media.Blob, error) {
	defer video.Release()

	if video.Len() == 0 {
		return nil, failure.New(failure.KindEmptyResult, "no video data to extract audio from")
	}

	log := logger.FromContext(ctx).WithField("strategy", string(e.strategy))
	start := time.Now()

	var (
		out []byte
		err error
	)
	switch e.strategy {
	case StrategyStream:
		out, err = e.stream(ctx, video)
	case StrategyFile:
		out, err = e.file(ctx, ws, video)
	default:
		out, err = e.stream(ctx, video)
		if err != nil && ctx.Err() == nil && needsSeekableInput(err) {
			log.WithError(err).Warn("streaming transcode failed, retrying from temp file")
			out, err = e.file(ctx, ws, video)
		}
	}
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, err
	}
	if len(out) == 0 {
		return nil, failure.New(failure.KindEmptyResult, "audio extraction produced no data")
	}

	log.WithFields(logrus.Fields{
		"bytes":       len(out),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("audio extracted")

	return media.NewBlob(media.KindAudio, "audio/mpeg", out), nil
}

func (e *Extractor) stream(ctx context.Context, video *media.Blob) ([]byte, error) {
	args := []string{"-hide_banner", "-loglevel", "error", "-i", "pipe:0"}
	args = append(args, audioArgs...)
	args = append(args, "pipe:1")

	res, err := e.runner.Run(ctx, Command{Name: e.ffmpegPath, Args: args, Stdin: video.Reader()})
	if err != nil {
		return nil, transcodeError(e.ffmpegPath, res, err)
	}
	return res.Stdout, nil
}

func (e *Extractor) file(ctx context.Context, ws *storage.Workspace, video *media.Blob) ([]byte, error) {
	ext := storage.VideoExtension(video.Source(), video.ContentType())
	in, err := ws.CreateTemp("recap-video-*" + ext)
	if err != nil {
		return nil, failure.Wrap(failure.KindTranscode, err, "could not stage video for transcoding")
	}
	inPath := in.Name()
	defer ws.Remove(inPath)

	if _, err := io.Copy(in, bytes.NewReader(video.Bytes())); err != nil {
		in.Close()
		return nil, failure.Wrap(failure.KindTranscode, err, "could not stage video for transcoding")
	}
	if err := in.Close(); err != nil {
		return nil, failure.Wrap(failure.KindTranscode, err, "could not stage video for transcoding")
	}

	log := logger.FromContext(ctx)
	info, err := e.Probe(ctx, inPath)
	switch {
	case err != nil:
		log.WithError(err).Warn("ffprobe failed, transcoding anyway")
	case !info.HasAudio():
		return nil, failure.New(failure.KindEmptyResult, "video has no audio track")
	default:
		log.WithFields(logrus.Fields{
			"duration_s":  info.Seconds(),
			"audio_codec": info.AudioCodec,
		}).Debug("source probed")
	}

	out, err := ws.CreateTemp("recap-audio-*.mp3")
	if err != nil {
		return nil, failure.Wrap(failure.KindTranscode, err, "could not create audio file")
	}
	outPath := out.Name()
	out.Close()
	defer ws.Remove(outPath)

	args := []string{"-hide_banner", "-loglevel", "error", "-i", inPath}
	args = append(args, audioArgs...)
	args = append(args, "-y", outPath)

	res, err := e.runner.Run(ctx, Command{Name: e.ffmpegPath, Args: args})
	if err != nil {
		return nil, transcodeError(e.ffmpegPath, res, err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, failure.Wrap(failure.KindTranscode, err, "could not read extracted audio")
	}
	return data, nil
}

func transcodeError(name string, res Result, err error) error {
	cmdErr := &CommandError{Name: name, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	return failure.Wrap(failure.KindTranscode, cmdErr, "audio extraction failed")
}

func needsSeekableInput(err error) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	stderr := strings.ToLower(cmdErr.Stderr)
	for _, m := range seekMarkers {
		if strings.Contains(stderr, m) {
			return true
		}
	}
	return false
}
