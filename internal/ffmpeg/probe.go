package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

type ProbeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

type ProbeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"` // video, audio, subtitle
	SampleRate string `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	BitRate    string `json:"bit_rate,omitempty"`
}

// MediaInfo summarizes what ffprobe found in a recording.
type MediaInfo struct {
	Format     string        `json:"format"`
	Duration   string        `json:"duration"`
	Size       string        `json:"size"`
	VideoCodec string        `json:"video_codec"`
	AudioCodec string        `json:"audio_codec"`
	SampleRate string        `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Streams    []ProbeStream `json:"streams"`
}

// HasAudio reports whether at least one audio stream was found.
func (m *MediaInfo) HasAudio() bool {
	return m.AudioCodec != ""
}

// Seconds parses Duration, returning 0 when unknown.
func (m *MediaInfo) Seconds() float64 {
	d, err := strconv.ParseFloat(m.Duration, 64)
	if err != nil {
		return 0
	}
	return d
}

// Probe runs ffprobe on a file in the workspace.
func (e *Extractor) Probe(ctx context.Context, filePath string) (*MediaInfo, error) {
	res, err := e.runner.Run(ctx, Command{
		Name: e.ffprobePath,
		Args: []string{
			"-v", "error",
			"-print_format", "json",
			"-show_format",
			"-show_streams",
			filePath,
		},
	})
	if err != nil {
		return nil, &CommandError{Name: e.ffprobePath, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}
	return parseProbe(res.Stdout)
}

func parseProbe(output []byte) (*MediaInfo, error) {
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &MediaInfo{
		Format:   result.Format.FormatName,
		Duration: result.Format.Duration,
		Size:     result.Format.Size,
		Streams:  result.Streams,
	}

	for _, s := range result.Streams {
		switch s.CodecType {
		case "video":
			if info.VideoCodec == "" {
				info.VideoCodec = s.CodecName
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = s.CodecName
				info.SampleRate = s.SampleRate
				info.Channels = s.Channels
			}
		}
	}

	return info, nil
}
