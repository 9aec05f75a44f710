package whisper

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/video-stream/recap/internal/media"
)

// Service holds the registered engines and routes to the selected one.
// It is itself a Transcriber.
type Service struct {
	engines map[string]Transcriber
	active  string
	log     logrus.FieldLogger
}

func NewService(log logrus.FieldLogger) *Service {
	return &Service{
		engines: make(map[string]Transcriber),
		log:     log,
	}
}

// RegisterEngine adds an engine. The first registered engine becomes active.
func (s *Service) RegisterEngine(name string, engine Transcriber) {
	s.engines[name] = engine
	if s.active == "" {
		s.active = name
	}
	s.log.WithField("engine", name).Info("whisper engine registered")
}

// Use selects the active engine.
func (s *Service) Use(name string) error {
	if _, ok := s.engines[name]; !ok {
		return fmt.Errorf("unknown whisper engine: %s (available: %v)", name, s.EngineNames())
	}
	s.active = name
	return nil
}

// Engine returns a registered engine by name.
func (s *Service) Engine(name string) (Transcriber, bool) {
	e, ok := s.engines[name]
	return e, ok
}

func (s *Service) Name() string {
	return s.active
}

func (s *Service) Transcribe(ctx context.Context, audio *media.Blob) (string, error) {
	engine, ok := s.engines[s.active]
	if !ok {
		audio.Release()
		return "", fmt.Errorf("no whisper engine registered")
	}
	return engine.Transcribe(ctx, audio)
}

func (s *Service) EngineNames() []string {
	names := make([]string, 0, len(s.engines))
	for name := range s.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
