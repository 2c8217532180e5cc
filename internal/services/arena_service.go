package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/albertoelopez/AI-Debate-Arena/internal/models"
)

// ArenaService owns the running debates. Engines are created here, run
// on their own goroutine, and removed a minute after being stopped so
// late WebSocket joiners can still read the final events.
type ArenaService struct {
	mu      sync.Mutex
	debates map[string]*DebateEngine

	gen          Generator
	tts          SpeechSynthesizer
	logger       *logrus.Logger
	opts         EngineOptions
	cleanupDelay time.Duration
}

func NewArenaService(gen Generator, tts SpeechSynthesizer, logger *logrus.Logger, opts EngineOptions) *ArenaService {
	return &ArenaService{
		debates:      make(map[string]*DebateEngine),
		gen:          gen,
		tts:          tts,
		logger:       logger,
		opts:         opts,
		cleanupDelay: 60 * time.Second,
	}
}

// CreateFromTemplate creates a debate from a pre-built template. A
// maxRounds of 0 keeps the template's round count.
func (s *ArenaService) CreateFromTemplate(templateName string, maxRounds int) (*DebateEngine, error) {
	tmpl, ok := models.DebateTemplates[templateName]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", templateName)
	}
	cfg := tmpl
	if maxRounds > 0 {
		cfg.MaxRounds = maxRounds
	}
	return s.register(&cfg)
}

// CreateCustom creates a debate from user-defined positions.
func (s *ArenaService) CreateCustom(topic string, positions []models.PositionSpec, maxRounds int, strictness string) (*DebateEngine, error) {
	if strictness == "" {
		strictness = models.StrictnessModerate
	}
	if maxRounds == 0 {
		maxRounds = 3
	}
	cfg := models.NewCustomConfig(topic, positions, maxRounds, strictness)
	return s.register(&cfg)
}

func (s *ArenaService) register(cfg *models.DebateConfig) (*DebateEngine, error) {
	engine, err := NewDebateEngine(cfg, s.gen, s.tts, s.logger, s.opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.debates[engine.ID()] = engine
	s.mu.Unlock()

	s.logger.Infof("Debate created: %s (%s)", engine.ID(), cfg.Topic)
	return engine, nil
}

// Get looks up a debate; nil when unknown.
func (s *ArenaService) Get(debateID string) *DebateEngine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debates[debateID]
}

// Count reports the number of registered debates.
func (s *ArenaService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.debates)
}

// Start launches the debate run loop in the background.
func (s *ArenaService) Start(debateID string) error {
	engine := s.Get(debateID)
	if engine == nil {
		return fmt.Errorf("debate not found")
	}
	if engine.IsActive() {
		return fmt.Errorf("debate already running")
	}

	go engine.Run(context.Background())
	return nil
}

// Stop marks a debate inactive, tells listeners, and schedules removal.
func (s *ArenaService) Stop(debateID string) error {
	engine := s.Get(debateID)
	if engine == nil {
		return fmt.Errorf("debate not found")
	}

	engine.Stop()
	engine.Listeners().Notify(models.NewEvent(models.EventDebateStopped, debateID, nil))

	time.AfterFunc(s.cleanupDelay, func() {
		s.Remove(debateID)
	})
	return nil
}

// Remove drops a debate from the registry.
func (s *ArenaService) Remove(debateID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.debates, debateID)
}
