package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// SpeechSynthesizer turns text into an audio byte buffer. Running
// without a synthesizer is a normal condition, not an error: the engine
// takes a nil synthesizer and records turns with audio_generated=false.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, voiceID int) ([]byte, error)
}

type ttsRequest struct {
	Text    string `json:"text"`
	VoiceID int    `json:"voice_id"`
	Mode    string `json:"mode"`
}

// HTTPSynthesizer posts synthesis requests to an external TTS service
// and returns the raw audio bytes.
type HTTPSynthesizer struct {
	url        string
	httpClient *http.Client
	logger     *logrus.Logger
}

// SynthesizerFromEnv builds a synthesizer from TTS_URL, or nil when the
// variable is unset.
func SynthesizerFromEnv(logger *logrus.Logger) SpeechSynthesizer {
	url := os.Getenv("TTS_URL")
	if url == "" {
		logger.Info("⚠️ Running without voice synthesis")
		return nil
	}
	logger.Infof("✅ Voice synthesis enabled via %s", url)
	return &HTTPSynthesizer{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string, voiceID int) ([]byte, error) {
	payload, err := json.Marshal(ttsRequest{Text: text, VoiceID: voiceID, Mode: "sequential"})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts service returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
