package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertoelopez/AI-Debate-Arena/internal/models"
	"github.com/albertoelopez/AI-Debate-Arena/internal/services"
)

// cannedGenerator satisfies services.Generator without any model calls.
type cannedGenerator struct{}

func (cannedGenerator) GenerateOpening(ctx context.Context, debater models.Debater, config *models.DebateConfig) models.Argument {
	return models.Argument{MainClaim: "opening", Strategy: "opening", Confidence: 0.9}
}

func (cannedGenerator) GenerateArgument(ctx context.Context, debater models.Debater, config *models.DebateConfig,
	recentTurns []models.TurnResult, round int, isRebuttal bool, targetDebater string) models.Argument {
	return models.Argument{MainClaim: "argument", Strategy: "logical", Confidence: 0.8}
}

func (cannedGenerator) GenerateClosing(ctx context.Context, debater models.Debater, config *models.DebateConfig,
	history []models.TurnResult) models.Argument {
	return models.Argument{MainClaim: "closing", Strategy: "closing", Confidence: 0.9}
}

func (cannedGenerator) GenerateModeration(ctx context.Context, modCtx services.ModeratorContext, actionType string) models.ModeratorAction {
	return models.ModeratorAction{ActionType: actionType, Message: "moderator"}
}

func (cannedGenerator) CheckRelevance(ctx context.Context, argument models.Argument, topic, description, strictness string) models.RelevanceCheck {
	return models.RelevanceCheck{IsRelevant: true, RelevanceScore: 0.9}
}

func newTestApp() (*fiber.App, *services.ArenaService) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	arena := services.NewArenaService(cannedGenerator{}, nil, logger, services.EngineOptions{
		SpeakerPause:   time.Millisecond,
		ModeratorPause: time.Millisecond,
	})
	h := NewHandler(arena, logger)

	app := fiber.New()
	app.Get("/health", h.Health)
	app.Get("/api/templates", h.ListTemplates)
	app.Get("/api/templates/:name", h.GetTemplate)
	app.Post("/api/debate/create", h.CreateDebate)
	app.Post("/api/debate/create-custom", h.CreateCustomDebate)
	app.Get("/api/debate/:debate_id", h.GetDebate)
	app.Post("/api/debate/:debate_id/start", h.StartDebate)
	app.Delete("/api/debate/:debate_id", h.StopDebate)
	app.Get("/api/debate/:debate_id/transcript", h.GetTranscript)
	return app, arena
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp()

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(0), body["active_debates"])
	assert.Len(t, body["available_templates"], 3)
}

func TestListAndGetTemplates(t *testing.T) {
	app, _ := newTestApp()

	resp, body := doJSON(t, app, http.MethodGet, "/api/templates", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["templates"], 3)

	resp, body = doJSON(t, app, http.MethodGet, "/api/templates/god_existence", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Does God exist?", body["topic"])
	assert.Len(t, body["debaters"], 3)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/templates/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateAndFetchDebate(t *testing.T) {
	app, _ := newTestApp()

	resp, body := doJSON(t, app, http.MethodPost, "/api/debate/create", map[string]interface{}{
		"template":   "free_will",
		"max_rounds": 2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "created", body["status"])
	assert.Equal(t, "Do humans have free will?", body["topic"])
	assert.Equal(t, float64(2), body["max_rounds"])

	debateID := body["debate_id"].(string)
	resp, body = doJSON(t, app, http.MethodGet, "/api/debate/"+debateID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "not_started", body["phase"])
	assert.Equal(t, false, body["is_active"])
	assert.Equal(t, float64(0), body["total_turns"])
}

func TestCreateDebateUnknownTemplate(t *testing.T) {
	app, _ := newTestApp()
	resp, _ := doJSON(t, app, http.MethodPost, "/api/debate/create", map[string]interface{}{"template": "nope"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestCreateCustomDebateValidation(t *testing.T) {
	app, _ := newTestApp()

	resp, _ := doJSON(t, app, http.MethodPost, "/api/debate/create-custom", map[string]interface{}{
		"positions": []map[string]string{{"name": "Pro"}, {"name": "Con"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing topic")

	resp, _ = doJSON(t, app, http.MethodPost, "/api/debate/create-custom", map[string]interface{}{
		"topic":     "Lonely",
		"positions": []map[string]string{{"name": "Solo"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "too few positions")

	resp, body := doJSON(t, app, http.MethodPost, "/api/debate/create-custom", map[string]interface{}{
		"topic": "Should we colonize Mars?",
		"positions": []map[string]string{
			{"name": "Pro-Colonization", "stance": "Mars is humanity's future"},
			{"name": "Anti-Colonization", "stance": "Fix Earth first"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Should we colonize Mars?", body["topic"])
	assert.Len(t, body["debaters"], 2)
}

func TestUnknownDebateRoutes(t *testing.T) {
	app, _ := newTestApp()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/debate/debate_missing"},
		{http.MethodPost, "/api/debate/debate_missing/start"},
		{http.MethodDelete, "/api/debate/debate_missing"},
		{http.MethodGet, "/api/debate/debate_missing/transcript"},
	} {
		resp, _ := doJSON(t, app, tc.method, tc.path, nil)
		assert.Equalf(t, http.StatusNotFound, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestStartDebateAndTranscript(t *testing.T) {
	app, arena := newTestApp()

	_, body := doJSON(t, app, http.MethodPost, "/api/debate/create", map[string]interface{}{
		"template":   "god_existence",
		"max_rounds": 1,
	})
	debateID := body["debate_id"].(string)

	done := make(chan struct{})
	arena.Get(debateID).AddListener(func(e models.Event) {
		if e.Type == models.EventDebateEnded {
			close(done)
		}
	})

	resp, body := doJSON(t, app, http.MethodPost, "/api/debate/"+debateID+"/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "starting", body["status"])

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("debate did not finish")
	}

	resp, body = doJSON(t, app, http.MethodGet, "/api/debate/"+debateID+"/transcript", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["transcript"], "DEBATE TRANSCRIPT")
	stats := body["statistics"].(map[string]interface{})
	// 3 openings + 3 main + 3 rebuttals + 3 closings.
	assert.Equal(t, float64(12), stats["total_turns"])
}
