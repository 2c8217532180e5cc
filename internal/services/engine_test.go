package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertoelopez/AI-Debate-Arena/internal/models"
)

type stubArgCall struct {
	debaterID  string
	round      int
	isRebuttal bool
	target     string
}

// stubGenerator produces deterministic content and records every
// argument request so tests can inspect ordering and targeting.
type stubGenerator struct {
	relevance models.RelevanceCheck
	argCalls  []stubArgCall
}

func newStubGenerator() *stubGenerator {
	return &stubGenerator{
		relevance: models.RelevanceCheck{IsRelevant: true, RelevanceScore: 0.9},
	}
}

func (g *stubGenerator) GenerateOpening(ctx context.Context, debater models.Debater, config *models.DebateConfig) models.Argument {
	return models.Argument{MainClaim: "opening from " + debater.Name, Strategy: "opening", Confidence: 0.9}
}

func (g *stubGenerator) GenerateArgument(ctx context.Context, debater models.Debater, config *models.DebateConfig,
	recentTurns []models.TurnResult, round int, isRebuttal bool, targetDebater string) models.Argument {
	g.argCalls = append(g.argCalls, stubArgCall{
		debaterID:  debater.ID,
		round:      round,
		isRebuttal: isRebuttal,
		target:     targetDebater,
	})
	return models.Argument{MainClaim: fmt.Sprintf("round %d from %s", round, debater.Name), Strategy: "logical", Confidence: 0.8}
}

func (g *stubGenerator) GenerateClosing(ctx context.Context, debater models.Debater, config *models.DebateConfig,
	history []models.TurnResult) models.Argument {
	return models.Argument{MainClaim: "closing from " + debater.Name, Strategy: "closing", Confidence: 0.9}
}

func (g *stubGenerator) GenerateModeration(ctx context.Context, modCtx ModeratorContext, actionType string) models.ModeratorAction {
	return models.ModeratorAction{ActionType: actionType, Message: "moderator " + actionType}
}

func (g *stubGenerator) CheckRelevance(ctx context.Context, argument models.Argument, topic, description, strictness string) models.RelevanceCheck {
	return g.relevance
}

func fastOptions() EngineOptions {
	return EngineOptions{
		SpeakerPause:   time.Millisecond,
		ModeratorPause: time.Millisecond,
	}
}

func twoDebaterConfig() *models.DebateConfig {
	return &models.DebateConfig{
		Topic: "Should recess be longer?",
		Debaters: []models.Debater{
			{ID: "pro", Name: "Pro Speaker", Position: models.DebaterPosition{Name: "Pro", Stance: "Longer recess"}},
			{ID: "con", Name: "Con Speaker", Position: models.DebaterPosition{Name: "Con", Stance: "Recess is long enough"}, VoiceID: 1},
		},
		MaxRounds:      1,
		AllowRebuttals: false,
	}
}

func threeDebaterConfig(rounds int, rebuttals bool) *models.DebateConfig {
	return &models.DebateConfig{
		Topic: "Do humans have free will?",
		Debaters: []models.Debater{
			{ID: "a", Name: "Alice", Position: models.DebaterPosition{Name: "Libertarian", Stance: "Choices are free"}},
			{ID: "b", Name: "Bob", Position: models.DebaterPosition{Name: "Determinist", Stance: "Choices are caused"}, VoiceID: 1},
			{ID: "c", Name: "Cara", Position: models.DebaterPosition{Name: "Compatibilist", Stance: "Both are true"}, VoiceID: 2},
		},
		MaxRounds:      rounds,
		AllowRebuttals: rebuttals,
	}
}

func newTestEngine(t *testing.T, cfg *models.DebateConfig, gen Generator) *DebateEngine {
	t.Helper()
	engine, err := NewDebateEngine(cfg, gen, nil, testLogger(), fastOptions())
	require.NoError(t, err)
	return engine
}

// collectEvents subscribes a recording listener. Run executes on the
// test goroutine, so the slice needs no locking.
func collectEvents(engine *DebateEngine) *[]models.Event {
	events := &[]models.Event{}
	engine.AddListener(func(e models.Event) {
		*events = append(*events, e)
	})
	return events
}

func eventsOfType(events []models.Event, eventType string) []models.Event {
	var out []models.Event
	for _, e := range events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func TestRunDebateTurnCounts(t *testing.T) {
	gen := newStubGenerator()
	engine := newTestEngine(t, threeDebaterConfig(2, true), gen)
	events := collectEvents(engine)

	engine.Run(context.Background())

	// 3 openings + 3x2 main + 3 rebuttals + 3 closings.
	turns := engine.Turns()
	assert.Len(t, turns, 15)

	byRound := make(map[int]int)
	for _, turn := range turns {
		byRound[turn.RoundNumber]++
	}
	assert.Equal(t, 3, byRound[0], "openings")
	assert.Equal(t, 3, byRound[1], "round 1")
	assert.Equal(t, 3, byRound[2], "round 2")
	assert.Equal(t, 3, byRound[3], "rebuttals")
	assert.Equal(t, 3, byRound[4], "closings")

	ended := eventsOfType(*events, models.EventDebateEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, 15, ended[0].Payload["total_turns"])
	assert.Equal(t, 2, ended[0].Payload["rounds_completed"])
}

func TestRunDebateRecessExample(t *testing.T) {
	gen := newStubGenerator()
	engine := newTestEngine(t, twoDebaterConfig(), gen)
	events := collectEvents(engine)

	engine.Run(context.Background())

	// 2 openings + 2 main + 2 closings; intro and conclusion are
	// broadcast only, never history.
	assert.Equal(t, 6, engine.TurnCount())

	actions := eventsOfType(*events, models.EventModeratorAction)
	var kinds []string
	for _, a := range actions {
		kinds = append(kinds, a.Payload["action_type"].(string))
	}
	assert.Equal(t, []string{models.ActionIntroduce, models.ActionTransition, models.ActionConclude}, kinds)

	intro := actions[0].Payload["message"].(string)
	assert.Contains(t, intro, "Pro Speaker")
	assert.Contains(t, intro, "Con Speaker")
	assert.Contains(t, intro, "Should recess be longer?")
}

func TestPhaseOrder(t *testing.T) {
	t.Run("with rebuttals", func(t *testing.T) {
		engine := newTestEngine(t, threeDebaterConfig(1, true), newStubGenerator())
		events := collectEvents(engine)
		engine.Run(context.Background())

		var phases []string
		for _, e := range eventsOfType(*events, models.EventPhaseChange) {
			phases = append(phases, e.Payload["phase"].(string))
		}
		assert.Equal(t, []string{"introduction", "opening", "debate", "rebuttals", "closing", "conclusion"}, phases)
		assert.Equal(t, models.PhaseFinished, engine.Phase())
	})

	t.Run("rebuttals disabled", func(t *testing.T) {
		engine := newTestEngine(t, threeDebaterConfig(1, false), newStubGenerator())
		events := collectEvents(engine)
		engine.Run(context.Background())

		var phases []string
		for _, e := range eventsOfType(*events, models.EventPhaseChange) {
			phases = append(phases, e.Payload["phase"].(string))
		}
		assert.Equal(t, []string{"introduction", "opening", "debate", "closing", "conclusion"}, phases)
	})
}

func TestRoundsAreMonotonic(t *testing.T) {
	engine := newTestEngine(t, threeDebaterConfig(3, false), newStubGenerator())
	events := collectEvents(engine)

	assert.Equal(t, 0, engine.CurrentRound())
	engine.Run(context.Background())

	var rounds []int
	for _, e := range eventsOfType(*events, models.EventRoundStart) {
		rounds = append(rounds, e.Payload["round"].(int))
	}
	assert.Equal(t, []int{1, 2, 3}, rounds)
	assert.Equal(t, 3, engine.CurrentRound())
}

func TestAllFailingGeneratorStillCompletes(t *testing.T) {
	// Even when every model call errors, the debate runs to the end on
	// fallback content and never surfaces an error event.
	gen := NewLLMGenerator(&fakeChatClient{err: errors.New("provider down")}, testLogger())
	cfg := twoDebaterConfig()
	cfg.AllowRebuttals = true
	engine := newTestEngine(t, cfg, gen)
	events := collectEvents(engine)

	engine.Run(context.Background())

	// 2 openings + 2 main + 2 rebuttals + 2 closings.
	turns := engine.Turns()
	assert.Len(t, turns, 8)
	for _, turn := range turns {
		assert.NotEmpty(t, turn.Argument.MainClaim)
	}
	assert.Contains(t, turns[0].Argument.MainClaim, "I stand here today")

	assert.Empty(t, eventsOfType(*events, models.EventDebateError))
	assert.Len(t, eventsOfType(*events, models.EventDebateEnded), 1)
}

func TestLowRelevanceTriggersRedirect(t *testing.T) {
	gen := newStubGenerator()
	gen.relevance = models.RelevanceCheck{IsRelevant: true, RelevanceScore: 0.2}

	cfg := threeDebaterConfig(2, false)
	cfg.ModeratorStrictness = models.StrictnessModerate
	engine := newTestEngine(t, cfg, gen)
	events := collectEvents(engine)

	engine.Run(context.Background())

	var redirects int
	lastSpeaker := ""
	for _, e := range *events {
		switch e.Type {
		case models.EventTurnCompleted:
			turn := e.Payload["turn"].(map[string]interface{})
			lastSpeaker = turn["debater_name"].(string)
		case models.EventModeratorAction:
			if e.Payload["action_type"] == models.ActionRedirect {
				redirects++
				assert.Equal(t, lastSpeaker, e.Payload["addressed_to"],
					"redirect must address the debater who just spoke")
				assert.Equal(t, true, e.Payload["off_topic_warning"])
			}
		}
	}
	// One redirect per main-phase turn, none for openings or closings.
	assert.Equal(t, 6, redirects)
}

func TestStrictnessThresholds(t *testing.T) {
	cases := []struct {
		strictness string
		score      float64
		offTopic   bool
	}{
		{models.StrictnessRelaxed, 0.35, false},
		{models.StrictnessRelaxed, 0.25, true},
		{models.StrictnessModerate, 0.35, true},
		{models.StrictnessModerate, 0.55, false},
		{models.StrictnessStrict, 0.55, true},
		{models.StrictnessStrict, 0.75, false},
	}

	for _, tc := range cases {
		cfg := twoDebaterConfig()
		cfg.ModeratorStrictness = tc.strictness
		engine := newTestEngine(t, cfg, newStubGenerator())

		got := engine.offTopic(models.RelevanceCheck{IsRelevant: true, RelevanceScore: tc.score})
		assert.Equalf(t, tc.offTopic, got, "strictness %s score %v", tc.strictness, tc.score)
	}

	// An explicit off-topic flag always triggers, whatever the score.
	engine := newTestEngine(t, twoDebaterConfig(), newStubGenerator())
	assert.True(t, engine.offTopic(models.RelevanceCheck{IsRelevant: false, RelevanceScore: 0.9}))
}

func TestRebuttalTargeting(t *testing.T) {
	gen := newStubGenerator()
	engine := newTestEngine(t, threeDebaterConfig(1, true), gen)

	engine.Run(context.Background())

	// Round 1 of 1 keeps main-phase arguments non-rebuttal, so rebuttal
	// calls are exactly the isRebuttal ones.
	var rebuttals []stubArgCall
	for _, call := range gen.argCalls {
		if call.isRebuttal {
			rebuttals = append(rebuttals, call)
		}
	}
	require.Len(t, rebuttals, 3)

	// [Alice, Bob, Cara] rebut in reverse: Cara targets Bob, Bob targets
	// Alice, Alice has no target.
	assert.Equal(t, "c", rebuttals[0].debaterID)
	assert.Equal(t, "Bob", rebuttals[0].target)
	assert.Equal(t, "b", rebuttals[1].debaterID)
	assert.Equal(t, "Alice", rebuttals[1].target)
	assert.Equal(t, "a", rebuttals[2].debaterID)
	assert.Equal(t, "", rebuttals[2].target)
}

func TestSecondRoundAddressesPreviousSpeaker(t *testing.T) {
	gen := newStubGenerator()
	engine := newTestEngine(t, threeDebaterConfig(2, false), gen)

	engine.Run(context.Background())

	require.Len(t, gen.argCalls, 6)
	for _, call := range gen.argCalls[:3] {
		assert.False(t, call.isRebuttal, "round 1 has no rebuttal framing")
	}
	round2 := gen.argCalls[3:]
	assert.True(t, round2[0].isRebuttal)
	// First speaker of round 2 addresses whoever spoke last in round 1.
	assert.Equal(t, "Cara", round2[0].target)
	assert.Equal(t, "Alice", round2[1].target)
	assert.Equal(t, "Bob", round2[2].target)
}

func TestStopHaltsAtNextCheckpoint(t *testing.T) {
	engine := newTestEngine(t, threeDebaterConfig(3, true), newStubGenerator())
	events := collectEvents(engine)
	engine.AddListener(func(e models.Event) {
		if e.Type == models.EventTurnCompleted {
			engine.Stop()
		}
	})

	engine.Run(context.Background())

	// The first opening turn completes, then the loop stops scheduling.
	assert.Equal(t, 1, engine.TurnCount())
	assert.False(t, engine.IsActive())
	assert.Equal(t, models.PhaseFinished, engine.Phase())
	assert.Empty(t, eventsOfType(*events, models.EventDebateError))
	assert.Len(t, eventsOfType(*events, models.EventDebateEnded), 1)
}

func TestCancelledContextStopsRun(t *testing.T) {
	engine := newTestEngine(t, threeDebaterConfig(3, true), newStubGenerator())
	events := collectEvents(engine)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine.Run(ctx)

	assert.Zero(t, engine.TurnCount())
	assert.Empty(t, eventsOfType(*events, models.EventDebateError))
	assert.Len(t, eventsOfType(*events, models.EventDebateEnded), 1)
}

func TestListenerRemovedMidRunReceivesNothingFurther(t *testing.T) {
	engine := newTestEngine(t, twoDebaterConfig(), newStubGenerator())

	var removedSaw, otherSaw int
	var id int
	id = engine.AddListener(func(e models.Event) {
		removedSaw++
		engine.RemoveListener(id)
	})
	engine.AddListener(func(e models.Event) { otherSaw++ })

	engine.Run(context.Background())

	assert.Equal(t, 1, removedSaw)
	assert.Greater(t, otherSaw, 1)
}

func TestFollowUpQuestions(t *testing.T) {
	gen := newStubGenerator()
	cfg := threeDebaterConfig(2, false)
	opts := fastOptions()
	opts.FollowUpChance = 1.0
	engine, err := NewDebateEngine(cfg, gen, nil, testLogger(), opts)
	require.NoError(t, err)
	events := collectEvents(engine)

	engine.Run(context.Background())

	var followUps int
	for _, e := range eventsOfType(*events, models.EventModeratorAction) {
		if e.Payload["action_type"] == models.ActionSummarize {
			followUps++
			assert.NotEmpty(t, e.Payload["addressed_to"])
		}
	}
	// One follow-up per main-phase turn at probability 1.
	assert.Equal(t, 6, followUps)
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	cfg := twoDebaterConfig()
	cfg.Debaters = cfg.Debaters[:1]
	_, err := NewDebateEngine(cfg, newStubGenerator(), nil, testLogger(), fastOptions())
	assert.Error(t, err)
}

func TestNewDebateEngineFromTemplate(t *testing.T) {
	engine, err := NewDebateEngineFromTemplate("god_existence", newStubGenerator(), nil, testLogger(), fastOptions())
	require.NoError(t, err)
	assert.Contains(t, engine.ID(), "debate_")
	assert.Equal(t, "Does God exist?", engine.Config().Topic)

	_, err = NewDebateEngineFromTemplate("flat_earth", newStubGenerator(), nil, testLogger(), fastOptions())
	assert.Error(t, err)
}

func TestTranscriptAndStatistics(t *testing.T) {
	engine := newTestEngine(t, twoDebaterConfig(), newStubGenerator())
	engine.Run(context.Background())

	transcript := engine.Transcript()
	assert.Contains(t, transcript, "DEBATE TRANSCRIPT")
	assert.Contains(t, transcript, "Should recess be longer?")
	assert.Contains(t, transcript, "Pro Speaker (Pro)")
	assert.Contains(t, transcript, "opening from Pro Speaker")

	stats := engine.Statistics()
	assert.Equal(t, 6, stats["total_turns"])
	assert.Equal(t, 2, stats["num_debaters"])
	assert.Equal(t, "finished", stats["phase"])
	debaters := stats["debaters"].([]DebaterStats)
	require.Len(t, debaters, 2)
	assert.Equal(t, 3, debaters[0].Turns)
}
