package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/albertoelopez/AI-Debate-Arena/internal/models"
)

// errStopped aborts the phase sequence at a between-turn checkpoint when
// the debate is stopped or its context cancelled. Not a debate error.
var errStopped = errors.New("debate stopped")

// EngineOptions tune the pacing and moderation embellishments. The
// redirect thresholds and follow-up probability are product knobs, not
// fixed behavior, so they live here rather than in the engine.
type EngineOptions struct {
	SpeakerPause       time.Duration      // pause after each debater turn
	ModeratorPause     time.Duration      // pause after the moderator speaks
	RedirectThresholds map[string]float64 // relevance score floor per strictness level
	FollowUpChance     float64            // probability of a moderator follow-up after a main-phase turn
	RecentTurnWindow   int                // how many prior turns the generator sees
}

// DefaultEngineOptions returns the pacing the arena runs with.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		SpeakerPause:   2 * time.Second,
		ModeratorPause: 1 * time.Second,
		RedirectThresholds: map[string]float64{
			models.StrictnessRelaxed:  0.3,
			models.StrictnessModerate: 0.5,
			models.StrictnessStrict:   0.7,
		},
		FollowUpChance:   0.3,
		RecentTurnWindow: 10,
	}
}

func (o *EngineOptions) applyDefaults() {
	def := DefaultEngineOptions()
	if o.SpeakerPause == 0 {
		o.SpeakerPause = def.SpeakerPause
	}
	if o.ModeratorPause == 0 {
		o.ModeratorPause = def.ModeratorPause
	}
	if o.RedirectThresholds == nil {
		o.RedirectThresholds = def.RedirectThresholds
	}
	if o.RecentTurnWindow == 0 {
		o.RecentTurnWindow = def.RecentTurnWindow
	}
}

// DebateEngine drives one debate from creation to completion through the
// fixed phase sequence. All state mutation happens on the single Run
// goroutine; the mutex only guards reads from HTTP handlers.
type DebateEngine struct {
	id        string
	config    *models.DebateConfig
	gen       Generator
	tts       SpeechSynthesizer // nil means no audio
	listeners *ListenerRegistry
	logger    *logrus.Logger
	opts      EngineOptions

	mu    sync.Mutex
	state models.DebateState
}

// NewDebateEngine builds an engine for one debate. The synthesizer may
// be nil; the generator and logger may not.
func NewDebateEngine(config *models.DebateConfig, gen Generator, tts SpeechSynthesizer,
	logger *logrus.Logger, opts EngineOptions) (*DebateEngine, error) {

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	id := "debate_" + uuid.New().String()[:8]
	return &DebateEngine{
		id:        id,
		config:    config,
		gen:       gen,
		tts:       tts,
		listeners: NewListenerRegistry(logger),
		logger:    logger,
		opts:      opts,
		state: models.DebateState{
			DebateID: id,
			Config:   config,
			Phase:    models.PhaseNotStarted,
		},
	}, nil
}

// NewDebateEngineFromTemplate builds an engine from a pre-built template.
func NewDebateEngineFromTemplate(name string, gen Generator, tts SpeechSynthesizer,
	logger *logrus.Logger, opts EngineOptions) (*DebateEngine, error) {

	tmpl, ok := models.DebateTemplates[name]
	if !ok {
		names := make([]string, 0, len(models.DebateTemplates))
		for n := range models.DebateTemplates {
			names = append(names, n)
		}
		return nil, fmt.Errorf("unknown template %q, available: %s", name, strings.Join(names, ", "))
	}
	cfg := tmpl // copy, templates stay pristine
	return NewDebateEngine(&cfg, gen, tts, logger, opts)
}

func (e *DebateEngine) ID() string                   { return e.id }
func (e *DebateEngine) Config() *models.DebateConfig { return e.config }
func (e *DebateEngine) Listeners() *ListenerRegistry { return e.listeners }

// AddListener subscribes an event listener, returning its handle.
func (e *DebateEngine) AddListener(l Listener) int { return e.listeners.Subscribe(l) }

// RemoveListener drops a listener; it receives no further events.
func (e *DebateEngine) RemoveListener(id int) { e.listeners.Unsubscribe(id) }

func (e *DebateEngine) Phase() models.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Phase
}

func (e *DebateEngine) CurrentRound() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.CurrentRound
}

func (e *DebateEngine) IsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.IsActive
}

func (e *DebateEngine) TurnCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.state.Turns)
}

// Turns returns a copy of the recorded history.
func (e *DebateEngine) Turns() []models.TurnResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.TurnResult, len(e.state.Turns))
	copy(out, e.state.Turns)
	return out
}

// Stop marks the debate inactive. The run loop notices at the next
// between-turn checkpoint; the current turn is never interrupted.
func (e *DebateEngine) Stop() {
	e.mu.Lock()
	e.state.IsActive = false
	e.mu.Unlock()
}

// Run executes the complete debate. It always terminates with a
// debate_ended event carrying whatever turns were produced, even when
// the phase sequence fails part-way.
func (e *DebateEngine) Run(ctx context.Context) {
	e.mu.Lock()
	if e.state.IsActive {
		e.mu.Unlock()
		return
	}
	e.state.IsActive = true
	e.mu.Unlock()

	var runErr error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				runErr = fmt.Errorf("debate panicked: %v", rec)
			}
		}()
		runErr = e.runPhases(ctx)
	}()

	if runErr != nil && !errors.Is(runErr, errStopped) {
		e.logger.Errorf("Debate error: %v", runErr)
		e.notify(models.EventDebateError, map[string]interface{}{"error": runErr.Error()})
	}

	e.mu.Lock()
	e.state.IsActive = false
	e.state.Phase = models.PhaseFinished
	totalTurns := len(e.state.Turns)
	rounds := e.state.CurrentRound
	e.mu.Unlock()

	e.notify(models.EventDebateEnded, map[string]interface{}{
		"total_turns":      totalTurns,
		"rounds_completed": rounds,
	})
}

func (e *DebateEngine) runPhases(ctx context.Context) error {
	if err := e.introductionPhase(ctx); err != nil {
		return err
	}
	if err := e.openingStatementsPhase(ctx); err != nil {
		return err
	}
	if err := e.mainDebatePhase(ctx); err != nil {
		return err
	}
	if e.config.AllowRebuttals {
		if err := e.rebuttalPhase(ctx); err != nil {
			return err
		}
	}
	if err := e.closingStatementsPhase(ctx); err != nil {
		return err
	}
	return e.conclusionPhase(ctx)
}

// checkpoint is the cooperative cancellation point between turns.
func (e *DebateEngine) checkpoint(ctx context.Context) error {
	if !e.IsActive() {
		return errStopped
	}
	if err := ctx.Err(); err != nil {
		return errStopped
	}
	return nil
}

func (e *DebateEngine) setPhase(phase models.Phase) {
	e.mu.Lock()
	e.state.Phase = phase
	e.mu.Unlock()
	e.notify(models.EventPhaseChange, map[string]interface{}{"phase": string(phase)})
}

func (e *DebateEngine) notify(eventType string, payload map[string]interface{}) {
	e.listeners.Notify(models.NewEvent(eventType, e.id, payload))
}

func (e *DebateEngine) pause(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// introductionPhase has the moderator welcome everyone. The welcome is a
// broadcast only, never a history turn.
func (e *DebateEngine) introductionPhase(ctx context.Context) error {
	e.setPhase(models.PhaseIntroduction)

	intros := make([]string, 0, len(e.config.Debaters))
	for _, d := range e.config.Debaters {
		intros = append(intros, fmt.Sprintf("%s representing the %s position", d.Name, d.Position.Name))
	}

	action := e.gen.GenerateModeration(ctx, e.moderatorContext(nil, ""), models.ActionIntroduce)
	// The introduction always names every debater, whatever the model said.
	action.Message = fmt.Sprintf(
		"Welcome to today's debate on: %s. We have %d distinguished speakers: %s. Let's begin with opening statements.",
		e.config.Topic, len(e.config.Debaters), strings.Join(intros, ", "))

	e.moderatorSpeak(ctx, action)
	return e.checkpoint(ctx)
}

func (e *DebateEngine) openingStatementsPhase(ctx context.Context) error {
	e.setPhase(models.PhaseOpening)

	for i, debater := range e.config.Debaters {
		if err := e.checkpoint(ctx); err != nil {
			return err
		}
		e.announceSpeaker(debater, map[string]interface{}{"phase": "opening"})

		argument := e.gen.GenerateOpening(ctx, debater, e.config)
		e.recordTurn(ctx, debater, argument, 0, i, nil)
		e.pause(ctx, e.opts.SpeakerPause)
	}
	return nil
}

func (e *DebateEngine) mainDebatePhase(ctx context.Context) error {
	e.setPhase(models.PhaseDebate)

	for round := 1; round <= e.config.MaxRounds; round++ {
		e.mu.Lock()
		e.state.CurrentRound = round
		e.mu.Unlock()

		e.notify(models.EventRoundStart, map[string]interface{}{
			"round":        round,
			"total_rounds": e.config.MaxRounds,
		})

		for i, debater := range e.config.Debaters {
			if err := e.checkpoint(ctx); err != nil {
				return err
			}

			e.mu.Lock()
			e.state.CurrentSpeakerIndex = i
			e.mu.Unlock()

			e.announceSpeaker(debater, map[string]interface{}{"round": round})

			// From round 2 onward arguments address the previous speaker.
			argument := e.gen.GenerateArgument(ctx, debater, e.config,
				e.recentTurns(), round, round > 1, e.previousSpeakerName(i))

			relevance := e.gen.CheckRelevance(ctx, argument,
				e.config.Topic, e.config.Description, e.config.ModeratorStrictness)

			e.recordTurn(ctx, debater, argument, round, i, &relevance)

			if e.offTopic(relevance) {
				e.redirectSpeaker(ctx, debater)
			} else if e.opts.FollowUpChance > 0 && rand.Float64() < e.opts.FollowUpChance {
				e.askFollowUp(ctx, debater)
			}

			e.pause(ctx, e.opts.SpeakerPause)
		}

		if round < e.config.MaxRounds {
			if err := e.checkpoint(ctx); err != nil {
				return err
			}
			e.roundTransition(ctx, round)
		}
	}
	return nil
}

func (e *DebateEngine) offTopic(relevance models.RelevanceCheck) bool {
	threshold, ok := e.opts.RedirectThresholds[e.config.ModeratorStrictness]
	if !ok {
		threshold = e.opts.RedirectThresholds[models.StrictnessModerate]
	}
	return !relevance.IsRelevant || relevance.RelevanceScore < threshold
}

func (e *DebateEngine) redirectSpeaker(ctx context.Context, debater models.Debater) {
	redirect := e.gen.GenerateModeration(ctx,
		e.moderatorContext(e.lastTurns(3), debater.Name), models.ActionRedirect)
	redirect.AddressedTo = debater.Name
	redirect.OffTopicWarning = true
	redirect.TopicReminder = "Please stay focused on: " + e.config.Topic
	e.moderatorSpeak(ctx, redirect)
}

// askFollowUp occasionally has the moderator press a speaker on their
// point, which keeps long debates from feeling like queued monologues.
func (e *DebateEngine) askFollowUp(ctx context.Context, debater models.Debater) {
	followUp := e.gen.GenerateModeration(ctx,
		e.moderatorContext(e.lastTurns(3), debater.Name), models.ActionSummarize)
	followUp.AddressedTo = debater.Name
	e.moderatorSpeak(ctx, followUp)
}

func (e *DebateEngine) roundTransition(ctx context.Context, completedRound int) {
	transition := e.gen.GenerateModeration(ctx,
		e.moderatorContext(e.lastTurns(len(e.config.Debaters)), ""), models.ActionTransition)
	transition.Message = fmt.Sprintf(
		"Excellent points from all speakers. We now move to round %d of %d. Please continue your arguments on %s.",
		completedRound+1, e.config.MaxRounds, e.config.Topic)
	e.moderatorSpeak(ctx, transition)
}

// rebuttalPhase runs in reverse speaking order: the last main-phase
// speaker rebuts first, and each speaker targets whoever preceded them
// in the original order. The first original speaker has no target.
func (e *DebateEngine) rebuttalPhase(ctx context.Context) error {
	e.setPhase(models.PhaseRebuttals)

	e.moderatorSpeak(ctx, models.ModeratorAction{
		ActionType: models.ActionTransition,
		Message:    "We now enter the rebuttal phase. Each speaker will have a chance to directly address the arguments made by others.",
	})

	n := len(e.config.Debaters)
	for i := 0; i < n; i++ {
		if err := e.checkpoint(ctx); err != nil {
			return err
		}

		debater := e.config.Debaters[n-1-i]
		target := ""
		if targetIdx := n - i - 2; targetIdx >= 0 {
			target = e.config.Debaters[targetIdx].Name
		}

		e.announceSpeaker(debater, map[string]interface{}{"phase": "rebuttal"})

		argument := e.gen.GenerateArgument(ctx, debater, e.config,
			e.recentTurns(), e.config.MaxRounds+1, true, target)
		e.recordTurn(ctx, debater, argument, e.config.MaxRounds+1, i, nil)
		e.pause(ctx, e.opts.SpeakerPause)
	}
	return nil
}

func (e *DebateEngine) closingStatementsPhase(ctx context.Context) error {
	e.setPhase(models.PhaseClosing)

	e.moderatorSpeak(ctx, models.ModeratorAction{
		ActionType: models.ActionTransition,
		Message:    "We now move to closing statements. Each speaker will summarize their position.",
	})

	for i, debater := range e.config.Debaters {
		if err := e.checkpoint(ctx); err != nil {
			return err
		}
		e.announceSpeaker(debater, map[string]interface{}{"phase": "closing"})

		argument := e.gen.GenerateClosing(ctx, debater, e.config, e.Turns())
		e.recordTurn(ctx, debater, argument, e.config.MaxRounds+2, i, nil)
		e.pause(ctx, e.opts.SpeakerPause)
	}
	return nil
}

func (e *DebateEngine) conclusionPhase(ctx context.Context) error {
	e.setPhase(models.PhaseConclusion)

	summaries := make([]string, 0, len(e.config.Debaters))
	for _, d := range e.config.Debaters {
		summaries = append(summaries, fmt.Sprintf("the %s view from %s", d.Position.Name, d.Name))
	}

	e.moderatorSpeak(ctx, models.ModeratorAction{
		ActionType: models.ActionConclude,
		Message: fmt.Sprintf(
			"Thank you to all our speakers for this thought-provoking debate on %s. We've heard compelling arguments from %s. We leave it to our audience to reflect on these perspectives.",
			e.config.Topic, strings.Join(summaries, ", ")),
	})
	return nil
}

func (e *DebateEngine) announceSpeaker(debater models.Debater, extra map[string]interface{}) {
	payload := map[string]interface{}{
		"speaker":  debater.Name,
		"position": debater.Position.Name,
	}
	for k, v := range extra {
		payload[k] = v
	}
	e.notify(models.EventSpeakerChange, payload)
}

// recordTurn synthesizes speech when possible, appends the turn to
// history, and broadcasts the display projection. Audio travels on its
// own audio_stream event rather than inside turn_completed.
func (e *DebateEngine) recordTurn(ctx context.Context, debater models.Debater,
	argument models.Argument, round, turnInRound int, relevance *models.RelevanceCheck) {

	audio := e.synthesize(ctx, argument.SpeechText(), debater.VoiceID)

	turn := models.TurnResult{
		DebaterID:      debater.ID,
		DebaterName:    debater.Name,
		PositionName:   debater.Position.Name,
		Argument:       argument,
		Timestamp:      time.Now(),
		RoundNumber:    round,
		TurnInRound:    turnInRound,
		AudioGenerated: audio != nil,
		RelevanceCheck: relevance,
	}

	e.mu.Lock()
	e.state.Turns = append(e.state.Turns, turn)
	phase := e.state.Phase
	e.mu.Unlock()

	e.notify(models.EventTurnCompleted, map[string]interface{}{
		"turn": map[string]interface{}{
			"debater_id":        turn.DebaterID,
			"debater_name":      turn.DebaterName,
			"position_name":     turn.PositionName,
			"statement":         argument.MainClaim,
			"supporting_points": argument.SupportingPoints,
			"timestamp":         turn.Timestamp.UnixMilli(),
			"round":             round,
			"phase":             string(phase),
			"has_audio":         turn.AudioGenerated,
			"avatar":            debater.AvatarEmoji,
		},
	})

	if audio != nil {
		e.notify(models.EventAudioStream, map[string]interface{}{
			"audio_data": base64.StdEncoding.EncodeToString(audio),
			"metadata": map[string]interface{}{
				"debater_id": debater.ID,
				"voice_id":   debater.VoiceID,
			},
		})
	}
}

// moderatorSpeak broadcasts a moderator action with the moderator voice.
func (e *DebateEngine) moderatorSpeak(ctx context.Context, action models.ModeratorAction) {
	audio := e.synthesize(ctx, action.Message, 3)

	e.notify(models.EventModeratorAction, map[string]interface{}{
		"action_type":       action.ActionType,
		"message":           action.Message,
		"addressed_to":      action.AddressedTo,
		"off_topic_warning": action.OffTopicWarning,
		"has_audio":         audio != nil,
	})

	if audio != nil {
		e.notify(models.EventAudioStream, map[string]interface{}{
			"audio_data": base64.StdEncoding.EncodeToString(audio),
			"metadata": map[string]interface{}{
				"debater_id": "moderator",
				"voice_id":   3,
			},
		})
	}

	e.pause(ctx, e.opts.ModeratorPause)
}

func (e *DebateEngine) synthesize(ctx context.Context, text string, voiceID int) []byte {
	if e.tts == nil {
		return nil
	}
	audio, err := e.tts.Synthesize(ctx, text, voiceID)
	if err != nil {
		e.logger.Errorf("Speech generation failed: %v", err)
		return nil
	}
	return audio
}

func (e *DebateEngine) recentTurns() []models.TurnResult {
	return e.lastTurns(e.opts.RecentTurnWindow)
}

func (e *DebateEngine) lastTurns(n int) []models.TurnResult {
	turns := e.Turns()
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns
}

func (e *DebateEngine) previousSpeakerName(currentIndex int) string {
	if currentIndex > 0 {
		return e.config.Debaters[currentIndex-1].Name
	}
	if turns := e.Turns(); len(turns) > 0 {
		return turns[len(turns)-1].DebaterName
	}
	return ""
}

func (e *DebateEngine) moderatorContext(recentTurns []models.TurnResult, lastSpeaker string) ModeratorContext {
	return ModeratorContext{
		Topic:        e.config.Topic,
		Description:  e.config.Description,
		Debaters:     e.config.Debaters,
		RecentTurns:  recentTurns,
		CurrentPhase: e.Phase(),
		Strictness:   e.config.ModeratorStrictness,
		LastSpeaker:  lastSpeaker,
	}
}

// Transcript renders the recorded turns as a readable log.
func (e *DebateEngine) Transcript() string {
	var b strings.Builder
	fmt.Fprintf(&b, "DEBATE TRANSCRIPT\nTopic: %s\n%s\n\n", e.config.Topic, strings.Repeat("=", 60))

	for _, turn := range e.Turns() {
		fmt.Fprintf(&b, "[%s] %s (%s):\n", turn.Timestamp.Format("04:05"), turn.DebaterName, turn.PositionName)
		fmt.Fprintf(&b, "  %s\n", turn.Argument.MainClaim)
		for _, point := range turn.Argument.SupportingPoints {
			fmt.Fprintf(&b, "  • %s\n", point)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// DebaterStats is one row of the statistics summary.
type DebaterStats struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Turns    int    `json:"turns"`
}

// Statistics summarizes the debate so far.
func (e *DebateEngine) Statistics() map[string]interface{} {
	turns := e.Turns()
	byDebater := make(map[string]int)
	for _, t := range turns {
		byDebater[t.DebaterID]++
	}

	debaters := make([]DebaterStats, 0, len(e.config.Debaters))
	for _, d := range e.config.Debaters {
		debaters = append(debaters, DebaterStats{
			Name:     d.Name,
			Position: d.Position.Name,
			Turns:    byDebater[d.ID],
		})
	}

	return map[string]interface{}{
		"debate_id":        e.id,
		"topic":            e.config.Topic,
		"num_debaters":     len(e.config.Debaters),
		"debaters":         debaters,
		"total_turns":      len(turns),
		"rounds_completed": e.CurrentRound(),
		"phase":            string(e.Phase()),
	}
}
