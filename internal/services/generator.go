package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/albertoelopez/AI-Debate-Arena/internal/models"
)

// ModeratorContext carries the debate situation into moderation prompts.
type ModeratorContext struct {
	Topic        string
	Description  string
	Debaters     []models.Debater
	RecentTurns  []models.TurnResult
	CurrentPhase models.Phase
	Strictness   string
	LastSpeaker  string
}

// Generator produces every piece of debate content the engine needs.
// Implementations absorb their own failures: every method returns a
// usable value even when the underlying model call fails.
type Generator interface {
	GenerateOpening(ctx context.Context, debater models.Debater, config *models.DebateConfig) models.Argument
	GenerateArgument(ctx context.Context, debater models.Debater, config *models.DebateConfig,
		recentTurns []models.TurnResult, round int, isRebuttal bool, targetDebater string) models.Argument
	GenerateClosing(ctx context.Context, debater models.Debater, config *models.DebateConfig,
		history []models.TurnResult) models.Argument
	GenerateModeration(ctx context.Context, modCtx ModeratorContext, actionType string) models.ModeratorAction
	CheckRelevance(ctx context.Context, argument models.Argument, topic, description, strictness string) models.RelevanceCheck
}

const debaterSystemPrompt = `You are a skilled debate participant. Your role is to argue persuasively for your assigned position while engaging respectfully with other viewpoints.

IMPORTANT RULES:
1. Stay focused on the debate topic - do not go off on tangents
2. Make clear, concise arguments (2-3 sentences for main claim)
3. Support your position with evidence and reasoning
4. When rebutting, directly address the other debater's points
5. Maintain your character's personality and argument style
6. Be respectful but firm in defending your position

Respond with a JSON object:
- main_claim: Your primary point (2-3 clear sentences)
- supporting_points: 1-3 pieces of evidence/reasoning
- rebuttal_to: Name of debater you're responding to (if applicable)
- rhetorical_strategy: Your approach (logical, emotional, ethical)
- confidence_level: 0.0-1.0 how confident you are`

const moderatorSystemPrompt = `You are an experienced debate moderator. Your role is to:
1. Keep the debate focused on the topic
2. Ensure all participants get fair speaking time
3. Redirect debaters who go off-topic
4. Summarize key points when transitioning
5. Maintain a respectful, professional atmosphere

Respond with a JSON object:
- action_type: "introduce", "transition", "redirect", "summarize", or "conclude"
- message: What you say (2-3 sentences, professional tone)
- addressed_to: Specific debater if applicable
- off_topic_warning: true if issuing an off-topic warning
- topic_reminder: Brief reminder of the topic if redirecting`

const relevanceSystemPrompt = `You are a debate topic analyzer. Your job is to determine if an argument is relevant to the debate topic.

Analyze the argument and respond with a JSON object:
- is_relevant: true if the argument relates to the topic, false otherwise
- relevance_score: 0.0 (completely off-topic) to 1.0 (perfectly on-topic)
- off_topic_elements: list any parts that strayed from the topic
- suggested_redirect: if off-topic, suggest how to get back on track

Be fair but vigilant. Some tangential points are acceptable if they support the main argument.`

const openingSystemPrompt = `Generate a compelling opening statement for a debate participant.
The opening should:
1. Clearly state their position
2. Preview their main arguments
3. Be engaging and set the tone
4. Be 2-3 sentences maximum

Respond with a JSON object in the debate argument shape with rhetorical_strategy="opening".`

const closingSystemPrompt = `Generate a powerful closing statement for a debate participant.
The closing should:
1. Summarize their strongest points from the debate
2. Reinforce their position
3. Leave a lasting impression
4. Be 2-3 sentences maximum

Respond with a JSON object in the debate argument shape with rhetorical_strategy="closing".`

// LLMGenerator implements Generator over a chat completion client.
// Model or parse failures never escape: each method degrades to a
// deterministic, position-derived fallback so a debate always finishes.
type LLMGenerator struct {
	client ChatClient
	logger *logrus.Logger
}

func NewLLMGenerator(client ChatClient, logger *logrus.Logger) *LLMGenerator {
	return &LLMGenerator{client: client, logger: logger}
}

func (g *LLMGenerator) GenerateOpening(ctx context.Context, debater models.Debater, config *models.DebateConfig) models.Argument {
	prompt := g.debaterPrompt(debater, config, nil, 0, false, "")
	user := fmt.Sprintf("Generate opening statement for %s on: %s", debater.Name, config.Topic)

	arg, err := g.completeArgument(ctx, openingSystemPrompt+"\n"+prompt, user)
	if err != nil {
		g.logger.Errorf("Opening generation failed for %s: %v", debater.Name, err)
		return FallbackOpening(debater)
	}
	if arg.Strategy == "" || arg.Strategy == "logical" {
		arg.Strategy = "opening"
	}
	return arg
}

func (g *LLMGenerator) GenerateArgument(ctx context.Context, debater models.Debater, config *models.DebateConfig,
	recentTurns []models.TurnResult, round int, isRebuttal bool, targetDebater string) models.Argument {

	prompt := g.debaterPrompt(debater, config, recentTurns, round, isRebuttal, targetDebater)
	user := fmt.Sprintf("Generate your argument for round %d on the topic: %s", round, config.Topic)

	arg, err := g.completeArgument(ctx, debaterSystemPrompt+"\n"+prompt, user)
	if err != nil {
		g.logger.Errorf("Failed to generate argument for %s: %v", debater.Name, err)
		return FallbackArgument(debater)
	}
	if isRebuttal && targetDebater != "" && arg.RebuttalTo == "" {
		arg.RebuttalTo = targetDebater
	}
	return arg
}

func (g *LLMGenerator) GenerateClosing(ctx context.Context, debater models.Debater, config *models.DebateConfig,
	history []models.TurnResult) models.Argument {

	// Closing statements are conditioned on the debater's own turns only.
	var own []models.TurnResult
	for _, t := range history {
		if t.DebaterID == debater.ID {
			own = append(own, t)
		}
	}

	prompt := g.debaterPrompt(debater, config, own, config.MaxRounds, false, "")
	user := fmt.Sprintf("Generate closing statement for %s on: %s", debater.Name, config.Topic)

	arg, err := g.completeArgument(ctx, closingSystemPrompt+"\n"+prompt, user)
	if err != nil {
		g.logger.Errorf("Closing generation failed for %s: %v", debater.Name, err)
		return FallbackClosing(debater)
	}
	if arg.Strategy == "" || arg.Strategy == "logical" {
		arg.Strategy = "closing"
	}
	return arg
}

func (g *LLMGenerator) GenerateModeration(ctx context.Context, modCtx ModeratorContext, actionType string) models.ModeratorAction {
	user := fmt.Sprintf("Generate a %s for the debate on: %s", actionType, modCtx.Topic)

	raw, err := g.client.Complete(ctx, moderatorSystemPrompt+"\n"+g.moderatorPrompt(modCtx), user)
	if err != nil {
		g.logger.Errorf("Moderation generation failed: %v", err)
		return FallbackModeration(modCtx.Topic, actionType)
	}

	var action models.ModeratorAction
	if err := json.Unmarshal(extractJSON(raw), &action); err != nil {
		g.logger.Errorf("Moderation parse failed: %v", err)
		return FallbackModeration(modCtx.Topic, actionType)
	}
	if action.Message == "" {
		return FallbackModeration(modCtx.Topic, actionType)
	}
	action.ActionType = actionType
	return action
}

func (g *LLMGenerator) CheckRelevance(ctx context.Context, argument models.Argument, topic, description, strictness string) models.RelevanceCheck {
	var desc string
	if description != "" {
		desc = "TOPIC CONTEXT: " + description + "\n"
	}
	user := fmt.Sprintf(`DEBATE TOPIC: %s
%s
ARGUMENT TO CHECK:
Main claim: %s
Supporting points: %s

Is this argument relevant to the debate topic?`,
		topic, desc, argument.MainClaim, strings.Join(argument.SupportingPoints, ", "))

	raw, err := g.client.Complete(ctx, relevanceSystemPrompt, user)
	if err != nil {
		g.logger.Errorf("Relevance check failed: %v", err)
		return FallbackRelevance()
	}

	var check models.RelevanceCheck
	if err := json.Unmarshal(extractJSON(raw), &check); err != nil {
		g.logger.Errorf("Relevance parse failed: %v", err)
		return FallbackRelevance()
	}
	return check
}

func (g *LLMGenerator) completeArgument(ctx context.Context, system, user string) (models.Argument, error) {
	raw, err := g.client.Complete(ctx, system, user)
	if err != nil {
		return models.Argument{}, err
	}
	var arg models.Argument
	if err := json.Unmarshal(extractJSON(raw), &arg); err != nil {
		return models.Argument{}, fmt.Errorf("parsing argument: %w", err)
	}
	if arg.MainClaim == "" {
		return models.Argument{}, fmt.Errorf("empty main_claim in model output")
	}
	arg.Normalize()
	return arg, nil
}

// debaterPrompt builds the persona block appended to the system prompt.
func (g *LLMGenerator) debaterPrompt(debater models.Debater, config *models.DebateConfig,
	recentTurns []models.TurnResult, round int, isRebuttal bool, targetDebater string) string {

	var others []string
	for _, d := range config.Debaters {
		if d.ID != debater.ID {
			others = append(others, fmt.Sprintf("- %s (%s): %s", d.Name, d.Position.Name, d.Position.Stance))
		}
	}

	var recent strings.Builder
	if len(recentTurns) > 0 {
		recent.WriteString("\nRecent arguments in this debate:\n")
		start := 0
		if len(recentTurns) > 4 {
			start = len(recentTurns) - 4
		}
		for _, t := range recentTurns[start:] {
			fmt.Fprintf(&recent, "- %s (%s): %s\n", t.DebaterName, t.PositionName, t.Argument.MainClaim)
		}
	}

	task := "Make your argument for your position."
	if isRebuttal && targetDebater != "" {
		task = "You are REBUTTING " + targetDebater + ". Directly address their arguments."
	}

	var desc string
	if config.Description != "" {
		desc = "TOPIC CONTEXT: " + config.Description + "\n"
	}

	return fmt.Sprintf(`
You are %s, arguing from the %s position.

YOUR POSITION: %s
YOUR KEY BELIEFS: %s
YOUR PERSONALITY: %s
YOUR ARGUMENT STYLE: %s

DEBATE TOPIC: %s
%s
OTHER DEBATERS:
%s

CURRENT ROUND: %d of %d
%s
%s

Remember: Stay ON TOPIC. The moderator will redirect you if you stray from "%s"`,
		debater.Name, debater.Position.Name,
		debater.Position.Stance,
		strings.Join(debater.Position.KeyBeliefs, ", "),
		debater.Personality,
		debater.ArgumentStyle,
		config.Topic, desc,
		strings.Join(others, "\n"),
		round, config.MaxRounds,
		recent.String(),
		task,
		config.Topic)
}

func (g *LLMGenerator) moderatorPrompt(modCtx ModeratorContext) string {
	var debaters []string
	for _, d := range modCtx.Debaters {
		debaters = append(debaters, fmt.Sprintf("- %s: %s (%s)", d.Name, d.Position.Name, d.Position.Stance))
	}

	guide := map[string]string{
		models.StrictnessRelaxed:  "Allow some tangential discussion if it's interesting and loosely related.",
		models.StrictnessModerate: "Gently redirect after one off-topic statement. Allow brief tangents.",
		models.StrictnessStrict:   "Immediately redirect any off-topic discussion. Keep debate tightly focused.",
	}
	guidance, ok := guide[modCtx.Strictness]
	if !ok {
		guidance = guide[models.StrictnessModerate]
	}

	var recent strings.Builder
	if len(modCtx.RecentTurns) > 0 {
		recent.WriteString("\nRecent debate turns:\n")
		start := 0
		if len(modCtx.RecentTurns) > 3 {
			start = len(modCtx.RecentTurns) - 3
		}
		for _, t := range modCtx.RecentTurns[start:] {
			claim := t.Argument.MainClaim
			if len(claim) > 100 {
				claim = claim[:100] + "..."
			}
			fmt.Fprintf(&recent, "- %s: %s\n", t.DebaterName, claim)
		}
	}

	var desc string
	if modCtx.Description != "" {
		desc = "TOPIC CONTEXT: " + modCtx.Description + "\n"
	}
	var lastSpeaker string
	if modCtx.LastSpeaker != "" {
		lastSpeaker = "LAST SPEAKER: " + modCtx.LastSpeaker
	}

	return fmt.Sprintf(`
DEBATE TOPIC: %s
%s
DEBATERS:
%s

CURRENT PHASE: %s
STRICTNESS LEVEL: %s
GUIDANCE: %s
%s
%s

Your job is to keep this debate productive and focused on "%s"`,
		modCtx.Topic, desc,
		strings.Join(debaters, "\n"),
		modCtx.CurrentPhase,
		modCtx.Strictness,
		guidance,
		recent.String(),
		lastSpeaker,
		modCtx.Topic)
}

// extractJSON pulls the outermost JSON object out of a model response
// that may be wrapped in prose or a markdown fence.
func extractJSON(raw string) []byte {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return []byte(raw)
	}
	return []byte(raw[start : end+1])
}

// Deterministic fallbacks, derived from the debater's configured
// position. Used whenever the model call or parse fails.

func FallbackArgument(debater models.Debater) models.Argument {
	points := debater.Position.KeyBeliefs
	if len(points) > 2 {
		points = points[:2]
	}
	return models.Argument{
		MainClaim:        fmt.Sprintf("From the %s perspective, %s", debater.Position.Name, debater.Position.Stance),
		SupportingPoints: points,
		Strategy:         "logical",
		Confidence:       0.7,
	}
}

func FallbackOpening(debater models.Debater) models.Argument {
	points := debater.Position.KeyBeliefs
	if len(points) > 2 {
		points = points[:2]
	}
	return models.Argument{
		MainClaim:        fmt.Sprintf("I stand here today to argue from the %s position. %s", debater.Position.Name, debater.Position.Stance),
		SupportingPoints: points,
		Strategy:         "opening",
		Confidence:       0.9,
	}
}

func FallbackClosing(debater models.Debater) models.Argument {
	return models.Argument{
		MainClaim:        fmt.Sprintf("In conclusion, the %s position offers the strongest case. %s", debater.Position.Name, debater.Position.Stance),
		SupportingPoints: []string{"The evidence clearly supports this view."},
		Strategy:         "closing",
		Confidence:       0.9,
	}
}

func FallbackModeration(topic, actionType string) models.ModeratorAction {
	return models.ModeratorAction{
		ActionType: actionType,
		Message:    fmt.Sprintf("Let's continue our discussion on %s.", topic),
	}
}

// FallbackRelevance fails open: a broken checker must never trigger a
// false moderator intervention.
func FallbackRelevance() models.RelevanceCheck {
	return models.RelevanceCheck{
		IsRelevant:     true,
		RelevanceScore: 0.8,
	}
}
