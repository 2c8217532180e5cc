package models

import (
	"strings"
	"time"
)

// Argument is the structured output of a debater's turn.
type Argument struct {
	MainClaim        string   `json:"main_claim"`
	SupportingPoints []string `json:"supporting_points,omitempty"` // up to 3
	RebuttalTo       string   `json:"rebuttal_to,omitempty"`       // name of the debater being answered
	Strategy         string   `json:"rhetorical_strategy"`         // logical, emotional, ethical, ...
	Confidence       float64  `json:"confidence_level"`            // 0.0-1.0, affects tone
}

// Normalize clamps the argument to its documented bounds.
func (a *Argument) Normalize() {
	if len(a.SupportingPoints) > 3 {
		a.SupportingPoints = a.SupportingPoints[:3]
	}
	if a.Confidence < 0 {
		a.Confidence = 0
	}
	if a.Confidence > 1 {
		a.Confidence = 1
	}
	if a.Strategy == "" {
		a.Strategy = "logical"
	}
}

// SpeechText converts the argument to natural speech text: the main
// claim followed by at most two supporting points.
func (a *Argument) SpeechText() string {
	parts := []string{a.MainClaim}
	n := len(a.SupportingPoints)
	if n > 2 {
		n = 2
	}
	parts = append(parts, a.SupportingPoints[:n]...)
	return strings.Join(parts, " ")
}

// Moderator action types.
const (
	ActionIntroduce  = "introduce"
	ActionTransition = "transition"
	ActionRedirect   = "redirect"
	ActionSummarize  = "summarize"
	ActionConclude   = "conclude"
)

// ModeratorAction is a non-debater message controlling pacing or focus.
type ModeratorAction struct {
	ActionType      string `json:"action_type"`
	Message         string `json:"message"`
	AddressedTo     string `json:"addressed_to,omitempty"`
	OffTopicWarning bool   `json:"off_topic_warning"`
	TopicReminder   string `json:"topic_reminder,omitempty"`
}

// RelevanceCheck is the result of scoring an argument against the topic.
type RelevanceCheck struct {
	IsRelevant        bool     `json:"is_relevant"`
	RelevanceScore    float64  `json:"relevance_score"` // 0.0-1.0
	OffTopicElements  []string `json:"off_topic_elements,omitempty"`
	SuggestedRedirect string   `json:"suggested_redirect,omitempty"`
}

// TurnResult is one recorded contribution. Append-only history entry,
// never mutated after creation.
type TurnResult struct {
	DebaterID      string          `json:"debater_id"`
	DebaterName    string          `json:"debater_name"`
	PositionName   string          `json:"position_name"`
	Argument       Argument        `json:"argument"`
	Timestamp      time.Time       `json:"timestamp"`
	RoundNumber    int             `json:"round_number"`
	TurnInRound    int             `json:"turn_in_round"`
	AudioGenerated bool            `json:"audio_generated"`
	RelevanceCheck *RelevanceCheck `json:"relevance_check,omitempty"`
}
