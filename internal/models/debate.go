package models

import "fmt"

// DebaterPosition is a debater's position on the topic.
type DebaterPosition struct {
	Name       string   `json:"name"`   // e.g. "Atheist", "Pro", "Skeptic"
	Stance     string   `json:"stance"` // brief description of the stance
	KeyBeliefs []string `json:"key_beliefs,omitempty"`
}

// Debater is one configured debate participant. Immutable for the
// lifetime of the debate.
type Debater struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"` // display name, e.g. "Dr. Sarah Chen"
	Position      DebaterPosition `json:"position"`
	Personality   string          `json:"personality"`
	ArgumentStyle string          `json:"argument_style"`
	VoiceID       int             `json:"voice_id"`     // TTS voice, 0-3
	AvatarEmoji   string          `json:"avatar_emoji"` // emoji avatar for the UI
}

// Moderator strictness levels.
const (
	StrictnessRelaxed  = "relaxed"
	StrictnessModerate = "moderate"
	StrictnessStrict   = "strict"
)

// DebateConfig configures a multi-party debate. Created once at setup,
// never mutated afterwards.
type DebateConfig struct {
	Topic               string    `json:"topic"`
	Description         string    `json:"description,omitempty"`
	Debaters            []Debater `json:"debaters"` // 2-6 participants
	MaxRounds           int       `json:"max_rounds"`
	TurnTimeSeconds     int       `json:"turn_time_seconds"`
	AllowRebuttals      bool      `json:"allow_rebuttals"`
	ModeratorStrictness string    `json:"moderator_strictness"`
}

// ApplyDefaults fills zero values with the defaults the original
// templates assume.
func (c *DebateConfig) ApplyDefaults() {
	if c.MaxRounds == 0 {
		c.MaxRounds = 3
	}
	if c.TurnTimeSeconds == 0 {
		c.TurnTimeSeconds = 60
	}
	if c.ModeratorStrictness == "" {
		c.ModeratorStrictness = StrictnessModerate
	}
	for i := range c.Debaters {
		d := &c.Debaters[i]
		if d.Personality == "" {
			d.Personality = "analytical and articulate"
		}
		if d.ArgumentStyle == "" {
			d.ArgumentStyle = "uses evidence and logical reasoning"
		}
		if d.AvatarEmoji == "" {
			d.AvatarEmoji = "🎓"
		}
	}
}

// Validate checks the configuration bounds before a debate is created.
func (c *DebateConfig) Validate() error {
	if c.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if len(c.Debaters) < 2 || len(c.Debaters) > 6 {
		return fmt.Errorf("debate requires 2-6 debaters, got %d", len(c.Debaters))
	}
	seen := make(map[string]bool, len(c.Debaters))
	for _, d := range c.Debaters {
		if d.ID == "" {
			return fmt.Errorf("debater %q has no id", d.Name)
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate debater id %q", d.ID)
		}
		seen[d.ID] = true
		if d.VoiceID < 0 || d.VoiceID > 3 {
			return fmt.Errorf("debater %q has invalid voice_id %d (must be 0-3)", d.ID, d.VoiceID)
		}
	}
	if c.MaxRounds < 1 || c.MaxRounds > 10 {
		return fmt.Errorf("max_rounds must be 1-10, got %d", c.MaxRounds)
	}
	if c.TurnTimeSeconds < 15 || c.TurnTimeSeconds > 180 {
		return fmt.Errorf("turn_time_seconds must be 15-180, got %d", c.TurnTimeSeconds)
	}
	switch c.ModeratorStrictness {
	case StrictnessRelaxed, StrictnessModerate, StrictnessStrict:
	default:
		return fmt.Errorf("unknown moderator_strictness %q", c.ModeratorStrictness)
	}
	return nil
}
