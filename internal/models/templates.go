package models

import "fmt"

// DebateTemplates are the pre-built debates selectable by name.
var DebateTemplates = map[string]DebateConfig{
	"god_existence": {
		Topic:       "Does God exist?",
		Description: "A philosophical debate examining evidence and arguments for and against the existence of a divine being.",
		Debaters: []Debater{
			{
				ID:   "atheist",
				Name: "Dr. Alex Reed",
				Position: DebaterPosition{
					Name:       "Atheist",
					Stance:     "There is no credible evidence for God's existence",
					KeyBeliefs: []string{"Scientific materialism", "Burden of proof on believers", "Natural explanations suffice"},
				},
				Personality:   "rational, direct, scientifically-minded",
				ArgumentStyle: "relies on empirical evidence and logical analysis",
				VoiceID:       0,
				AvatarEmoji:   "🔬",
			},
			{
				ID:   "agnostic",
				Name: "Prof. Jordan Liu",
				Position: DebaterPosition{
					Name:       "Agnostic",
					Stance:     "The existence of God is unknown and perhaps unknowable",
					KeyBeliefs: []string{"Epistemological humility", "Limits of human knowledge", "Both sides have valid points"},
				},
				Personality:   "thoughtful, balanced, philosophically careful",
				ArgumentStyle: "explores nuances and acknowledges uncertainty",
				VoiceID:       1,
				AvatarEmoji:   "🤔",
			},
			{
				ID:   "theist",
				Name: "Rev. Michael Torres",
				Position: DebaterPosition{
					Name:       "Theist",
					Stance:     "God exists and can be known through reason and faith",
					KeyBeliefs: []string{"Cosmological argument", "Moral foundations require God", "Personal religious experience"},
				},
				Personality:   "warm, intellectually engaged, faith-grounded",
				ArgumentStyle: "combines philosophical arguments with appeals to meaning and purpose",
				VoiceID:       2,
				AvatarEmoji:   "⛪",
			},
		},
		MaxRounds:           3,
		TurnTimeSeconds:     60,
		AllowRebuttals:      true,
		ModeratorStrictness: StrictnessModerate,
	},

	"ai_consciousness": {
		Topic:       "Can artificial intelligence ever be truly conscious?",
		Description: "Exploring whether machines can achieve genuine consciousness or merely simulate it.",
		Debaters: []Debater{
			{
				ID:   "functionalist",
				Name: "Dr. Maya Patel",
				Position: DebaterPosition{
					Name:       "Functionalist",
					Stance:     "Consciousness is about function, not substrate - AI can be conscious",
					KeyBeliefs: []string{"Mind as software", "Substrate independence", "Turing test validity"},
				},
				Personality:   "optimistic, technologically progressive",
				ArgumentStyle: "draws on computational theory and thought experiments",
				VoiceID:       0,
				AvatarEmoji:   "🤖",
			},
			{
				ID:   "biological_naturalist",
				Name: "Prof. David Chen",
				Position: DebaterPosition{
					Name:       "Biological Naturalist",
					Stance:     "Consciousness requires biological processes that AI cannot replicate",
					KeyBeliefs: []string{"Chinese Room argument", "Biological necessity", "Qualia are non-computational"},
				},
				Personality:   "skeptical, scientifically rigorous",
				ArgumentStyle: "emphasizes biological and neurological evidence",
				VoiceID:       1,
				AvatarEmoji:   "🧠",
			},
			{
				ID:   "panpsychist",
				Name: "Dr. Elena Vasquez",
				Position: DebaterPosition{
					Name:       "Panpsychist",
					Stance:     "Consciousness is fundamental to reality - AI may have some form of experience",
					KeyBeliefs: []string{"Consciousness is ubiquitous", "Degrees of experience", "Integration theory"},
				},
				Personality:   "philosophical, open-minded, speculative",
				ArgumentStyle: "explores metaphysical possibilities",
				VoiceID:       2,
				AvatarEmoji:   "✨",
			},
		},
		MaxRounds:           3,
		TurnTimeSeconds:     60,
		AllowRebuttals:      true,
		ModeratorStrictness: StrictnessModerate,
	},

	"free_will": {
		Topic:       "Do humans have free will?",
		Description: "Examining whether our choices are truly free or determined by prior causes.",
		Debaters: []Debater{
			{
				ID:   "libertarian",
				Name: "Prof. Sarah Mitchell",
				Position: DebaterPosition{
					Name:       "Libertarian Free Will",
					Stance:     "Humans have genuine free will that is not determined by prior causes",
					KeyBeliefs: []string{"Agent causation", "Moral responsibility requires freedom", "Consciousness enables choice"},
				},
				Personality:   "passionate defender of human agency",
				ArgumentStyle: "appeals to moral intuitions and phenomenal experience",
				VoiceID:       0,
				AvatarEmoji:   "🦅",
			},
			{
				ID:   "determinist",
				Name: "Dr. Marcus Webb",
				Position: DebaterPosition{
					Name:       "Hard Determinist",
					Stance:     "All events, including human choices, are determined by prior causes",
					KeyBeliefs: []string{"Causal closure", "Neuroscience shows decisions are made unconsciously", "Illusion of choice"},
				},
				Personality:   "unflinching, scientifically grounded",
				ArgumentStyle: "cites neuroscience and physics research",
				VoiceID:       1,
				AvatarEmoji:   "⚙️",
			},
			{
				ID:   "compatibilist",
				Name: "Dr. Rachel Kim",
				Position: DebaterPosition{
					Name:       "Compatibilist",
					Stance:     "Free will and determinism are compatible - we are free when acting on our desires",
					KeyBeliefs: []string{"Freedom as acting on reasons", "Moral responsibility preserved", "Practical free will"},
				},
				Personality:   "pragmatic, bridge-building",
				ArgumentStyle: "reconciles opposing views through careful definitions",
				VoiceID:       2,
				AvatarEmoji:   "🌉",
			},
		},
		MaxRounds:           3,
		TurnTimeSeconds:     60,
		AllowRebuttals:      true,
		ModeratorStrictness: StrictnessModerate,
	},
}

// PositionSpec describes one side of a custom debate.
type PositionSpec struct {
	Name          string   `json:"name"`
	Stance        string   `json:"stance"`
	DebaterName   string   `json:"debater_name,omitempty"`
	Personality   string   `json:"personality,omitempty"`
	ArgumentStyle string   `json:"argument_style,omitempty"`
	Avatar        string   `json:"avatar,omitempty"`
	KeyBeliefs    []string `json:"key_beliefs,omitempty"`
}

var customAvatars = []string{"🎓", "📚", "🔬", "💡", "🌟", "🎯"}

// NewCustomConfig builds a debate configuration from a topic and a list
// of positions, cycling through the available voices and avatars.
func NewCustomConfig(topic string, positions []PositionSpec, maxRounds int, strictness string) DebateConfig {
	debaters := make([]Debater, 0, len(positions))
	for i, pos := range positions {
		name := pos.DebaterName
		if name == "" {
			name = fmt.Sprintf("Speaker %d", i+1)
		}
		stance := pos.Stance
		if stance == "" {
			stance = fmt.Sprintf("Argues the %s position", pos.Name)
		}
		personality := pos.Personality
		if personality == "" {
			personality = "articulate and thoughtful"
		}
		style := pos.ArgumentStyle
		if style == "" {
			style = "balanced reasoning"
		}
		avatar := pos.Avatar
		if avatar == "" {
			avatar = customAvatars[i%len(customAvatars)]
		}

		debaters = append(debaters, Debater{
			ID:   fmt.Sprintf("debater_%d", i),
			Name: name,
			Position: DebaterPosition{
				Name:       pos.Name,
				Stance:     stance,
				KeyBeliefs: pos.KeyBeliefs,
			},
			Personality:   personality,
			ArgumentStyle: style,
			VoiceID:       i % 4,
			AvatarEmoji:   avatar,
		})
	}

	cfg := DebateConfig{
		Topic:               topic,
		Debaters:            debaters,
		MaxRounds:           maxRounds,
		AllowRebuttals:      true,
		ModeratorStrictness: strictness,
	}
	cfg.ApplyDefaults()
	return cfg
}
