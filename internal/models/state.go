package models

// Phase is one stage of the fixed debate sequence. Transitions only move
// forward; rebuttals are skipped when the config disables them.
type Phase string

const (
	PhaseNotStarted   Phase = "not_started"
	PhaseIntroduction Phase = "introduction"
	PhaseOpening      Phase = "opening"
	PhaseDebate       Phase = "debate"
	PhaseRebuttals    Phase = "rebuttals"
	PhaseClosing      Phase = "closing"
	PhaseConclusion   Phase = "conclusion"
	PhaseFinished     Phase = "finished"
)

// DebateState is the current state of one debate. Mutated exclusively by
// the engine's sequential run loop; turns are append-only and
// chronological.
type DebateState struct {
	DebateID            string        `json:"debate_id"`
	Config              *DebateConfig `json:"config"`
	CurrentRound        int           `json:"current_round"`
	CurrentSpeakerIndex int           `json:"current_speaker_index"`
	Phase               Phase         `json:"phase"`
	Turns               []TurnResult  `json:"turns"`
	IsActive            bool          `json:"is_active"`
	Winner              string        `json:"winner,omitempty"` // could be determined by votes/scoring
}
