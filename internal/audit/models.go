package audit

import (
	"github.com/buildathon/scoring-api/internal/types"
)

var schemaVersion = "0.1.0"
var logContext = "audit"

type Disposition string

const (
	DispositionNeutral Disposition = "neutral"
	DispositionGood    Disposition = "good"
	DispositionBad     Disposition = "bad"
)

type EventType string

const (
	EvtSubmissionCreated EventType = "submission_created"
	EvtSubmissionScored  EventType = "submission_scored"
	EvtScoringFailed     EventType = "scoring_failed"
	EvtSubmissionLocked  EventType = "submission_locked"
)

type Message struct {
	UserID        *string     `json:"user_id"`
	LogContext    string      `json:"log_context"   validate:"required"`
	SchemaVersion string      `json:"version"       validate:"required"`
	SubmissionID  string      `json:"submission_id" validate:"required"`
	ChallengeID   string      `json:"challenge_id"  validate:"required"`
	Disposition   Disposition `json:"disposition"   validate:"required"`
	Type          EventType   `json:"event_type"    validate:"required"`

	// unix milliseconds
	Timestamp int64 `json:"timestamp" validate:"required"`
}

type SubmissionCreatedEvent struct {
	Status     types.SubmissionStatus `json:"status"      validate:"required"`
	HasRepo    bool                   `json:"has_repo"`
	HasDeck    bool                   `json:"has_deck"`
	HasDemo    bool                   `json:"has_demo"`
	HasWriteup bool                   `json:"has_writeup"`
}

type SubmissionCreated struct {
	Event SubmissionCreatedEvent `json:"event" validate:"required"`
	Message
}

type SubmissionScoredEvent struct {
	Status    types.SubmissionStatus `json:"status"     validate:"required"`
	Model     string                 `json:"model"`
	ScoreAuto int                    `json:"score_auto"`
	ScoreLLM  float64                `json:"score_llm"`
	Attempts  int                    `json:"attempts"`
	Fallback  bool                   `json:"fallback"`
}

type SubmissionScored struct {
	Event SubmissionScoredEvent `json:"event" validate:"required"`
	Message
}

type ScoringFailedEvent struct {
	Error string `json:"error" validate:"required"`
}

type ScoringFailed struct {
	Event ScoringFailedEvent `json:"event" validate:"required"`
	Message
}

type SubmissionLockedEvent struct {
	JudgeID          string  `json:"judge_id"          validate:"required"`
	ProvisionalScore float64 `json:"provisional_score"`
	DeltaPct         float64 `json:"delta_pct"`
	FinalScore       float64 `json:"final_score"`
}

type SubmissionLocked struct {
	Event SubmissionLockedEvent `json:"event" validate:"required"`
	Message
}
