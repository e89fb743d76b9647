package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/buildathon/scoring-api/internal/scoring"
	"github.com/buildathon/scoring-api/internal/types"
)

type Submission struct {
	Status types.SubmissionStatus `gorm:"default:QUEUED"`
	Model
	RepoURL     datatypes.Null[string]
	DeckURL     datatypes.Null[string]
	DemoURL     datatypes.Null[string]
	WriteupMD   datatypes.Null[string]
	ChallengeID uuid.UUID
	UserID      uuid.UUID
}

func (Submission) TableName() string {
	return "submission"
}

func (s Submission) GetID() uuid.UUID {
	return s.ID
}

func (s Submission) Artifacts() scoring.Artifacts {
	return scoring.Artifacts{
		RepoURL:   ValueOrZero(s.RepoURL),
		DeckURL:   ValueOrZero(s.DeckURL),
		DemoURL:   ValueOrZero(s.DemoURL),
		WriteupMD: ValueOrZero(s.WriteupMD),
	}
}

// AutoScore is the persisted checklist result, one row per submission.
type AutoScore struct {
	Timestamps
	ScoreAuto    int
	HasRepo      bool
	HasDeck      bool
	HasDemo      bool
	HasWriteup   bool
	SubmissionID uuid.UUID `gorm:"primaryKey"`
}

func (AutoScore) TableName() string {
	return "auto_score"
}

func NewAutoScore(submissionID uuid.UUID, res scoring.AutoResult) *AutoScore {
	return &AutoScore{
		SubmissionID: submissionID,
		ScoreAuto:    res.Score,
		HasRepo:      res.Checks.Repo,
		HasDeck:      res.Checks.Deck,
		HasDemo:      res.Checks.Demo,
		HasWriteup:   res.Checks.Writeup,
	}
}

// LLMScore is the persisted rubric result, one row per submission.
type LLMScore struct {
	Timestamps
	Rationale    string
	Model        string
	ScoreLLM     float64 `gorm:"column:score_llm"`
	ProblemFit   float64
	TechDepth    float64
	UXFlow       float64 `gorm:"column:ux_flow"`
	Impact       float64
	Attempts     int
	Fallback     bool
	SubmissionID uuid.UUID `gorm:"primaryKey"`
}

func (LLMScore) TableName() string {
	return "llm_score"
}

func NewLLMScore(submissionID uuid.UUID, res scoring.LLMResult) *LLMScore {
	return &LLMScore{
		SubmissionID: submissionID,
		ScoreLLM:     res.Score,
		ProblemFit:   res.ProblemFit,
		TechDepth:    res.TechDepth,
		UXFlow:       res.UXFlow,
		Impact:       res.Impact,
		Rationale:    res.Rationale,
		Model:        res.Model,
		Fallback:     res.Fallback,
		Attempts:     res.Attempts,
	}
}

// JudgeReview is a judge's adjustment. Once Locked it is never rewritten.
type JudgeReview struct {
	Timestamps
	LockedAt     datatypes.Null[time.Time]
	FinalScore   datatypes.Null[float64]
	Notes        string
	DeltaPct     float64
	Locked       bool
	SubmissionID uuid.UUID `gorm:"primaryKey"`
	JudgeID      uuid.UUID
}

func (JudgeReview) TableName() string {
	return "judge_review"
}

type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}
