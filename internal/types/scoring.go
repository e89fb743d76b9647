package types

import "time"

type SubmissionCreate struct {
	ChallengeID string  `json:"challenge_id" validate:"required,uuid"`
	RepoURL     *string `json:"repo_url"     validate:"omitempty,url,max=2048"`
	DeckURL     *string `json:"deck_url"     validate:"omitempty,url,max=2048"`
	DemoURL     *string `json:"demo_url"     validate:"omitempty,url,max=2048"`
	WriteupMD   *string `json:"writeup_md"   validate:"omitempty,max=100000"`
}

type SubmissionCreateResponse struct {
	SubmissionID string           `json:"submission_id"`
	Status       SubmissionStatus `json:"status"`
}

type SubmissionResponse struct {
	CreatedAt    time.Time         `json:"created_at"`
	RepoURL      *string           `json:"repo_url,omitempty"`
	DeckURL      *string           `json:"deck_url,omitempty"`
	DemoURL      *string           `json:"demo_url,omitempty"`
	WriteupMD    *string           `json:"writeup_md,omitempty"`
	Scores       *SubmissionScores `json:"scores,omitempty"`
	Review       *SubmissionReview `json:"review,omitempty"`
	SubmissionID string            `json:"submission_id"`
	ChallengeID  string            `json:"challenge_id"`
	UserID       string            `json:"user_id"`
	Status       SubmissionStatus  `json:"status"`
}

// SubmissionScores is absent until the submission has been scored once.
type SubmissionScores struct {
	Rationale        string  `json:"rationale"`
	Model            string  `json:"model"`
	ScoreAuto        int     `json:"score_auto"`
	ScoreLLM         float64 `json:"score_llm"`
	ProvisionalScore float64 `json:"provisional_score"`
	ProblemFit       float64 `json:"problem_fit"`
	TechDepth        float64 `json:"tech_depth"`
	UXFlow           float64 `json:"ux_flow"`
	Impact           float64 `json:"impact"`
	Attempts         int     `json:"attempts"`
	HasRepo          bool    `json:"has_repo"`
	HasDeck          bool    `json:"has_deck"`
	HasDemo          bool    `json:"has_demo"`
	HasWriteup       bool    `json:"has_writeup"`
	Fallback         bool    `json:"fallback"`
}

type SubmissionReview struct {
	LockedAt   *time.Time `json:"locked_at,omitempty"`
	FinalScore *float64   `json:"final_score,omitempty"`
	JudgeID    string     `json:"judge_id"`
	NotesMD    string     `json:"notes_md"`
	DeltaPct   float64    `json:"delta_pct"`
	Locked     bool       `json:"locked"`
}

type ScoringTrigger struct {
	SubmissionID string `json:"submissionId" validate:"required,uuid"`
}

type ScoringTriggerResponse struct {
	SubmissionID string           `json:"submissionId"`
	Status       SubmissionStatus `json:"status"`
	ScoreAuto    int              `json:"score_auto"`
	ScoreLLM     float64          `json:"score_llm"`
	Fallback     bool             `json:"fallback"`
}

// JudgeLock only checks shape here. The delta range is enforced by the lock gate after
// the submission status has been checked.
type JudgeLock struct {
	DeltaPct     *float64 `json:"delta_pct"    validate:"required"`
	SubmissionID string   `json:"submissionId" validate:"required,uuid"`
	NotesMD      string   `json:"notes_md"     validate:"max=20000"`
}

type JudgeLockResponse struct {
	LockedAt         time.Time        `json:"locked_at"`
	SubmissionID     string           `json:"submission_id"`
	Status           SubmissionStatus `json:"status"`
	ProvisionalScore float64          `json:"provisional_score"`
	DeltaPct         float64          `json:"delta_pct"`
	FinalScore       float64          `json:"final_score"`
}

type LeaderboardQuery struct {
	ChallengeID string `query:"challenge_id" json:"challenge_id" validate:"required,uuid"`
	Limit       int    `query:"limit"        json:"limit"        validate:"gte=0,lte=500"`
}

type LeaderboardEntry struct {
	CreatedAt    time.Time        `json:"created_at"`
	SubmissionID string           `json:"submission_id"`
	UserID       string           `json:"user_id"`
	DisplayName  string           `json:"display_name"`
	Status       SubmissionStatus `json:"status"`
	Rank         int              `json:"rank"`
	ScoreAuto    int              `json:"score_auto"`
	ScoreLLM     float64          `json:"score_llm"`
	ScoreDisplay float64          `json:"score_display"`
}

type Message struct {
	Message string `json:"message"`
}

type PingResponse struct {
	Status      string      `json:"status"`
	PrincipalID string      `json:"principal_id"`
	DisplayName string      `json:"display_name"`
	Permissions Permissions `json:"permissions"`
}

type Permissions struct {
	Builder bool `json:"builder"`
	Judge   bool `json:"judge"`
	Admin   bool `json:"admin"`
}
