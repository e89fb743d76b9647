package pipeline_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/buildathon/scoring-api/internal/models"
	"github.com/buildathon/scoring-api/internal/types"
)

type assignment struct {
	judge     uuid.UUID
	challenge uuid.UUID
}

// memStore mirrors the transactional rules of models.Store in memory.
type memStore struct {
	submissions map[uuid.UUID]*models.Submission
	challenges  map[uuid.UUID]*models.Challenge
	auto        map[uuid.UUID]models.AutoScore
	llm         map[uuid.UUID]models.LLMScore
	reviews     map[uuid.UUID]models.JudgeReview
	assigned    map[assignment]bool
	names       map[uuid.UUID]string
	saveErr     error
	lockErr     error
	saves       int
	mu          sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{
		submissions: map[uuid.UUID]*models.Submission{},
		challenges:  map[uuid.UUID]*models.Challenge{},
		auto:        map[uuid.UUID]models.AutoScore{},
		llm:         map[uuid.UUID]models.LLMScore{},
		reviews:     map[uuid.UUID]models.JudgeReview{},
		assigned:    map[assignment]bool{},
		names:       map[uuid.UUID]string{},
	}
}

func (s *memStore) addChallenge() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &models.Challenge{Title: "Civic Tech"}
	c.ID = uuid.New()
	s.challenges[c.ID] = c
	return c.ID
}

func (s *memStore) addSubmission(challengeID uuid.UUID, status types.SubmissionStatus, a models.Submission) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := a
	sub.ID = uuid.New()
	sub.ChallengeID = challengeID
	if sub.UserID == uuid.Nil {
		sub.UserID = uuid.New()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	sub.Status = status
	s.submissions[sub.ID] = &sub
	return sub.ID
}

func (s *memStore) setScores(id uuid.UUID, auto int, llm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auto[id] = models.AutoScore{SubmissionID: id, ScoreAuto: auto}
	s.llm[id] = models.LLMScore{SubmissionID: id, ScoreLLM: llm}
}

func (s *memStore) assign(judgeID, challengeID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assigned[assignment{judge: judgeID, challenge: challengeID}] = true
}

func (s *memStore) status(id uuid.UUID) types.SubmissionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submissions[id].Status
}

func (s *memStore) setStatus(id uuid.UUID, status types.SubmissionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[id].Status = status
}

func (s *memStore) review(id uuid.UUID) (models.JudgeReview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	return r, ok
}

func (s *memStore) GetSubmission(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *memStore) GetChallenge(_ context.Context, id uuid.UUID) (*models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) MarkScoring(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.submissions[id]; ok && sub.Status == types.SubmissionStatusQueued {
		sub.Status = types.SubmissionStatusScoring
	}
	return nil
}

func (s *memStore) SaveScores(_ context.Context, auto *models.AutoScore, llm *models.LLMScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	sub, ok := s.submissions[auto.SubmissionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if sub.Status == types.SubmissionStatusFinal {
		return models.ErrSubmissionFinal
	}
	s.auto[auto.SubmissionID] = *auto
	s.llm[llm.SubmissionID] = *llm
	sub.Status = types.SubmissionStatusProvisional
	return nil
}

func (s *memStore) IsAssignedJudge(_ context.Context, judgeID, challengeID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assigned[assignment{judge: judgeID, challenge: challengeID}], nil
}

func (s *memStore) LockReview(
	_ context.Context,
	id uuid.UUID,
	build models.ReviewFunc,
) (*models.JudgeReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lockErr != nil {
		return nil, s.lockErr
	}
	sub, ok := s.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if sub.Status != types.SubmissionStatusProvisional {
		return nil, models.ErrStatusMismatch
	}
	if r, ok := s.reviews[id]; ok && r.Locked {
		return nil, models.ErrAlreadyLocked
	}
	auto, aok := s.auto[id]
	llm, lok := s.llm[id]
	if !aok || !lok {
		return nil, models.ErrScoresMissing
	}

	review, err := build(auto, llm)
	if err != nil {
		return nil, err
	}
	review.SubmissionID = id
	s.reviews[id] = *review
	sub.Status = types.SubmissionStatusFinal
	return review, nil
}

func (s *memStore) LeaderboardRows(_ context.Context, challengeID uuid.UUID) ([]models.LeaderboardRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []models.LeaderboardRow
	for _, sub := range s.submissions {
		if sub.ChallengeID != challengeID {
			continue
		}
		if sub.Status != types.SubmissionStatusProvisional && sub.Status != types.SubmissionStatusFinal {
			continue
		}

		row := models.LeaderboardRow{
			SubmissionID: sub.ID,
			UserID:       sub.UserID,
			Status:       sub.Status,
			CreatedAt:    sub.CreatedAt,
		}
		if name, ok := s.names[sub.UserID]; ok {
			row.DisplayName = &name
		}
		if a, ok := s.auto[sub.ID]; ok {
			row.ScoreAuto = &a.ScoreAuto
		}
		if l, ok := s.llm[sub.ID]; ok {
			row.ScoreLLM = &l.ScoreLLM
		}
		if r, ok := s.reviews[sub.ID]; ok {
			row.Locked = &r.Locked
			row.FinalScore = models.PtrFromNull(r.FinalScore)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type recorder struct {
	runs  map[string]int
	locks map[string]int
	mu    sync.Mutex
}

func newRecorder() *recorder {
	return &recorder{runs: map[string]int{}, locks: map[string]int{}}
}

func (r *recorder) ScoringRun(result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[result]++
}

func (r *recorder) JudgeLock(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks[result]++
}
