package main

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/buildathon/scoring-api/internal/models"
	"github.com/buildathon/scoring-api/internal/types"
)

func lockPayload(id uuid.UUID, delta string) string {
	return fmt.Sprintf(`{"submissionId": %q, "delta_pct": %s, "notes_md": "Strong demo."}`, id, delta)
}

func (s *ServerTestSuite) Test_LockSubmission() {
	ctx := s.T().Context()
	store := models.NewStore(s.tx)

	queued := &models.Submission{ChallengeID: challenge.ID, UserID: builder}
	s.Require().NoError(store.CreateSubmission(ctx, queued))

	other := s.provisional(builder, otherChallenge.ID, 20, 60)

	tests := []struct {
		name         string
		auth         *clientAuth
		payload      func(id uuid.UUID) string
		target       func(id uuid.UUID) uuid.UUID
		expectedCode int
		bodyTester   func(t *testing.T, r *resp)
	}{
		{
			name:         "ValidRaise",
			auth:         as(judge),
			payload:      func(id uuid.UUID) string { return lockPayload(id, "10") },
			expectedCode: http.StatusOK,
			bodyTester: func(t *testing.T, r *resp) {
				assert.Equal(t, "FINAL", r.data()["status"])
				assert.InDelta(t, 40, r.data()["provisional_score"], 1e-9)
				assert.InDelta(t, 10, r.data()["delta_pct"], 1e-9)
				assert.InDelta(t, 44, r.data()["final_score"], 1e-9)
				lockedAt, err := time.Parse(time.RFC3339Nano, r.data()["locked_at"].(string))
				assert.NoError(t, err)
				assert.WithinDuration(t, time.Now(), lockedAt, time.Minute)
			},
		},
		{
			name:         "ValidLower",
			auth:         as(judge),
			payload:      func(id uuid.UUID) string { return lockPayload(id, "-10") },
			expectedCode: http.StatusOK,
			bodyTester: func(t *testing.T, r *resp) {
				assert.InDelta(t, 36, r.data()["final_score"], 1e-9)
			},
		},
		{
			name:         "ValidBound",
			auth:         as(judge),
			payload:      func(id uuid.UUID) string { return lockPayload(id, "20") },
			expectedCode: http.StatusOK,
			bodyTester: func(t *testing.T, r *resp) {
				assert.InDelta(t, 48, r.data()["final_score"], 1e-9)
			},
		},
		{
			name:         "InvalidDeltaOutOfRange",
			auth:         as(judge),
			payload:      func(id uuid.UUID) string { return lockPayload(id, "25") },
			expectedCode: http.StatusBadRequest,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "VALIDATION_ERROR")
			},
		},
		{
			name:         "InvalidDeltaMissing",
			auth:         as(judge),
			payload:      func(id uuid.UUID) string { return fmt.Sprintf(`{"submissionId": %q}`, id) },
			expectedCode: http.StatusBadRequest,
			bodyTester: func(t *testing.T, r *resp) {
				assertFieldError(t, r, "delta_pct")
			},
		},
		{
			name:         "InvalidQueued",
			auth:         as(judge),
			payload:      func(uuid.UUID) string { return lockPayload(queued.ID, "5") },
			expectedCode: http.StatusConflict,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "BAD_REQUEST")
			},
		},
		{
			name:         "InvalidQueuedBeatsBadDelta",
			auth:         as(judge),
			payload:      func(uuid.UUID) string { return lockPayload(queued.ID, "25") },
			expectedCode: http.StatusConflict,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "BAD_REQUEST")
			},
		},
		{
			name:         "InvalidUnassignedJudge",
			auth:         as(judgeUnassigned),
			payload:      func(id uuid.UUID) string { return lockPayload(id, "5") },
			expectedCode: http.StatusForbidden,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "FORBIDDEN")
			},
		},
		{
			name:         "InvalidOtherChallenge",
			auth:         as(judge),
			payload:      func(uuid.UUID) string { return lockPayload(other, "5") },
			expectedCode: http.StatusForbidden,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "FORBIDDEN")
			},
		},
		{
			name:         "InvalidUnknown",
			auth:         as(judge),
			payload:      func(uuid.UUID) string { return lockPayload(uuid.New(), "5") },
			expectedCode: http.StatusNotFound,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "NOT_FOUND")
			},
		},
		{
			name:         "InvalidBuilder",
			auth:         as(builder),
			payload:      func(id uuid.UUID) string { return lockPayload(id, "5") },
			expectedCode: http.StatusForbidden,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "FORBIDDEN")
			},
		},
		{
			name:         "InvalidAdmin",
			auth:         as(admin),
			payload:      func(id uuid.UUID) string { return lockPayload(id, "5") },
			expectedCode: http.StatusForbidden,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "FORBIDDEN")
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			id := s.provisional(builder, challenge.ID, 20, 60)

			r := s.request(http.MethodPost, "/v1/judge/lock/", tt.auth, tt.payload(id))
			s.Equal(tt.expectedCode, r.code, "incorrect status code: %s", r.body)
			tt.bodyTester(s.T(), r)
		})
	}
}

func (s *ServerTestSuite) Test_LockSubmissionOnce() {
	id := s.provisional(builder, challenge.ID, 20, 60)

	r := s.request(http.MethodPost, "/v1/judge/lock/", as(judge), lockPayload(id, "10"))
	s.Require().Equal(http.StatusOK, r.code, r.body)

	r = s.request(http.MethodPost, "/v1/judge/lock/", as(judge), lockPayload(id, "-20"))
	s.Equal(http.StatusConflict, r.code, r.body)
	assertErrorCode(s.T(), r, "BAD_REQUEST")

	r = s.request(http.MethodPost, "/v1/scoring/trigger/", as(admin), fmt.Sprintf(`{"submissionId": %q}`, id))
	s.Equal(http.StatusConflict, r.code, r.body)

	store := models.NewStore(s.tx)
	sub, err := store.GetSubmission(s.T().Context(), id)
	s.Require().NoError(err)
	s.Equal(types.SubmissionStatusFinal, sub.Status)

	var review models.JudgeReview
	s.Require().NoError(s.tx.First(&review, "submission_id = ?", id).Error)
	s.True(review.Locked)
	s.InDelta(10.0, review.DeltaPct, 1e-9)
	s.InDelta(44.0, review.FinalScore.V, 1e-9)
	s.Equal(judge, review.JudgeID)
	s.Equal("Strong demo.", review.Notes)
}
