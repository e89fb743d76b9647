package main

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/buildathon/scoring-api/internal/models"
)

func (s *ServerTestSuite) Test_TriggerScoring() {
	ctx := s.T().Context()
	store := models.NewStore(s.tx)

	queued := &models.Submission{
		ChallengeID: challenge.ID,
		UserID:      builder,
		RepoURL:     models.NewNullFromData("https://github.com/team/repo"),
		DeckURL:     models.NewNullFromData("https://example.com/deck.pdf"),
		DemoURL:     models.NewNullFromData("https://example.com/demo.mp4"),
		WriteupMD:   models.NewNullFromData(fullWriteup),
	}
	s.Require().NoError(store.CreateSubmission(ctx, queued))

	final := s.provisional(builder2, challenge.ID, 10, 30)
	r := s.request(http.MethodPost, "/v1/judge/lock/", as(judge),
		fmt.Sprintf(`{"submissionId": %q, "delta_pct": 0}`, final))
	s.Require().Equal(http.StatusOK, r.code, r.body)

	tests := []struct {
		name         string
		auth         *clientAuth
		payload      string
		expectedCode int
		bodyTester   func(t *testing.T, r *resp)
	}{
		{
			name:         "Valid",
			auth:         as(admin),
			payload:      fmt.Sprintf(`{"submissionId": %q}`, queued.ID),
			expectedCode: http.StatusOK,
			bodyTester: func(t *testing.T, r *resp) {
				assert.Equal(t, true, r.envelope["ok"])
				assert.Equal(t, queued.ID.String(), r.data()["submissionId"])
				assert.Equal(t, "PROVISIONAL", r.data()["status"])
				assert.InDelta(t, 20, r.data()["score_auto"], 1e-9)
				assert.InDelta(t, 60, r.data()["score_llm"], 1e-9)
				assert.Equal(t, false, r.data()["fallback"])
			},
		},
		{
			name:         "ValidRescore",
			auth:         as(admin),
			payload:      fmt.Sprintf(`{"submissionId": %q}`, queued.ID),
			expectedCode: http.StatusOK,
			bodyTester: func(t *testing.T, r *resp) {
				assert.Equal(t, "PROVISIONAL", r.data()["status"])
			},
		},
		{
			name:         "InvalidFinal",
			auth:         as(admin),
			payload:      fmt.Sprintf(`{"submissionId": %q}`, final),
			expectedCode: http.StatusConflict,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "BAD_REQUEST")
			},
		},
		{
			name:         "InvalidUnknown",
			auth:         as(admin),
			payload:      fmt.Sprintf(`{"submissionId": %q}`, uuid.New()),
			expectedCode: http.StatusNotFound,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "NOT_FOUND")
			},
		},
		{
			name:         "InvalidNotUUID",
			auth:         as(admin),
			payload:      `{"submissionId": "abc"}`,
			expectedCode: http.StatusBadRequest,
			bodyTester: func(t *testing.T, r *resp) {
				assertFieldError(t, r, "submissionId")
			},
		},
		{
			name:         "InvalidBuilder",
			auth:         as(builder),
			payload:      fmt.Sprintf(`{"submissionId": %q}`, queued.ID),
			expectedCode: http.StatusForbidden,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "FORBIDDEN")
			},
		},
		{
			name:         "InvalidJudge",
			auth:         as(judge),
			payload:      fmt.Sprintf(`{"submissionId": %q}`, queued.ID),
			expectedCode: http.StatusForbidden,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "FORBIDDEN")
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			r := s.request(http.MethodPost, "/v1/scoring/trigger/", tt.auth, tt.payload)
			s.Equal(tt.expectedCode, r.code, "incorrect status code: %s", r.body)
			tt.bodyTester(s.T(), r)
		})
	}
}
