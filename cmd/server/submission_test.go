package main

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/buildathon/scoring-api/internal/models"
	"github.com/buildathon/scoring-api/internal/types"
)

func (s *ServerTestSuite) Test_CreateSubmission() {
	tests := []struct {
		name         string
		auth         *clientAuth
		payload      string
		expectedCode int
		bodyTester   func(t *testing.T, r *resp)
	}{
		{
			name: "Valid",
			auth: as(builder),
			payload: fmt.Sprintf(
				`{"challenge_id": %q, "repo_url": "https://github.com/team/repo", "deck_url": "https://example.com/deck.pdf", "demo_url": "https://example.com/demo.mp4", "writeup_md": %q}`,
				challenge.ID, fullWriteup,
			),
			expectedCode: http.StatusOK,
			bodyTester: func(t *testing.T, r *resp) {
				assert.Equal(t, true, r.envelope["ok"])
				assert.Equal(t, "QUEUED", r.data()["status"])
				_, err := uuid.Parse(r.data()["submission_id"].(string))
				assert.NoError(t, err)
			},
		},
		{
			name:         "ValidNoArtifacts",
			auth:         as(builder),
			payload:      fmt.Sprintf(`{"challenge_id": %q}`, challenge.ID),
			expectedCode: http.StatusOK,
			bodyTester: func(t *testing.T, r *resp) {
				assert.Equal(t, "QUEUED", r.data()["status"])
			},
		},
		{
			name:         "InvalidMissingChallenge",
			auth:         as(builder),
			payload:      `{"repo_url": "https://github.com/team/repo"}`,
			expectedCode: http.StatusBadRequest,
			bodyTester: func(t *testing.T, r *resp) {
				assertFieldError(t, r, "challenge_id")
			},
		},
		{
			name:         "InvalidRepoURL",
			auth:         as(builder),
			payload:      fmt.Sprintf(`{"challenge_id": %q, "repo_url": "not a url"}`, challenge.ID),
			expectedCode: http.StatusBadRequest,
			bodyTester: func(t *testing.T, r *resp) {
				assertFieldError(t, r, "repo_url")
			},
		},
		{
			name:         "InvalidMalformedJSON",
			auth:         as(builder),
			payload:      `{"challenge_id": `,
			expectedCode: http.StatusBadRequest,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "VALIDATION_ERROR")
			},
		},
		{
			name:         "InvalidUnknownChallenge",
			auth:         as(builder),
			payload:      fmt.Sprintf(`{"challenge_id": %q}`, uuid.New()),
			expectedCode: http.StatusNotFound,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "NOT_FOUND")
			},
		},
		{
			name:         "InvalidJudge",
			auth:         as(judge),
			payload:      fmt.Sprintf(`{"challenge_id": %q}`, challenge.ID),
			expectedCode: http.StatusForbidden,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "FORBIDDEN")
			},
		},
		{
			name:         "InvalidNoAuth",
			payload:      fmt.Sprintf(`{"challenge_id": %q}`, challenge.ID),
			expectedCode: http.StatusUnauthorized,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "UNAUTHORIZED")
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			r := s.request(http.MethodPost, "/v1/submission/", tt.auth, tt.payload)
			s.Equal(tt.expectedCode, r.code, "incorrect status code: %s", r.body)
			tt.bodyTester(s.T(), r)
		})
	}
}

// Creating a submission starts scoring. The runner in these tests finishes before the
// response is written, so the stored result is visible right away.
func (s *ServerTestSuite) Test_CreateSubmissionScores() {
	payload := fmt.Sprintf(
		`{"challenge_id": %q, "repo_url": "https://github.com/team/repo", "deck_url": "https://example.com/deck.pdf", "demo_url": "https://example.com/demo.mp4", "writeup_md": %q}`,
		challenge.ID, fullWriteup,
	)
	r := s.request(http.MethodPost, "/v1/submission/", as(builder), payload)
	s.Require().Equal(http.StatusOK, r.code, r.body)

	id := uuid.MustParse(r.data()["submission_id"].(string))
	store := models.NewStore(s.tx)

	sub, err := store.GetSubmission(s.T().Context(), id)
	s.Require().NoError(err)
	s.Equal(types.SubmissionStatusProvisional, sub.Status)
	s.Equal(builder, sub.UserID)

	auto, llmScore, err := store.GetScores(s.T().Context(), id)
	s.Require().NoError(err)
	s.Equal(20, auto.ScoreAuto)
	s.InDelta(60.0, llmScore.ScoreLLM, 1e-9)
	s.False(llmScore.Fallback)
}

func (s *ServerTestSuite) Test_GetSubmission() {
	id := s.provisional(builder, challenge.ID, 20, 60)

	queued := &models.Submission{
		ChallengeID: challenge.ID,
		UserID:      builder,
		WriteupMD:   models.NewNullFromData("# Hello"),
	}
	s.Require().NoError(models.NewStore(s.tx).CreateSubmission(s.T().Context(), queued))

	tests := []struct {
		name         string
		auth         *clientAuth
		submissionID string
		expectedCode int
		bodyTester   func(t *testing.T, r *resp)
	}{
		{
			name:         "ValidOwner",
			auth:         as(builder),
			submissionID: id.String(),
			expectedCode: http.StatusOK,
			bodyTester: func(t *testing.T, r *resp) {
				assert.Equal(t, "PROVISIONAL", r.data()["status"])
				assert.Equal(t, builder.String(), r.data()["user_id"])
				assert.Equal(t, challenge.ID.String(), r.data()["challenge_id"])

				scores, ok := r.data()["scores"].(map[string]any)
				if assert.True(t, ok, "scores present: %s", r.body) {
					assert.InDelta(t, 20.0, scores["score_auto"], 1e-9)
					assert.InDelta(t, 60.0, scores["score_llm"], 1e-9)
					assert.InDelta(t, 40.0, scores["provisional_score"], 1e-9)
					assert.Equal(t, false, scores["fallback"])
					assert.Equal(t, "test", scores["model"])
				}
				assert.NotContains(t, r.data(), "review")
			},
		},
		{
			name:         "ValidQueuedHasNoScores",
			auth:         as(builder),
			submissionID: queued.ID.String(),
			expectedCode: http.StatusOK,
			bodyTester: func(t *testing.T, r *resp) {
				assert.Equal(t, "QUEUED", r.data()["status"])
				assert.Equal(t, "# Hello", r.data()["writeup_md"])
				assert.NotContains(t, r.data(), "scores")
				assert.NotContains(t, r.data(), "review")
			},
		},
		{
			name:         "ValidUpper",
			auth:         as(builder),
			submissionID: strings.ToUpper(id.String()),
			expectedCode: http.StatusOK,
			bodyTester: func(t *testing.T, r *resp) {
				assert.Equal(t, id.String(), r.data()["submission_id"])
			},
		},
		{
			name:         "ValidJudge",
			auth:         as(judgeUnassigned),
			submissionID: id.String(),
			expectedCode: http.StatusOK,
			bodyTester: func(t *testing.T, r *resp) {
				assert.Equal(t, id.String(), r.data()["submission_id"])
			},
		},
		{
			name:         "ValidAdmin",
			auth:         as(admin),
			submissionID: id.String(),
			expectedCode: http.StatusOK,
			bodyTester: func(t *testing.T, r *resp) {
				assert.Equal(t, id.String(), r.data()["submission_id"])
			},
		},
		{
			name:         "InvalidOtherBuilder",
			auth:         as(builder2),
			submissionID: id.String(),
			expectedCode: http.StatusNotFound,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "NOT_FOUND")
			},
		},
		{
			name:         "InvalidUnknown",
			auth:         as(builder),
			submissionID: uuid.New().String(),
			expectedCode: http.StatusNotFound,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "NOT_FOUND")
			},
		},
		{
			name:         "InvalidNotUUID",
			auth:         as(builder),
			submissionID: "foo",
			expectedCode: http.StatusNotFound,
			bodyTester: func(t *testing.T, r *resp) {
				assertErrorCode(t, r, "NOT_FOUND")
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			r := s.request(http.MethodGet, "/v1/submission/"+tt.submissionID+"/", tt.auth, "")
			s.Equal(tt.expectedCode, r.code, "incorrect status code: %s", r.body)
			tt.bodyTester(s.T(), r)
		})
	}
}

func (s *ServerTestSuite) Test_GetSubmissionWithReview() {
	id := s.provisional(builder, challenge.ID, 20, 60)

	r := s.request(http.MethodPost, "/v1/judge/lock/", as(judge), lockPayload(id, "10"))
	s.Require().Equal(http.StatusOK, r.code, r.body)

	r = s.request(http.MethodGet, "/v1/submission/"+id.String()+"/", as(builder), "")
	s.Require().Equal(http.StatusOK, r.code, r.body)
	s.Equal("FINAL", r.data()["status"])

	scores, ok := r.data()["scores"].(map[string]any)
	s.Require().True(ok, "scores present: %s", r.body)
	s.InDelta(40.0, scores["provisional_score"], 1e-9)

	review, ok := r.data()["review"].(map[string]any)
	s.Require().True(ok, "review present: %s", r.body)
	s.Equal(judge.String(), review["judge_id"])
	s.Equal("Strong demo.", review["notes_md"])
	s.Equal(true, review["locked"])
	s.InDelta(10.0, review["delta_pct"], 1e-9)
	s.InDelta(44.0, review["final_score"], 1e-9)
	s.NotEmpty(review["locked_at"])
}
