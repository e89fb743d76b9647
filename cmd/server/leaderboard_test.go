package main

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func (s *ServerTestSuite) leaderboard(auth *clientAuth, query string) ([]map[string]any, *resp) {
	r := s.request(http.MethodGet, "/v1/leaderboard/?"+query, auth, "")
	raw, _ := r.envelope["data"].([]any)
	entries := make([]map[string]any, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, e.(map[string]any))
	}
	return entries, r
}

func (s *ServerTestSuite) Test_Leaderboard() {
	top := s.provisional(builder, challenge.ID, 20, 60)     // 40
	low := s.provisional(builder2, challenge.ID, 10, 30)    // 20
	locked := s.provisional(builder2, challenge.ID, 15, 48) // 31.8, +10% => 34.98
	s.provisional(builder, otherChallenge.ID, 20, 60)

	r := s.request(http.MethodPost, "/v1/judge/lock/", as(judge), lockPayload(locked, "10"))
	s.Require().Equal(http.StatusOK, r.code, r.body)

	entries, r := s.leaderboard(as(builder), "challenge_id="+challenge.ID.String())
	s.Require().Equal(http.StatusOK, r.code, r.body)
	s.Require().Len(entries, 3)

	s.Equal(top.String(), entries[0]["submission_id"])
	s.Equal(locked.String(), entries[1]["submission_id"])
	s.Equal(low.String(), entries[2]["submission_id"])

	for i, e := range entries {
		s.InDelta(float64(i+1), e["rank"], 1e-9)
	}

	s.InDelta(40.0, entries[0]["score_display"], 1e-9)
	s.Equal("PROVISIONAL", entries[0]["status"])
	s.Equal("Team Rocket", entries[0]["display_name"])
	s.InDelta(20.0, entries[0]["score_auto"], 1e-9)
	s.InDelta(60.0, entries[0]["score_llm"], 1e-9)

	s.InDelta(34.98, entries[1]["score_display"], 1e-9)
	s.Equal("FINAL", entries[1]["status"])
	s.Equal("Team Magma", entries[1]["display_name"])

	s.InDelta(20.0, entries[2]["score_display"], 1e-9)
}

func (s *ServerTestSuite) Test_LeaderboardQuery() {
	for range 3 {
		s.provisional(builder, challenge.ID, 5, 10)
	}

	tests := []struct {
		name         string
		auth         *clientAuth
		query        string
		expectedCode int
		entries      int
		errField     string
	}{
		{name: "ValidJudge", auth: as(judgeUnassigned), query: "challenge_id=%s", expectedCode: http.StatusOK, entries: 3},
		{name: "ValidAdmin", auth: as(admin), query: "challenge_id=%s", expectedCode: http.StatusOK, entries: 3},
		{name: "ValidLimit", auth: as(builder), query: "challenge_id=%s&limit=2", expectedCode: http.StatusOK, entries: 2},
		{name: "ValidMaxLimit", auth: as(builder), query: "challenge_id=%s&limit=500", expectedCode: http.StatusOK, entries: 3},
		{name: "InvalidLimit", auth: as(builder), query: "challenge_id=%s&limit=501", expectedCode: http.StatusBadRequest, errField: "limit"},
		{name: "InvalidNegativeLimit", auth: as(builder), query: "challenge_id=%s&limit=-1", expectedCode: http.StatusBadRequest, errField: "limit"},
		{name: "InvalidMissingChallenge", auth: as(builder), query: "limit=5%.0s", expectedCode: http.StatusBadRequest, errField: "challenge_id"},
		{name: "InvalidNoAuth", query: "challenge_id=%s", expectedCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			entries, r := s.leaderboard(tt.auth, fmt.Sprintf(tt.query, challenge.ID))
			s.Equal(tt.expectedCode, r.code, "incorrect status code: %s", r.body)
			if tt.expectedCode == http.StatusOK {
				s.Len(entries, tt.entries)
			}
			if tt.errField != "" {
				assertFieldError(s.T(), r, tt.errField)
			}
		})
	}
}

func (s *ServerTestSuite) Test_LeaderboardEmpty() {
	entries, r := s.leaderboard(as(builder), "challenge_id="+uuid.New().String())
	s.Require().Equal(http.StatusOK, r.code, r.body)
	s.Empty(entries)
	assert.Equal(s.T(), true, r.envelope["ok"])
	s.Contains(r.body, `"data":[]`)
}
