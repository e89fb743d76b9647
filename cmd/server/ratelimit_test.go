package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/buildathon/scoring-api/internal/config"
	"github.com/buildathon/scoring-api/internal/metrics"
)

func (s *ServerTestSuite) startRedis() string {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7.4-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	s.T().Cleanup(func() {
		s.NoError(testcontainers.TerminateContainer(container), "failed to terminate container")
	})
	s.Require().NoError(err, "failed to start redis container")

	endpoint, err := container.Endpoint(ctx, "")
	s.Require().NoError(err)
	return endpoint
}

func (s *ServerTestSuite) Test_RateLimits() {
	limited := *s.config
	limited.RateLimit = &config.RateLimitConfig{
		RedisHost:        s.startRedis(),
		GlobalPerMinute:  2,
		TriggerPerMinute: 1,
	}

	registry := prometheus.NewRegistry()
	e, err := buildRouter(deps{
		db:        s.tx,
		config:    &limited,
		completer: s.completer,
		metrics:   metrics.New(registry),
		runner:    inlineRunner{},
		gatherer:  registry,
	})
	s.Require().NoError(err, "failed to construct router")
	s.server.Close()
	s.server = httptest.NewServer(e)

	submission := fmt.Sprintf(`{"challenge_id": %q, "writeup_md": %q}`, challenge.ID, fullWriteup)

	s.Run("TriggerLimitOnSubmission", func() {
		r := s.request(http.MethodPost, "/v1/submission/", as(builder), submission)
		s.Equal(http.StatusOK, r.code, r.body)

		r = s.request(http.MethodPost, "/v1/submission/", as(builder), submission)
		s.Equal(http.StatusTooManyRequests, r.code, r.body)
		assertErrorCode(s.T(), r, "RATE_LIMITED")
	})

	s.Run("GlobalLimitOnJudge", func() {
		r := s.request(http.MethodPost, "/v1/judge/lock/", as(judge), lockPayload(uuid.New(), "5"))
		s.Equal(http.StatusNotFound, r.code, r.body)

		r = s.request(http.MethodGet, "/v1/ping/", as(judge), "")
		s.Equal(http.StatusOK, r.code, r.body)

		r = s.request(http.MethodPost, "/v1/judge/lock/", as(judge), lockPayload(uuid.New(), "5"))
		s.Equal(http.StatusTooManyRequests, r.code, r.body)
		assertErrorCode(s.T(), r, "RATE_LIMITED")
	})

	s.Run("GlobalLimitOnSubmission", func() {
		for range 2 {
			r := s.request(http.MethodGet, "/v1/ping/", as(builder2), "")
			s.Equal(http.StatusOK, r.code, r.body)
		}

		r := s.request(http.MethodPost, "/v1/submission/", as(builder2), submission)
		s.Equal(http.StatusTooManyRequests, r.code, r.body)
	})

	s.Run("GlobalLimitOnScoring", func() {
		for range 2 {
			r := s.request(http.MethodGet, "/v1/leaderboard/?challenge_id="+challenge.ID.String(), as(admin), "")
			s.Equal(http.StatusOK, r.code, r.body)
		}

		r := s.request(http.MethodPost, "/v1/scoring/trigger/", as(admin), fmt.Sprintf(`{"submissionId": %q}`, uuid.New()))
		s.Equal(http.StatusTooManyRequests, r.code, r.body)
	})
}
