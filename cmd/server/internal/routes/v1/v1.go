package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	srverr "github.com/buildathon/scoring-api/cmd/server/internal/error"
	servermiddleware "github.com/buildathon/scoring-api/cmd/server/internal/middleware"
	"github.com/buildathon/scoring-api/cmd/server/internal/ratelimit"
	"github.com/buildathon/scoring-api/cmd/server/internal/response"
	"github.com/buildathon/scoring-api/internal/config"
	"github.com/buildathon/scoring-api/internal/logger"
	"github.com/buildathon/scoring-api/internal/models"
	"github.com/buildathon/scoring-api/internal/pipeline"
	"github.com/buildathon/scoring-api/internal/types"
)

const name = "github.com/buildathon/scoring-api/server/routes/v1"

var tracer = otel.Tracer(name)

type Handler struct {
	DB           *gorm.DB
	store        *models.Store
	orchestrator *pipeline.Orchestrator
	lockGate     *pipeline.LockGate
	leaderboard  *pipeline.Leaderboard
	config       *config.Config
}

func NewRedisLimiter(
	rdb *redis.Client,
	limiterKey string,
	perMinute int64,
	failOpen bool,
	onlyMethod *string,
) middleware.RateLimiterConfig {
	store := ratelimit.NewRedisLimitStore(ratelimit.RedisLimiterConfig{
		PerMinute:   perMinute,
		RedisClient: rdb,
		LimiterKey:  limiterKey,
		FailOpen:    failOpen,
	})

	skipper := middleware.DefaultSkipper
	if onlyMethod != nil {
		skipper = func(c echo.Context) bool {
			return c.Request().Method != *onlyMethod
		}
	}

	return middleware.RateLimiterConfig{
		Skipper: skipper,
		Store:   store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			principal, ok := servermiddleware.CurrentPrincipal(c)
			if !ok {
				return "", srverr.ErrTypeAssertMismatch
			}
			return principal.ID.String(), nil
		},
		ErrorHandler: func(_ echo.Context, _ error) error {
			return response.ForbiddenError
		},
		DenyHandler: func(_ echo.Context, _ string, _ error) error {
			return response.NewError(types.ErrorCodeRateLimited, "rate limit exceeded")
		},
	}
}

func NewHandler(
	db *gorm.DB,
	store *models.Store,
	orchestrator *pipeline.Orchestrator,
	lockGate *pipeline.LockGate,
	leaderboard *pipeline.Leaderboard,
	cfg *config.Config,
) Handler {
	return Handler{
		DB:           db,
		store:        store,
		orchestrator: orchestrator,
		lockGate:     lockGate,
		leaderboard:  leaderboard,
		config:       cfg,
	}
}

func (h *Handler) AddRoutes(e *echo.Echo, middlewareHandler *servermiddleware.Handler) {
	l := logger.Logger

	v1Group := e.Group("/v1", middleware.BasicAuth(middlewareHandler.BasicAuthValidator))

	// subgroups copy the parent's middleware when created, so the global limiter must be
	// attached before any of them exist
	var trigger echo.MiddlewareFunc
	rl := h.config.RateLimit
	if rl != nil && (rl.GlobalPerMinute > 0 || rl.TriggerPerMinute > 0) {
		rdb := redis.NewClient(&redis.Options{Addr: rl.RedisHost})
		l.Debug("setting up rate limiter with redis", "redis", rl.RedisHost)

		if rl.GlobalPerMinute > 0 {
			v1Group.Use(middleware.RateLimiterWithConfig(
				NewRedisLimiter(rdb, "global", rl.GlobalPerMinute, rl.FailOpen, nil),
			))
		} else {
			l.Warn("not configured to have a global rate limit")
		}

		if rl.TriggerPerMinute > 0 {
			post := http.MethodPost
			// submissions and manual triggers both start a scoring run
			trigger = middleware.RateLimiterWithConfig(
				NewRedisLimiter(rdb, "trigger", rl.TriggerPerMinute, rl.FailOpen, &post),
			)
		} else {
			l.Warn("not configured to have a trigger rate limit")
		}
	} else {
		l.Warn("not configured to have any rate limits")
	}

	submissionGroup := v1Group.Group("/submission")
	scoringGroup := v1Group.Group(
		"/scoring",
		servermiddleware.HasPermissions(&models.Permissions{Admin: true}),
	)
	judgeGroup := v1Group.Group(
		"/judge",
		servermiddleware.HasPermissions(&models.Permissions{Judge: true}),
	)
	if trigger != nil {
		submissionGroup.Use(trigger)
		scoringGroup.Use(trigger)
	}

	v1Group.GET("/ping/", h.Ping)

	submissionGroup.POST(
		"/",
		h.CreateSubmission,
		servermiddleware.HasPermissions(&models.Permissions{Builder: true}),
	)
	submissionGroup.GET(
		"/:submission_id/",
		h.GetSubmission,
		servermiddleware.PopulateFromIDParam[models.Submission](
			middlewareHandler,
			"submission_id",
			"submission",
		),
	)

	scoringGroup.POST("/trigger/", h.TriggerScoring)

	judgeGroup.POST("/lock/", h.LockSubmission)

	v1Group.GET("/leaderboard/", h.Leaderboard)
}
