package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/buildathon/scoring-api/internal/logger"
	"github.com/buildathon/scoring-api/internal/validator"
)

type PrincipalPermissions struct {
	Builder bool `mapstructure:"builder" json:"builder"`
	Judge   bool `mapstructure:"judge"   json:"judge"`
	Admin   bool `mapstructure:"admin"   json:"admin"`
}

// Principal is a caller of the API. Its ID is both the basic auth username and the
// identity recorded as submission builder or judge.
type Principal struct {
	Active      *bool                `mapstructure:"active"       json:"active"       validate:"required"`
	ID          string               `mapstructure:"id"           json:"id"           validate:"required,uuid_rfc4122"`
	DisplayName string               `mapstructure:"display_name" json:"display_name" validate:"required"`
	Token       string               `mapstructure:"token"        json:"token"        validate:"required"`
	Permissions PrincipalPermissions `mapstructure:"permissions"  json:"permissions"`
}

type PostgresConfig struct {
	User               string        `validate:"required"`
	Password           string        `validate:"required"`
	Host               string        `validate:"required"`
	Database           string        `validate:"required"`
	MaxIdleConnections int           `validate:"required" mapstructure:"max_idle_connections"`
	MaxOpenConnections int           `validate:"required" mapstructure:"max_open_connections"`
	ConnectionTTL      time.Duration `validate:"required" mapstructure:"connection_ttl"`
	Port               int16         `validate:"required"`
}

type SlogConfig struct {
	Level string `mapstructure:"level"`
}

type GormLogConfig struct {
	Level        int  `mapstructure:"level"`
	TraceQueries bool `mapstructure:"trace_queries"`
}

type LoggingConfig struct {
	Gorm    GormLogConfig `mapstructure:"gorm"`
	App     SlogConfig    `mapstructure:"app"`
	UseOTLP bool          `mapstructure:"use_otlp"`
}

type RateLimitConfig struct {
	RedisHost        string `mapstructure:"redis_host"`
	GlobalPerMinute  int64  `mapstructure:"global_per_minute"`
	TriggerPerMinute int64  `mapstructure:"trigger_per_minute"`
	FailOpen         bool   `mapstructure:"fail_open"`
}

type LLMConfig struct {
	Provider          string        `mapstructure:"provider"            validate:"required,oneof=anthropic openai google"`
	APIKey            string        `mapstructure:"api_key"             validate:"required"`
	Model             string        `mapstructure:"model"               validate:"required"`
	BaseURL           string        `mapstructure:"base_url"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"gte=0"`
	Burst             int           `mapstructure:"burst"               validate:"gte=0"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	MaxTokens         int           `mapstructure:"max_tokens"          validate:"gte=0"`
}

type ScoringConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"      validate:"required"`
	MaxAttempts uint64        `mapstructure:"max_attempts" validate:"required,gte=1"`
	BaseDelay   time.Duration `mapstructure:"base_delay"   validate:"required"`
}

type JudgingConfig struct {
	MinNotesChars int `mapstructure:"min_notes_chars" validate:"gte=0"`
}

// See scoringapi.yaml for an example config
type Config struct {
	Postgres             *PostgresConfig  `mapstructure:"postgres"               validate:"required"`
	Logging              *LoggingConfig   `mapstructure:"logging"                validate:"required"`
	RateLimit            *RateLimitConfig `mapstructure:"ratelimit"`
	LLM                  *LLMConfig       `mapstructure:"llm"                    validate:"required"`
	Scoring              *ScoringConfig   `mapstructure:"scoring"                validate:"required"`
	Judging              *JudgingConfig   `mapstructure:"judging"                validate:"required"`
	ListenAddress        string           `mapstructure:"listen_address"         validate:"required"`
	Principals           []Principal      `mapstructure:"principals"             validate:"dive"`
	GracefulShutdownSecs int64            `mapstructure:"graceful_shutdown_secs"`
}

const (
	AppLogLevel                string = "logging.app.level"
	EnvPrefix                  string = "scoringapi"
	UseOTLP                    string = "logging.use_otlp"
	GlobalPerMinute            string = "ratelimit.global_per_minute"
	TriggerPerMinute           string = "ratelimit.trigger_per_minute"
	GormLogLevel               string = "logging.gorm.level"
	GormTraceQueries           string = "logging.gorm.trace_queries"
	GracefulShutdownSecs       string = "graceful_shutdown_secs"
	JudgingMinNotesChars       string = "judging.min_notes_chars"
	ListenAddress              string = "listen_address"
	LLMAPIKey                  string = "llm.api_key" // #nosec
	LLMBaseURL                 string = "llm.base_url"
	LLMBurst                   string = "llm.burst"
	LLMMaxTokens               string = "llm.max_tokens"
	LLMModel                   string = "llm.model"
	LLMProvider                string = "llm.provider"
	LLMRequestTimeout          string = "llm.request_timeout"
	LLMRequestsPerMinute       string = "llm.requests_per_minute"
	PostgresDatabase           string = "postgres.database"
	PostgresHost               string = "postgres.host"
	PostgresPassword           string = "postgres.password"
	PostgresPort               string = "postgres.port"
	PostgresUser               string = "postgres.user"
	PostgresMaxIdleConnections string = "postgres.max_idle_connections"
	PostgresMaxOpenConnections string = "postgres.max_open_connections"
	PostgresConnectonTTL       string = "postgres.connection_ttl"
	RateLimitFailOpen          string = "ratelimit.fail_open"
	RedisHost                  string = "ratelimit.redis_host"
	ScoringBaseDelay           string = "scoring.base_delay"
	ScoringMaxAttempts         string = "scoring.max_attempts"
	ScoringTimeout             string = "scoring.timeout"
)

var configReady = false
var config Config

func GetConfig() (*Config, error) {
	if configReady {
		logger.Logger.Debug("returning already-loaded config")
		return &config, nil
	}
	logger.Logger.Info("loading config")

	v := viper.New()

	v.SetConfigName("scoringapi")

	v.AddConfigPath("/etc/scoringapi/")
	v.AddConfigPath(".")

	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AutomaticEnv()

	// workaround for https://github.com/spf13/viper/issues/761
	// bind env vars explicitly so they unmarshal into the nested struct
	for _, key := range []string{PostgresPassword, LLMAPIKey, LLMProvider, LLMModel} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	setDefaults(v)

	err := v.ReadInConfig()
	if err != nil {
		// ignore config file not found to allow pure env config
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	valid := validator.Create()
	err = valid.Validate(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	configReady = true
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ListenAddress, "[::]:1323")
	v.SetDefault(PostgresHost, "localhost")
	v.SetDefault(PostgresPort, 5432)
	v.SetDefault(PostgresMaxIdleConnections, 2)
	v.SetDefault(PostgresMaxOpenConnections, 10)
	v.SetDefault(PostgresConnectonTTL, 10*time.Minute)
	v.SetDefault(GormLogLevel, 0)
	v.SetDefault(GormTraceQueries, false)
	v.SetDefault(AppLogLevel, "debug")

	v.SetDefault(RedisHost, "localhost:6379")
	v.SetDefault(GlobalPerMinute, 0)
	v.SetDefault(TriggerPerMinute, 0)
	v.SetDefault(RateLimitFailOpen, true)

	v.SetDefault(UseOTLP, false)

	v.SetDefault(LLMProvider, "anthropic")
	v.SetDefault(LLMRequestsPerMinute, 60)
	v.SetDefault(LLMBurst, 1)
	v.SetDefault(LLMRequestTimeout, 45*time.Second)
	v.SetDefault(LLMMaxTokens, 1024)

	v.SetDefault(ScoringTimeout, 2*time.Minute)
	v.SetDefault(ScoringMaxAttempts, 3)
	v.SetDefault(ScoringBaseDelay, 500*time.Millisecond)

	v.SetDefault(JudgingMinNotesChars, 0)

	v.SetDefault(GracefulShutdownSecs, 30)
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s",
		url.QueryEscape(c.Postgres.User),
		url.QueryEscape(c.Postgres.Password),
		c.Postgres.Host, c.Postgres.Port,
		url.QueryEscape(c.Postgres.Database),
	)
}
