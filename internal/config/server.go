package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	RedisURL              string `env:"REDIS_URL"`
	LeaderboardCacheTTLMS int    `env:"LEADERBOARD_CACHE_TTL_MS" envDefault:"30000"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	AuthJWTSecret string `env:"AUTH_JWT_SECRET"`
	AuthJWTIssuer string `env:"AUTH_JWT_ISSUER" envDefault:"matchhub"`

	ResultPushEnabled     bool   `env:"RESULT_PUSH_ENABLED" envDefault:"false"`
	ResultPushConfigPath  string `env:"RESULT_PUSH_CONFIG_PATH"`
	ResultPushConfigJSON  string `env:"RESULT_PUSH_CONFIG_JSON"`
	ResultPushReloadMS    int    `env:"RESULT_PUSH_CONFIG_RELOAD_MS" envDefault:"5000"`
	ResultPushWorkers     int    `env:"RESULT_PUSH_WORKERS" envDefault:"4"`
	ResultPushRetryMax    int    `env:"RESULT_PUSH_RETRY_MAX" envDefault:"3"`
	ResultPushRetryBaseMS int    `env:"RESULT_PUSH_RETRY_BASE_MS" envDefault:"500"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
