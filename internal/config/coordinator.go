package config

import "github.com/caarlos0/env/v11"

type CoordinatorConfig struct {
	ReconnectGraceMS    int `env:"RECONNECT_GRACE_MS" envDefault:"30000"`
	JanitorIntervalMS   int `env:"JANITOR_INTERVAL_MS" envDefault:"60000"`
	LivenessTimeoutMS   int `env:"LIVENESS_TIMEOUT_MS" envDefault:"120000"`
	SessionEventLogSize int `env:"SESSION_EVENT_LOG_SIZE" envDefault:"500"`
	WSSendBuffer        int `env:"WS_SEND_BUFFER" envDefault:"256"`
	WSPingIntervalMS    int `env:"WS_PING_INTERVAL_MS" envDefault:"25000"`
}

func LoadCoordinator() (CoordinatorConfig, error) {
	var cfg CoordinatorConfig
	err := env.Parse(&cfg)
	return cfg, err
}
