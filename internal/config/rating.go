package config

import "github.com/caarlos0/env/v11"

type RatingConfig struct {
	KFactor          int    `env:"RATING_K_FACTOR" envDefault:"32"`
	DefaultRating    int    `env:"RATING_DEFAULT" envDefault:"1200"`
	Period           string `env:"RATING_PERIOD" envDefault:"weekly"`
	RetentionPeriods int    `env:"RATING_RETENTION_PERIODS" envDefault:"12"`
	PruneIntervalMS  int    `env:"RATING_PRUNE_INTERVAL_MS" envDefault:"3600000"`
}

func LoadRating() (RatingConfig, error) {
	var cfg RatingConfig
	err := env.Parse(&cfg)
	return cfg, err
}
