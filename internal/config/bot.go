package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	WSURL      string `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	PlayerID   string `env:"BOT_PLAYER_ID"`
	Name       string `env:"BOT_NAME" envDefault:"bot"`
	Token      string `env:"BOT_TOKEN"`
	Challenge  bool   `env:"BOT_CHALLENGE" envDefault:"true"`
	GoalsToWin int    `env:"BOT_GOALS_TO_WIN" envDefault:"3"`
	MoveDelay  int    `env:"BOT_MOVE_DELAY_MS" envDefault:"400"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
