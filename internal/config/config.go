package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// AppConfig is the process configuration, loaded from the environment.
type AppConfig struct {
	GatewayBaseURL string `env:"GATEWAY_BASE_URL,required"`
	GatewayWSURL   string `env:"GATEWAY_WS_URL,required"`
	GatewayToken   string `env:"GATEWAY_TOKEN"`

	BotPrefix string `env:"BOT_PREFIX" envDefault:"/"`

	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	DatabaseURL string `env:"DATABASE_URL"`

	// MaxPlayers must be even and at least four; the session layer
	// falls back to ten otherwise.
	MaxPlayers int  `env:"MAX_PLAYERS" envDefault:"10"`
	KitChoice  bool `env:"KIT_CHOICE" envDefault:"false"`

	LeaderboardMinGames int `env:"LEADERBOARD_MIN_GAMES" envDefault:"10"`

	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	MessageDir string `env:"MESSAGE_DIR"`

	WSMaxReconnects  int `env:"WS_MAX_RECONNECTS" envDefault:"10"`
	WSReconnectDelay int `env:"WS_RECONNECT_DELAY_SEC" envDefault:"5"`
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.MaxPlayers < 4 || cfg.MaxPlayers%2 != 0 {
		return nil, fmt.Errorf("MAX_PLAYERS must be an even number of at least 4, got %d", cfg.MaxPlayers)
	}
	return cfg, nil
}
