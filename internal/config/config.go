package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries every externally settable knob. Defaults match production
// tuning; anything can be overridden through the environment or a .env file.
type Config struct {
	Addr      string        `env:"API_ADDR" envDefault:":8080"`
	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	RoomReadyCountdown time.Duration `env:"ROOM_READY_COUNTDOWN" envDefault:"10s"`

	PromptTimeout   time.Duration `env:"PROMPT_TIMEOUT" envDefault:"90s"`
	ResponseTimeout time.Duration `env:"RESPONSE_TIMEOUT" envDefault:"90s"`
	VoteTimeout     time.Duration `env:"VOTE_TIMEOUT" envDefault:"60s"`
	RestartTimeout  time.Duration `env:"RESTART_TIMEOUT" envDefault:"30s"`
	MaxVoteTargets  int           `env:"MAX_VOTE_TARGETS" envDefault:"3"`

	HeartbeatTick  time.Duration `env:"HEARTBEAT_TICK" envDefault:"3s"`
	StaleThreshold time.Duration `env:"STALE_THRESHOLD" envDefault:"20s"`

	// Poll throttling per session.
	PollRate  float64 `env:"POLL_RATE" envDefault:"5"`
	PollBurst int     `env:"POLL_BURST" envDefault:"10"`
}

// Load reads .env if present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
