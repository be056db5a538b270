package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// CHAT_SERVER_ADDR points the suite at a running gateway; the suite
	// skips itself when unset.
	ServerAddr string `envconfig:"CHAT_SERVER_ADDR"`
	AuthSecret string `envconfig:"AUTH_SECRET" default:"e2e_secret"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
