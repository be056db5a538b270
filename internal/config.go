package internal

import "time"

// Config is loaded from the environment at process start. Required values
// have no fallback on purpose: a misconfigured server must refuse to boot.
type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`

	// SessionBufferSize is the per-session event buffer; a session whose
	// buffer is full counts as offline for delivery purposes.
	SessionBufferSize int `env:"SESSION_BUFFER_SIZE,default=64"`
	// BroadcastBufferSize feeds the status fanout worker.
	BroadcastBufferSize int `env:"BROADCAST_BUFFER_SIZE,default=256"`

	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}
