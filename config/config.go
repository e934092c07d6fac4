package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	MongoURI    string        `env:"MONGO_URI,notEmpty"`
	DBName      string        `env:"DB_NAME" envDefault:"foodmarket"`
	JWTSecret   string        `env:"JWT_SECRET,notEmpty"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	CORSOrigins []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	KafkaBroker []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic  string        `env:"KAFKA_TOPIC" envDefault:"orders.placed"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadEnv reads a .env file when one is present. A missing file is not an
// error; real deployments set the environment directly.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env", "err", err)
	}
}

// Load parses the server configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Parse fills any env-tagged struct, used by the storefront binary.
func Parse(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
