package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName   string
	HTTPPort      string
	PostgresDSN   string
	SweepInterval time.Duration

	// BallotKey is the 32-byte AES-256 key sealing every stored vote.
	// It is required; Load fails when AES_KEY_HEX is absent or does not
	// decode to exactly 32 bytes.
	BallotKey []byte
}

func Load() (Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "safeballot"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	interval := 30 * time.Second
	if raw := strings.TrimSpace(os.Getenv("STATUS_SWEEP_INTERVAL")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("STATUS_SWEEP_INTERVAL is not a duration: %w", err)
		}
		interval = parsed
	}

	key, err := parseBallotKey(os.Getenv("AES_KEY_HEX"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		ServiceName:   service,
		HTTPPort:      port,
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		SweepInterval: interval,
		BallotKey:     key,
	}, nil
}

func parseBallotKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("AES_KEY_HEX must be set and be a 64-character hex string (32 bytes)")
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("AES_KEY_HEX must be a valid hex string representing 32 bytes: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("AES_KEY_HEX must decode to 32 bytes (256 bits), got %d", len(key))
	}
	return key, nil
}
