package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment variable the engine recognizes
// (spec.md §6). It is constructed once at boot and passed explicitly to
// every component constructor — no package-level config singleton.
type Config struct {
	// Backends
	RedisURL         string
	NATSURL          string
	CentrifugoURL    string
	CentrifugoAPIKey string

	// Game/lock/scheduler timing
	GameExpiresIn time.Duration
	LockExpiresIn time.Duration

	// Logging
	LoggingLevel string
	LoggingMode  string

	// Process topology
	HealthPort      string
	WorkerPoolSize  int
	NATSStreamName  string
	CommandDeadline time.Duration
}

// lockMargin is how far LOCK_EXPIRES_IN's default is held above
// COMMAND_DEADLINE (spec.md §5: the lock TTL must "exceed the maximum
// expected processing time by an ample margin"). A command that commits
// right at its deadline must still find its own lock in place.
const lockMargin = 20 * time.Second

// Load reads environment variables, optionally seeded from a .env file,
// applying the same defaults-with-override pattern the teacher's
// getEnv/getEnvInt helpers use.
func Load() *Config {
	godotenv.Load()

	commandDeadline := getEnvDuration("COMMAND_DEADLINE", 10*time.Second)

	return &Config{
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		NATSURL:          getEnv("NATS_URL", "nats://localhost:4222"),
		CentrifugoURL:    getEnv("CENTRIFUGO_URL", "http://localhost:8000"),
		CentrifugoAPIKey: getEnv("CENTRIFUGO_API_KEY", ""),

		GameExpiresIn: getEnvDuration("GAME_MAPPER_GAME_EXPIRES_IN", time.Hour),
		LockExpiresIn: getEnvDuration("LOCK_EXPIRES_IN", commandDeadline+lockMargin),

		LoggingLevel: getEnv("LOGGING_LEVEL", "info"),
		LoggingMode:  getEnv("APP_ENV", "development"),

		HealthPort:      getEnv("HEALTH_PORT", "8081"),
		WorkerPoolSize:  getEnvInt("WORKER_POOL_SIZE", runtime.NumCPU()),
		NATSStreamName:  getEnv("NATS_STREAM_NAME", "games"),
		CommandDeadline: commandDeadline,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts either a Go duration string ("1h", "10s") or a
// bare number of seconds (spec.md §6: "seconds as float"), since
// LOCK_EXPIRES_IN is documented in seconds while
// GAME_MAPPER_GAME_EXPIRES_IN defaults to "1 h".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}
