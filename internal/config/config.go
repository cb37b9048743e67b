package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	DiscordToken string
	BotOwnerID   string

	StorageDriver string
	BotDataPath   string
	DatabaseURL   string

	MonitorIntervalSeconds      int
	CycleTimeoutSeconds         int
	QueryTimeoutSeconds         int
	StatusUpdateIntervalMinutes int
	HealthFlushSeconds          int
	DiscordRatePerSecond        int

	DisplayHost string

	LogLevel  string
	LogFormat string
)

// ErrMissingToken is returned by Validate when no bot token is configured.
var ErrMissingToken = errors.New("DISCORD_TOKEN is not set")

// Load reads an optional .env file and populates the package settings from
// the environment.
func Load() {
	// A missing .env is normal in containers.
	_ = godotenv.Load()

	DiscordToken = os.Getenv("DISCORD_TOKEN")
	BotOwnerID = os.Getenv("BOT_OWNER_ID")

	StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", "file"))
	BotDataPath = getEnv("BOT_DATA_PATH", "bot_data.json")
	DatabaseURL = os.Getenv("DATABASE_URL")

	MonitorIntervalSeconds = getEnvInt("MONITOR_INTERVAL_SECONDS", 300)
	CycleTimeoutSeconds = getEnvInt("CYCLE_TIMEOUT_SECONDS", 60)
	QueryTimeoutSeconds = getEnvInt("QUERY_TIMEOUT_SECONDS", 5)
	StatusUpdateIntervalMinutes = getEnvInt("STATUS_UPDATE_INTERVAL_MINUTES", 15)
	HealthFlushSeconds = getEnvInt("HEALTH_FLUSH_SECONDS", 600)
	DiscordRatePerSecond = getEnvInt("DISCORD_RATE_PER_SECOND", 5)

	DisplayHost = os.Getenv("DISPLAY_HOST")

	LogLevel = getEnv("LOG_LEVEL", "info")
	LogFormat = getEnv("LOG_FORMAT", "json")
}

func Validate() error {
	if DiscordToken == "" {
		return ErrMissingToken
	}
	return nil
}

// GetDatabaseConnectionString returns the DSN for the configured storage
// driver. File-backed drivers fall back to BotDataPath.
func GetDatabaseConnectionString() string {
	switch StorageDriver {
	case "postgres":
		return DatabaseURL
	case "sqlite", "sqlite3":
		if DatabaseURL != "" {
			return DatabaseURL
		}
		return strings.TrimSuffix(BotDataPath, ".json") + ".db"
	default:
		return BotDataPath
	}
}

func MonitorInterval() time.Duration {
	return time.Duration(MonitorIntervalSeconds) * time.Second
}

func CycleTimeout() time.Duration {
	return time.Duration(CycleTimeoutSeconds) * time.Second
}

func QueryTimeout() time.Duration {
	return time.Duration(QueryTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
