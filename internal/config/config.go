// Package config loads the server configuration from the environment.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"

	"warehouse_flow_backend/internal/database"
	"warehouse_flow_backend/pkg/utils"
)

// Config is the full process configuration.
type Config struct {
	Port               string
	CORSAllowedOrigins []string
	LogLevel           string
	LogFormat          string

	Database database.Options

	RedisAddress  string
	RedisPassword string
	LockTTL       time.Duration

	UploadDir   string
	MaxUploadMB int

	JWTSecret     string
	JWTTTL        time.Duration
	AdminUsername string
	AdminPassword string

	MiR MiRConfig
}

// MiRConfig configures the robot client and the station missions.
type MiRConfig struct {
	DryRun            bool
	BaseURL           string
	User              string
	Password          string
	Timeout           time.Duration
	VerifyTLS         bool
	MissionPhoto      string
	MissionInspection string
	MissionPackaging  string
	MissionAfterStock string
}

// Load reads .env when present, then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		utils.LogDebug("No .env file loaded, using process environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() *Config {
	return &Config{
		Port:               utils.Getenv("PORT", "8080"),
		CORSAllowedOrigins: splitList(utils.Getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:           utils.Getenv("LOG_LEVEL", "info"),
		LogFormat:          utils.Getenv("LOG_FORMAT", "console"),

		Database: database.Options{
			Driver:      strings.ToLower(utils.Getenv("DB_DRIVER", database.DriverSQLite)),
			Host:        utils.Getenv("DB_HOST", "localhost"),
			Port:        utils.Getenv("DB_PORT", "5432"),
			User:        utils.Getenv("DB_USER", "postgres"),
			Password:    utils.Getenv("DB_PASSWORD", "postgres"),
			Name:        utils.Getenv("DB_NAME", "warehouse_flow"),
			SSLMode:     utils.Getenv("DB_SSLMODE", "disable"),
			SQLitePath:  utils.Getenv("SQLITE_PATH", "warehouse.db"),
			ApplySchema: utils.GetenvBool("DB_APPLY_SCHEMA", true),
		},

		RedisAddress:  utils.Getenv("REDIS_ADDRESS", ""),
		RedisPassword: utils.Getenv("REDIS_PASSWORD", ""),
		LockTTL:       utils.GetenvDuration("LOCK_TTL", 5*time.Second),

		UploadDir:   utils.Getenv("UPLOAD_DIR", "uploads"),
		MaxUploadMB: utils.GetenvInt("MAX_UPLOAD_MB", 20),

		JWTSecret:     utils.Getenv("JWT_SECRET", "change-me-in-production"),
		JWTTTL:        utils.GetenvDuration("JWT_TTL", 12*time.Hour),
		AdminUsername: utils.Getenv("ADMIN_USERNAME", "admin"),
		AdminPassword: utils.Getenv("ADMIN_PASSWORD", ""),

		MiR: MiRConfig{
			DryRun:            utils.GetenvBool("MIR_DRY_RUN", true),
			BaseURL:           utils.Getenv("MIR_BASE_URL", ""),
			User:              utils.Getenv("MIR_USER", ""),
			Password:          utils.Getenv("MIR_PASS", ""),
			Timeout:           utils.GetenvDuration("MIR_TIMEOUT", 8*time.Second),
			VerifyTLS:         utils.GetenvBool("MIR_VERIFY_TLS", false),
			MissionPhoto:      utils.Getenv("MIR_MISSION_PHOTO", ""),
			MissionInspection: utils.Getenv("MIR_MISSION_INSPECTION", ""),
			MissionPackaging:  utils.Getenv("MIR_MISSION_EMBALLAGE", ""),
			MissionAfterStock: utils.Getenv("MIR_MISSION_AFTER_STOCK", ""),
		},
	}
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
