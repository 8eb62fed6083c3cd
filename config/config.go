package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	AWS      AWSConfig
	Google   GoogleConfig
	Spotify  SpotifyConfig
	Voting   VotingConfig
	External ExternalConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds session token signing settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and the profile picture bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ProfileBucket        string
	PresignExpireMinutes int
}

// GoogleConfig holds the Maps Platform key and endpoints (overridable for tests).
type GoogleConfig struct {
	MapsAPIKey   string
	RoutesURL    string
	PlacesURL    string
}

// SpotifyConfig holds client-credentials settings.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// VotingConfig controls proposal lifetime and the expiry sweeper.
type VotingConfig struct {
	ProposalTTL    time.Duration
	SweepInterval  time.Duration
	SweeperEnabled bool
}

// ExternalConfig bounds calls to third-party APIs.
type ExternalConfig struct {
	Timeout time.Duration
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "4000"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASS", "postgres"),
			DBName:   getEnv("DB_NAME", "pitstop"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24*7),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ProfileBucket:        getEnv("AWS_S3_PROFILE_BUCKET", "pitstop-profile-pics"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 60),
		},
		Google: GoogleConfig{
			MapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
			RoutesURL:  getEnv("GOOGLE_ROUTES_URL", "https://routes.googleapis.com/directions/v2:computeRoutes"),
			PlacesURL:  getEnv("GOOGLE_PLACES_URL", "https://places.googleapis.com/v1/places:searchText"),
		},
		Spotify: SpotifyConfig{
			ClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
			ClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
			TokenURL:     getEnv("SPOTIFY_TOKEN_URL", "https://accounts.spotify.com/api/token"),
		},
		Voting: VotingConfig{
			ProposalTTL:    time.Duration(getEnvInt("PROPOSAL_TTL_HOURS", 72)) * time.Hour,
			SweepInterval:  time.Duration(getEnvInt("SWEEP_INTERVAL_MINUTES", 10)) * time.Minute,
			SweeperEnabled: getEnvBool("SWEEPER_ENABLED", true),
		},
		External: ExternalConfig{
			Timeout: time.Duration(getEnvInt("EXTERNAL_API_TIMEOUT_SEC", 10)) * time.Second,
		},
	}
	if cfg.Voting.ProposalTTL <= 0 {
		return nil, fmt.Errorf("PROPOSAL_TTL_HOURS must be positive")
	}
	if cfg.Voting.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL_MINUTES must be positive")
	}
	return cfg, nil
}

// AllowedOrigins splits CORSAllowedOrigins into the list the CORS middleware accepts.
func (c ServerConfig) AllowedOrigins() []string {
	return splitTrim(c.CORSAllowedOrigins, ",")
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
