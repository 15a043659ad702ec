package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Store    StoreConfig
	Server   ServerConfig
	Auth     AuthConfig
	Security SecurityConfig
	Email    EmailConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type StoreConfig struct {
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	DialTimeout time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
}

type AuthConfig struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	CleanupInterval    time.Duration
}

// SecurityConfig carries every knob of the ephemeral security state machine.
type SecurityConfig struct {
	// Progressive lockout for password login
	FailedAttemptWindow time.Duration

	// OTP lifecycle, shared shape for signup and login namespaces
	OTPCodeLength        int
	OTPExpiry            time.Duration
	OTPCooldown          time.Duration
	OTPMaxResends        int64
	OTPResendWindow      time.Duration
	OTPMaxFailedAttempts int64
	OTPLockoutDuration   time.Duration

	// Magic link
	MagicLinkTokenBytes int
	MagicLinkExpiry     time.Duration
	MagicLinkCooldown   time.Duration

	// Signup session
	SignupSessionTokenBytes int
	SignupSessionExpiry     time.Duration

	// Account unlock
	UnlockCooldown     time.Duration
	UnlockMaxPerWindow int64
	UnlockRateWindow   time.Duration
	TempPasswordLength int
	TempPasswordTTL    time.Duration

	// Anti-enumeration timing delay on login failures
	TimingDelayBaseMs   int
	TimingDelayRandomMs int
}

type EmailConfig struct {
	AWSRegion   string
	FromAddress string
	LinkBaseURL string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "auth"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Store: StoreConfig{
			Addr:        getEnv("REDIS_ADDR", "localhost:6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			KeyPrefix:   getEnv("REDIS_KEY_PREFIX", "auth"),
			DialTimeout: getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: parseCommaList(getEnv("TRUSTED_PROXIES", "")),
		},
		Auth: AuthConfig{
			JWTSecret:          jwtSecret,
			AccessTokenExpiry:  getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry: getEnvAsDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
			CleanupInterval:    getEnvAsDuration("HISTORY_CLEANUP_INTERVAL", 1*time.Hour),
		},
		Security: SecurityConfig{
			FailedAttemptWindow: getEnvAsDuration("FAILED_ATTEMPT_WINDOW", 30*time.Minute),

			OTPCodeLength:        getEnvAsInt("OTP_CODE_LENGTH", 6),
			OTPExpiry:            getEnvAsDuration("OTP_EXPIRY", 10*time.Minute),
			OTPCooldown:          getEnvAsDuration("OTP_COOLDOWN", 60*time.Second),
			OTPMaxResends:        int64(getEnvAsInt("OTP_MAX_RESENDS", 5)),
			OTPResendWindow:      getEnvAsDuration("OTP_RESEND_WINDOW", 1*time.Hour),
			OTPMaxFailedAttempts: int64(getEnvAsInt("OTP_MAX_FAILED_ATTEMPTS", 5)),
			OTPLockoutDuration:   getEnvAsDuration("OTP_LOCKOUT_DURATION", 15*time.Minute),

			MagicLinkTokenBytes: getEnvAsInt("MAGIC_LINK_TOKEN_BYTES", 32),
			MagicLinkExpiry:     getEnvAsDuration("MAGIC_LINK_EXPIRY", 15*time.Minute),
			MagicLinkCooldown:   getEnvAsDuration("MAGIC_LINK_COOLDOWN", 60*time.Second),

			SignupSessionTokenBytes: getEnvAsInt("SIGNUP_SESSION_TOKEN_BYTES", 32),
			SignupSessionExpiry:     getEnvAsDuration("SIGNUP_SESSION_EXPIRY", 10*time.Minute),

			UnlockCooldown:     getEnvAsDuration("UNLOCK_COOLDOWN", 60*time.Second),
			UnlockMaxPerWindow: int64(getEnvAsInt("UNLOCK_MAX_PER_WINDOW", 3)),
			UnlockRateWindow:   getEnvAsDuration("UNLOCK_RATE_WINDOW", 1*time.Hour),
			TempPasswordLength: getEnvAsInt("TEMP_PASSWORD_LENGTH", 16),
			TempPasswordTTL:    getEnvAsDuration("TEMP_PASSWORD_TTL", 15*time.Minute),

			TimingDelayBaseMs:   getEnvAsInt("TIMING_DELAY_BASE_MS", 100),
			TimingDelayRandomMs: getEnvAsInt("TIMING_DELAY_RANDOM_MS", 100),
		},
		Email: EmailConfig{
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "no-reply@localhost"),
			LinkBaseURL: getEnv("EMAIL_LINK_BASE_URL", "http://localhost:3000"),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if err := validateSecurity(&cfg.Security); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // 256 bits
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func validateSecurity(s *SecurityConfig) error {
	if s.OTPCodeLength < 4 || s.OTPCodeLength > 10 {
		return fmt.Errorf("OTP_CODE_LENGTH must be between 4 and 10")
	}
	if s.OTPMaxFailedAttempts < 1 {
		return fmt.Errorf("OTP_MAX_FAILED_ATTEMPTS must be at least 1")
	}
	if s.TempPasswordLength < 12 {
		return fmt.Errorf("TEMP_PASSWORD_LENGTH must be at least 12")
	}
	if s.UnlockMaxPerWindow < 1 {
		return fmt.Errorf("UNLOCK_MAX_PER_WINDOW must be at least 1")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseCommaList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{} // Default to no origins in production
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
