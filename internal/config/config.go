package config

import (
	"errors"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port        string
	AppEnv      string
	CORSOrigins string
	LogLevel    string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Session
	SessionSecret string
	SessionTTL    time.Duration
	SessionIssuer string
	CookieName    string
	CookieSecure  bool

	// Roles
	SuperAdminEmail string
	AdminEmails     []string

	// Password hashing
	BcryptCost      int
	HashConcurrency int

	// Abuse protection
	LoginAttemptsPerMinute  int
	RecoveryAttemptsPerHour int
	RecoveryRevealUnknown   bool
	APIRateLimitPerMinute   int
	AuthRateLimitPerMinute  int

	// Profile validation
	DefaultPhoneRegion string

	// Outbound mail
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	SentryDSN string
}

func Load() *Config {
	appEnv := getEnv("APP_ENV", "development")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		AppEnv:      appEnv,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "storefront"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    parseDuration(getEnv("SESSION_TTL", "168h"), 7*24*time.Hour),
		SessionIssuer: getEnv("SESSION_ISSUER", "storefront"),
		CookieName:    getEnv("COOKIE_NAME", "storefront_session"),
		CookieSecure:  parseBool(getEnv("COOKIE_SECURE", ""), appEnv == "production"),

		SuperAdminEmail: NormalizeEmail(getEnv("SUPER_ADMIN_EMAIL", "")),
		AdminEmails:     parseEmailList(getEnv("ADMIN_EMAILS", "")),

		BcryptCost:      parseInt(getEnv("BCRYPT_COST", ""), 10),
		HashConcurrency: parseInt(getEnv("HASH_CONCURRENCY", ""), runtime.NumCPU()),

		LoginAttemptsPerMinute:  parseInt(getEnv("LOGIN_ATTEMPTS_PER_MINUTE", ""), 5),
		RecoveryAttemptsPerHour: parseInt(getEnv("RECOVERY_ATTEMPTS_PER_HOUR", ""), 3),
		RecoveryRevealUnknown:   parseBool(getEnv("RECOVERY_REVEAL_UNKNOWN", ""), false),
		APIRateLimitPerMinute:   parseInt(getEnv("API_RATE_LIMIT_PER_MINUTE", ""), 60),
		AuthRateLimitPerMinute:  parseInt(getEnv("AUTH_RATE_LIMIT_PER_MINUTE", ""), 10),

		DefaultPhoneRegion: strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "US")),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),

		SentryDSN: getEnv("SENTRY_DSN", ""),
	}
}

// Validate reports configuration that would leave the service insecure or
// unable to start.
func (c *Config) Validate() error {
	var errs []error
	if len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.SuperAdminEmail == "" {
		errs = append(errs, errors.New("SUPER_ADMIN_EMAIL is required"))
	}
	switch c.DBDriver {
	case "postgres":
		if c.DBPassword == "" {
			errs = append(errs, errors.New("DB_PASSWORD is required for the postgres driver"))
		}
	case "memory":
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_DRIVER=memory is not allowed in production"))
		}
	default:
		errs = append(errs, errors.New("DB_DRIVER must be postgres or memory"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, errors.New("BCRYPT_COST must be between 4 and 31"))
	}
	if c.HashConcurrency < 1 {
		errs = append(errs, errors.New("HASH_CONCURRENCY must be at least 1"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// NormalizeEmail is the canonical form used for every stored or compared
// email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}

func parseEmailList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if email := NormalizeEmail(p); email != "" {
			result = append(result, email)
		}
	}
	return result
}
