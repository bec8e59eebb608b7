package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPAddr string
	LogLevel logrus.Level

	DatabaseDriver string
	DatabaseURL    string

	JWTSecret string
	JWTTTL    time.Duration

	// WorkDay is the number of hours in one full working day.
	WorkDay           int
	DefaultDateFormat string

	EmailSubject      string
	EmailSubjectEdit  string
	EmailSignature    string
	FallbackToAddress string
	EmailBlacklist    []string
	HRManagers        []string

	SMTP  SMTPConfig
	LDAP  LDAPConfig
	Cache CacheConfig

	TelegramToken    string
	TelegramHRChatID int64

	CalendarMinionDepth int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type LDAPConfig struct {
	URL            string
	BindDN         string
	BindPassword   string
	BaseDN         string
	UserDNTemplate string
	StartTLS       bool
}

// Enabled reports whether a directory server is configured.
func (c LDAPConfig) Enabled() bool {
	return c.URL != ""
}

type CacheConfig struct {
	RedisURL string
	Size     int
	HitTTL   time.Duration
	MissTTL  time.Duration
}

var instance *Config
var once sync.Once

// GetConfig loads the configuration once and exits the process if it is
// unusable.
func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Warnf("no .env file loaded: %s", err.Error())
		}

		cfg, err := Load()
		if err != nil {
			logrus.Fatalf("invalid configuration: %s", err.Error())
		}
		instance = cfg
	})

	return instance
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		LogLevel:          level,
		HTTPAddr:          getEnv("HTTP_ADDR", ":8000"),
		DatabaseDriver:    strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:       getEnv("DATABASE_URL", "pto.db"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTTTL:            time.Duration(getEnvAsInt("JWT_TTL_HOURS", 72)) * time.Hour,
		WorkDay:           int(getEnvAsInt("WORK_DAY", 8)),
		DefaultDateFormat: getEnv("DEFAULT_DATE_FORMAT", "Monday, January 02, 2006"),
		EmailSubject:      getEnv("EMAIL_SUBJECT", "PTO notification from {{.FirstName}} {{.LastName}}"),
		EmailSubjectEdit:  getEnv("EMAIL_SUBJECT_EDIT", "PTO update from {{.FirstName}} {{.LastName}}"),
		EmailSignature:    getEnv("EMAIL_SIGNATURE", "The PTO cruncher"),
		FallbackToAddress: getEnv("FALLBACK_TO_ADDRESS", ""),
		EmailBlacklist:    lower(getEnvAsList("EMAIL_BLACKLIST", nil)),
		HRManagers:        getEnvAsList("HR_MANAGERS", nil),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     int(getEnvAsInt("SMTP_PORT", 25)),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
		},
		LDAP: LDAPConfig{
			URL:            getEnv("LDAP_URL", ""),
			BindDN:         getEnv("LDAP_BIND_DN", ""),
			BindPassword:   getEnv("LDAP_BIND_PASSWORD", ""),
			BaseDN:         getEnv("LDAP_BASE_DN", "dc=mozilla"),
			UserDNTemplate: getEnv("LDAP_USER_DN_TEMPLATE", "mail=%s,o=com,dc=mozilla"),
			StartTLS:       getEnvAsBool("LDAP_START_TLS", true),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			Size:     int(getEnvAsInt("CACHE_SIZE", 1024)),
			HitTTL:   time.Duration(getEnvAsInt("CACHE_HIT_TTL_SECONDS", 60*60)) * time.Second,
			MissTTL:  time.Duration(getEnvAsInt("CACHE_MISS_TTL_SECONDS", 60)) * time.Second,
		},
		TelegramToken:       getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramHRChatID:    getEnvAsInt("TELEGRAM_HR_CHAT_ID", 0),
		CalendarMinionDepth: int(getEnvAsInt("CALENDAR_MINION_DEPTH", 2)),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.WorkDay <= 0 {
		return fmt.Errorf("WORK_DAY must be positive, got %d", c.WorkDay)
	}
	if c.TelegramToken != "" && c.TelegramHRChatID == 0 {
		logrus.Warn("TELEGRAM_HR_CHAT_ID not set, HR chat notifications disabled")
	}
	return nil
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(strings.TrimSpace(valStr), 10, 64); err == nil {
		return val
	}

	return defaultVal
}

// getEnvAsList splits a comma or semicolon separated value.
func getEnvAsList(name string, defaultVal []string) []string {
	valStr := getEnv(name, "")
	if strings.TrimSpace(valStr) == "" {
		return defaultVal
	}

	var list []string
	for _, item := range strings.FieldsFunc(valStr, func(r rune) bool { return r == ',' || r == ';' }) {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func lower(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.ToLower(item))
	}
	return out
}
