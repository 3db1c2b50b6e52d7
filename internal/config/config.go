package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Loans
		Reminders
		Mail
		Assistant
		Audit
		Tasks
	}

	HTTP struct {
		Port           int32
		Host           string
		APIPrefix      string
		AllowedOrigins []string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Driver     DatabaseDriver
		Path       string // sqlite file
		URL        string // postgres DSN
		LogQueries bool
	}

	Loans struct {
		DefaultLoanDays int
	}

	Reminders struct {
		Enabled           bool
		Hour              int // UTC
		Minute            int // UTC
		DueSoonWindowDays int
		UseQueue          bool // enqueue one task per reminder instead of sending inline
	}

	Mail struct {
		Username string
		Password string
		From     string
		FromName string
		Port     int
		Server   string
		StartTLS bool
		SSLTLS   bool
	}

	Assistant struct {
		GeminiAPIKey     string
		Model            string
		BaseURL          string
		RequestTimeout   time.Duration
		MaxTurns         int
		ScopeCheck       bool
		ConversationTTL  time.Duration
		MaxConversations int
		RateLimit        int
		RateWindow       time.Duration
	}

	Audit struct {
		RetentionDays int
	}

	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

// Configured reports whether enough settings are present to talk to an SMTP server.
func (m Mail) Configured() bool {
	return m.Server != "" && m.From != ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func NewConfig() *Config {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("api_prefix", "/api/v1")
	v.SetDefault("cors_allowed_origins", "http://localhost:5173")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("database_driver", string(DriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_url", "")
	v.SetDefault("database_log_queries", false)

	v.SetDefault("default_loan_days", 14)

	// Reminder defaults
	v.SetDefault("reminders_enabled", true)
	v.SetDefault("reminder_job_hour", 9)
	v.SetDefault("reminder_job_minute", 0)
	v.SetDefault("due_soon_window_days", 5)
	v.SetDefault("reminders_use_queue", true)

	// Mail defaults
	v.SetDefault("mail_from_name", "College Library")
	v.SetDefault("mail_port", 587)
	v.SetDefault("mail_starttls", true)
	v.SetDefault("mail_ssl_tls", false)

	// Assistant defaults
	v.SetDefault("gemini_model", DefaultGeminiModel)
	v.SetDefault("gemini_base_url", DefaultGeminiBaseURL)
	v.SetDefault("gemini_request_timeout", "60s")
	v.SetDefault("assistant_max_turns", 5)
	v.SetDefault("assistant_scope_check", true)
	v.SetDefault("assistant_conversation_ttl", "30m")
	v.SetDefault("assistant_max_conversations", 1000)
	v.SetDefault("assistant_rate_limit", 20)
	v.SetDefault("assistant_rate_window", "1m")

	v.SetDefault("audit_retention_days", 90)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "2m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port:           v.GetInt32("PORT"),
			Host:           v.GetString("HOST"),
			APIPrefix:      v.GetString("API_PREFIX"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver:     DatabaseDriver(strings.ToLower(v.GetString("DATABASE_DRIVER"))),
			Path:       v.GetString("DATABASE_PATH"),
			URL:        v.GetString("DATABASE_URL"),
			LogQueries: v.GetBool("DATABASE_LOG_QUERIES"),
		},
		Loans: Loans{
			DefaultLoanDays: v.GetInt("DEFAULT_LOAN_DAYS"),
		},
		Reminders: Reminders{
			Enabled:           v.GetBool("REMINDERS_ENABLED"),
			Hour:              v.GetInt("REMINDER_JOB_HOUR"),
			Minute:            v.GetInt("REMINDER_JOB_MINUTE"),
			DueSoonWindowDays: v.GetInt("DUE_SOON_WINDOW_DAYS"),
			UseQueue:          v.GetBool("REMINDERS_USE_QUEUE"),
		},
		Mail: Mail{
			Username: v.GetString("MAIL_USERNAME"),
			Password: v.GetString("MAIL_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
			FromName: v.GetString("MAIL_FROM_NAME"),
			Port:     v.GetInt("MAIL_PORT"),
			Server:   v.GetString("MAIL_SERVER"),
			StartTLS: v.GetBool("MAIL_STARTTLS"),
			SSLTLS:   v.GetBool("MAIL_SSL_TLS"),
		},
		Assistant: Assistant{
			GeminiAPIKey:     v.GetString("GEMINI_API_KEY"),
			Model:            v.GetString("GEMINI_MODEL"),
			BaseURL:          v.GetString("GEMINI_BASE_URL"),
			RequestTimeout:   v.GetDuration("GEMINI_REQUEST_TIMEOUT"),
			MaxTurns:         v.GetInt("ASSISTANT_MAX_TURNS"),
			ScopeCheck:       v.GetBool("ASSISTANT_SCOPE_CHECK"),
			ConversationTTL:  v.GetDuration("ASSISTANT_CONVERSATION_TTL"),
			MaxConversations: v.GetInt("ASSISTANT_MAX_CONVERSATIONS"),
			RateLimit:        v.GetInt("ASSISTANT_RATE_LIMIT"),
			RateWindow:       v.GetDuration("ASSISTANT_RATE_WINDOW"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}
