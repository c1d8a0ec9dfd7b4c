package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=bank_ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultHTTPAddr = ":8080"
const defaultChannelID = "BankSim"
const defaultChannelKey = "BankSimKey001"

type Config struct {
	DatabaseDSN     string
	MigrationsDir   string
	HTTPAddr        string
	ChannelID       string
	ChannelKey      string
	LogLevel        string
	LogFormat       string
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	ShutdownTimeout time.Duration
	Metrics         MetricsConfig
	SMTP            SMTPConfig
	Notify          NotifyConfig
}

type MetricsConfig struct {
	Namespace string
}

type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Port != "" && c.FromEmail != ""
}

type NotifyConfig struct {
	QueueSize   int
	Workers     int
	EnqueueWait time.Duration
	SendTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; variables already set win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	conn := getEnv("DATABASE_DSN", defaultConnectionString)

	maxOpen, err := getEnvInt("DB_MAX_OPEN_CONNS", 30)
	if err != nil {
		return Config{}, err
	}
	maxIdle, err := getEnvInt("DB_MAX_IDLE_CONNS", 20)
	if err != nil {
		return Config{}, err
	}
	queueSize, err := getEnvInt("NOTIFY_QUEUE_SIZE", 256)
	if err != nil {
		return Config{}, err
	}
	workers, err := getEnvInt("NOTIFY_WORKERS", 2)
	if err != nil {
		return Config{}, err
	}
	enqueueWait, err := getEnvDuration("NOTIFY_ENQUEUE_WAIT", 10*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	sendTimeout, err := getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	shutdownTimeout, err := getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}

	return Config{
		DatabaseDSN:     normalizeConnectionString(conn),
		MigrationsDir:   getEnv("MIGRATIONS_DIR", filepath.Join("src", "migrations")),
		HTTPAddr:        getEnv("HTTP_ADDR", defaultHTTPAddr),
		ChannelID:       getEnv("CHANNEL_ID", defaultChannelID),
		ChannelKey:      getEnv("CHANNEL_KEY", defaultChannelKey),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		DBMaxOpenConns:  maxOpen,
		DBMaxIdleConns:  maxIdle,
		ShutdownTimeout: shutdownTimeout,
		Metrics: MetricsConfig{
			Namespace: getEnv("METRICS_NAMESPACE", "bank_ledger"),
		},
		SMTP: SMTPConfig{
			Host:      getEnv("SMTP_HOST", ""),
			Port:      getEnv("SMTP_PORT", "587"),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			FromEmail: getEnv("MAIL_FROM_EMAIL", ""),
			FromName:  getEnv("MAIL_FROM_NAME", "Bank Alerts"),
		},
		Notify: NotifyConfig{
			QueueSize:   queueSize,
			Workers:     workers,
			EnqueueWait: enqueueWait,
			SendTimeout: sendTimeout,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return v, nil
}

func normalizeConnectionString(raw string) string {
	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
		return raw
	}

	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
