package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration for the evaluation services.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	EvaluationURL    string
	DispatchTimeout  time.Duration
	AwaitTimeout     time.Duration
	PollInterval     time.Duration
	BrowserTimeout   time.Duration
	AuditLogCapacity int
	OpenAIAPIKey     string
	AIModel          string
	GitHubToken      string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and an optional
// .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EVAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Deploy Eval")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8001")
	v.SetDefault("database.url", "evaluation_data.db")
	v.SetDefault("evaluation.url", "http://localhost:8001/notify")
	v.SetDefault("dispatch.timeout", "30s")
	v.SetDefault("await.timeout", "10m")
	v.SetDefault("poll.interval", "30s")
	v.SetDefault("browser.timeout", "30s")
	v.SetDefault("audit.capacity", 1024)
	v.SetDefault("ai.model", "gpt-4o-mini")

	dispatchTimeout, err := parseDuration(v, "dispatch.timeout")
	if err != nil {
		return Config{}, err
	}
	awaitTimeout, err := parseDuration(v, "await.timeout")
	if err != nil {
		return Config{}, err
	}
	pollInterval, err := parseDuration(v, "poll.interval")
	if err != nil {
		return Config{}, err
	}
	browserTimeout, err := parseDuration(v, "browser.timeout")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		EvaluationURL:    v.GetString("evaluation.url"),
		DispatchTimeout:  dispatchTimeout,
		AwaitTimeout:     awaitTimeout,
		PollInterval:     pollInterval,
		BrowserTimeout:   browserTimeout,
		AuditLogCapacity: v.GetInt("audit.capacity"),
		OpenAIAPIKey:     v.GetString("openai_api_key"),
		AIModel:          v.GetString("ai.model"),
		GitHubToken:      v.GetString("github_token"),
	}

	if cfg.AuditLogCapacity <= 0 {
		cfg.AuditLogCapacity = 1024
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
