package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0 8 * * *", cfg.Digest.CronSchedule)
	assert.Equal(t, 600*time.Millisecond, cfg.Digest.SendDelay)
	assert.Equal(t, 2, cfg.Digest.MinScore)
	assert.Equal(t, 5, cfg.Digest.MaxEvents)
	assert.Equal(t, "Portfolio Coffee Mate <noreply@example.com>", cfg.Email.From)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.OpenAI.Model)
	assert.Equal(t, []string{"console"}, cfg.Email.GetEnabledSenders())
	assert.Equal(t, "integrations: none", cfg.String())
}

func TestLoad_ProviderKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")
	t.Setenv("RESEND_API_KEY", "re-test")
	t.Setenv("SEND_DELAY", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.AI.OpenAI.APIKey)
	assert.Equal(t, "ak-test", cfg.AI.Claude.APIKey)
	assert.Equal(t, []string{"openai", "claude"}, cfg.AI.GetEnabledAIProviders())
	assert.Equal(t, []string{"resend", "console"}, cfg.Email.GetEnabledSenders())
	assert.Equal(t, time.Second, cfg.Digest.SendDelay)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad timezone", map[string]string{"DEFAULT_TIMEZONE": "Mars/Olympus"}},
		{"provider without key", map[string]string{"NARRATIVE_PROVIDER": "gemini"}},
		{"unknown provider", map[string]string{"NARRATIVE_PROVIDER": "llama"}},
		{"min score out of range", map[string]string{"MIN_SCORE": "11"}},
		{"telegram token without chat", map[string]string{"TELEGRAM_BOT_TOKEN": "123:abc"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}},
		{"bad cron schedule", map[string]string{"CRON_SCHEDULE": "every morning"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "digest", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=digest sslmode=disable", c.GetDSN())
	assert.Equal(t, "postgres://u:p@db:5432/digest?sslmode=disable", c.MigrationURL())

	c.URL = "postgres://x/y"
	assert.Equal(t, "postgres://x/y", c.GetDSN())
}
