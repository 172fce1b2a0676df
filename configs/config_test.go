package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("CONTENT_MAX_RETRIES", "")
	t.Setenv("SCHEDULER_TICK", "")

	cfg := LoadConfig()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "gpt-4-turbo-preview", cfg.OpenAI.Model)
	assert.Equal(t, 2000, cfg.OpenAI.MaxTokens)
	assert.Equal(t, 3, cfg.Content.MaxRetries)
	assert.Equal(t, time.Second, cfg.Content.RetryDelay)
	assert.Equal(t, 30*time.Second, cfg.Content.Timeout)
	assert.Equal(t, time.Minute, cfg.SchedulerTick)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("CONTENT_MAX_RETRIES", "5")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("SCHEDULER_TICK", "30s")
	t.Setenv("PLATFORM_POST_TIMEOUT", "not-a-duration")

	cfg := LoadConfig()

	assert.Equal(t, 5, cfg.Content.MaxRetries)
	assert.InDelta(t, 0.2, cfg.OpenAI.Temperature, 0.0001)
	assert.Equal(t, 30*time.Second, cfg.SchedulerTick)
	assert.Equal(t, 2*time.Minute, cfg.PlatformPostTimeout)
}
