package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APPROVAL_TOKEN_TTL", "")
	t.Setenv("KAFKA_BROKERS", "")

	LoadConfig()

	assert.Equal(t, "3000", AppConfig.Port)
	assert.Equal(t, 7*24*time.Hour, AppConfig.ApprovalTokenTTL)
	assert.Equal(t, 24*time.Hour, AppConfig.ExportTokenTTL)
	assert.Nil(t, AppConfig.KafkaBrokers)
	assert.False(t, AppConfig.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("APPROVAL_TOKEN_TTL", "48h")
	t.Setenv("SALT_ROUND", "not-a-number")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("PUBLIC_BASE_URL", "https://hr.example.com/")

	LoadConfig()

	assert.Equal(t, "8080", AppConfig.Port)
	assert.True(t, AppConfig.IsProduction())
	assert.Equal(t, 48*time.Hour, AppConfig.ApprovalTokenTTL)
	assert.Equal(t, 10, AppConfig.SaltRound)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, AppConfig.KafkaBrokers)
	assert.Equal(t, "https://hr.example.com", AppConfig.PublicBaseURL)
}
