package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/capsule")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, 60*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.StartingCredits)
	assert.Equal(t, 30, cfg.FreeTierItemLimit)
	assert.Equal(t, 5*time.Minute, cfg.InventoryTTL)
	assert.Zero(t, cfg.ResetInterval)
	assert.False(t, cfg.TryOnEnabled())
	assert.Empty(t, cfg.GarmentImageHosts())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, ,https://b.test")
	t.Setenv("STARTING_CREDITS", "5")
	t.Setenv("RESET_INTERVAL_MINUTES", "60")
	t.Setenv("JWT_TTL_MINUTES", "abc")
	t.Setenv("GEMINI_API_KEY", "g")
	t.Setenv("S3_BUCKET", "tryons")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("GARMENT_IMAGE_HOSTS", "cdn.example.com, Images.Example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 5, cfg.StartingCredits)
	assert.Equal(t, time.Hour, cfg.ResetInterval)
	assert.Equal(t, 60*time.Minute, cfg.JWTTTL)
	assert.True(t, cfg.TryOnEnabled())
	assert.Equal(t, []string{
		"tryons.s3.eu-west-1.amazonaws.com",
		"tryons.s3.amazonaws.com",
		"cdn.example.com",
		"images.example.com",
	}, cfg.GarmentImageHosts())
}

func TestLoadRequiresSecrets(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}
