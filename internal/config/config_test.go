package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api/v1", cfg.APIURL)
	assert.Equal(t, "reviews.db", cfg.ConnectionString)
	assert.Equal(t, "reviews", cfg.DBName)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "public/uploads", cfg.UploadDir)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.Backend())
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SECRET", "x")
	t.Setenv("PORT", "8080")
	t.Setenv("CONNECTION_STRING", "mongodb://localhost:27017")
	t.Setenv("TOKEN_TTL", "90m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "mongo", cfg.Backend())
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "PORT", "70000"},
		{"relative api url", "API_URL", "api"},
		{"admin email without password", "ADMIN_EMAIL", "root@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SECRET", "x")
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestIsMongoURI(t *testing.T) {
	assert.True(t, IsMongoURI("mongodb://localhost"))
	assert.True(t, IsMongoURI("mongodb+srv://cluster.example.net"))
	assert.False(t, IsMongoURI(":memory:"))
	assert.False(t, IsMongoURI("file:reviews.db?cache=shared"))
}

func TestOrigins(t *testing.T) {
	assert.Equal(t, "*", Config{}.Origins())
	assert.Equal(t, "https://a.example,https://b.example",
		Config{CORSOrigins: " https://a.example , ,https://b.example"}.Origins())
}
