package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("review:\n  tier_multiplier: 2.0\n"), 0o644))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("GC_STORAGE_BACKEND", "local")
	t.Setenv("GC_MULTIPLIER_DURATION", "12h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2.0, cfg.Review.TierMultiplier)
	assert.Equal(t, 2, cfg.Review.ApproveThreshold)
	assert.Equal(t, 2, cfg.Review.RejectThreshold)
	assert.Equal(t, 1.2, cfg.Multiplier.QuizBonus)
	assert.Equal(t, 12*time.Hour, cfg.Multiplier.Duration)
	assert.Zero(t, cfg.Multiplier.PurgeInterval)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Similarity.Backend)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database:   DatabaseConfig{Driver: "postgres"},
			Storage:    StorageConfig{Backend: "s3", S3: S3Config{Bucket: "evidence"}},
			Similarity: SimilarityConfig{Backend: "redis"},
			Review:     ReviewConfig{ApproveThreshold: 2, RejectThreshold: 2},
			JWT:        JWTConfig{Secret: "x"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"driver":     func(c *Config) { c.Database.Driver = "mysql" },
		"s3 bucket":  func(c *Config) { c.Storage.S3.Bucket = "" },
		"storage":    func(c *Config) { c.Storage.Backend = "ftp" },
		"similarity": func(c *Config) { c.Similarity.Backend = "pinecone" },
		"threshold":  func(c *Config) { c.Review.RejectThreshold = 0 },
		"jwt":        func(c *Config) { c.JWT.Secret = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
