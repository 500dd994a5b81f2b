package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnParams_PoolConfig(t *testing.T) {
	params := ConnParams{
		Host:     "db.example.com",
		Port:     5432,
		Database: "claims",
		User:     "svc@example.com",
		SSLMode:  "disable",
		AppName:  "claimsdash",
	}

	cfg, err := params.poolConfig("secret")

	require.NoError(t, err)
	assert.Equal(t, "db.example.com", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(5432), cfg.ConnConfig.Port)
	assert.Equal(t, "claims", cfg.ConnConfig.Database)
	assert.Equal(t, "svc@example.com", cfg.ConnConfig.User)
	assert.Equal(t, "secret", cfg.ConnConfig.Password)
	assert.Nil(t, cfg.ConnConfig.TLSConfig, "sslmode=disable must not configure TLS")
	assert.Equal(t, "claimsdash", cfg.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, int32(MinConns), cfg.MinConns)
	assert.Equal(t, int32(MaxConns), cfg.MaxConns)
	assert.NotContains(t, cfg.ConnString(), "secret", "the password is never part of the connection string")
}

func TestConnParams_DefaultSSLModeRequiresTLS(t *testing.T) {
	params := ConnParams{Host: "db.example.com", Port: 5432, Database: "claims", User: "svc"}

	cfg, err := params.poolConfig("secret")

	require.NoError(t, err)
	assert.NotNil(t, cfg.ConnConfig.TLSConfig)
	assert.Empty(t, cfg.ConnConfig.Fallbacks, "require must not fall back to plaintext")
}

func TestConnParams_StatementTimeout(t *testing.T) {
	params := ConnParams{
		Host: "db.example.com", Port: 5432, Database: "claims", User: "svc", SSLMode: "disable",
		StatementTimeout: 30 * time.Second,
	}

	cfg, err := params.poolConfig("secret")

	require.NoError(t, err)
	assert.Equal(t, "30000", cfg.ConnConfig.RuntimeParams["statement_timeout"])
}
