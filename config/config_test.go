package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROPOSAL_TTL_HOURS", "")
	t.Setenv("SWEEP_INTERVAL_MINUTES", "")
	t.Setenv("SWEEPER_ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, cfg.Voting.ProposalTTL)
	assert.Equal(t, 10*time.Minute, cfg.Voting.SweepInterval)
	assert.True(t, cfg.Voting.SweeperEnabled)
	assert.Equal(t, 10*time.Second, cfg.External.Timeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PROPOSAL_TTL_HOURS", "24")
	t.Setenv("SWEEP_INTERVAL_MINUTES", "1")
	t.Setenv("SWEEPER_ENABLED", "false")
	t.Setenv("EXTERNAL_API_TIMEOUT_SEC", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Voting.ProposalTTL)
	assert.Equal(t, time.Minute, cfg.Voting.SweepInterval)
	assert.False(t, cfg.Voting.SweeperEnabled)
	assert.Equal(t, 3*time.Second, cfg.External.Timeout)
}

func TestLoadRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("PROPOSAL_TTL_HOURS", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: "5432", DBName: "pitstop", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/pitstop?sslmode=disable", c.DSN())

	c.URL = "postgres://elsewhere/db"
	assert.Equal(t, "postgres://elsewhere/db", c.DSN())
}

func TestAllowedOrigins(t *testing.T) {
	s := ServerConfig{CORSAllowedOrigins: " http://a.test , ,http://b.test"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, s.AllowedOrigins())
}
