package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndFlags(t *testing.T) {
	cfg, err := Load([]string{"--jwt-key", "k", "--access-ttl", "10m", "--allowed-origins", "https://a,https://b"})
	require.NoError(t, err)
	require.Equal(t, "k", cfg.JWTKey)
	require.Equal(t, 10*time.Minute, cfg.AccessTTL)
	require.Equal(t, ":8443", cfg.GRPCAddr)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, []string{"https://a", "https://b"}, cfg.AllowedOrigins)
	require.Equal(t, "AgentPass", cfg.TOTPIssuer)
	require.Equal(t, 5, cfg.LoginMaxFails)
	require.False(t, cfg.TLSEnabled())
	require.False(t, cfg.TrustProxy)
	require.Equal(t, 15*time.Second, cfg.ReadTimeout)
	require.Equal(t, 30*time.Second, cfg.WriteTimeout)
	require.Equal(t, 2*time.Minute, cfg.IdleTimeout)
}

func TestLoad_TrustProxyAndTimeouts(t *testing.T) {
	t.Setenv("AGENTPASS_TRUST_PROXY", "true")
	cfg, err := Load([]string{"--jwt-key", "k", "--http-write-timeout", "5s"})
	require.NoError(t, err)
	require.True(t, cfg.TrustProxy)
	require.Equal(t, 5*time.Second, cfg.WriteTimeout)

	_, err = Load([]string{"--jwt-key", "k", "--http-idle-timeout", "0s"})
	require.ErrorContains(t, err, "timeouts")
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("AGENTPASS_JWT_KEY", "from-env")
	t.Setenv("AGENTPASS_HTTP_ADDR", ":9999")
	t.Setenv("AGENTPASS_LOGIN_MAX_FAILS", "3")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.JWTKey)
	require.Equal(t, ":9999", cfg.HTTPAddr)
	require.Equal(t, 3, cfg.LoginMaxFails)
}

func TestLoad_FlagBeatsEnv(t *testing.T) {
	t.Setenv("AGENTPASS_JWT_KEY", "from-env")
	cfg, err := Load([]string{"--jwt-key", "from-flag"})
	require.NoError(t, err)
	require.Equal(t, "from-flag", cfg.JWTKey)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "agentpass.yaml")
	require.NoError(t, os.WriteFile(p, []byte("jwt-key: file-key\ntotp-issuer: Acme\nrate-per-min: 0\n"), 0o600))

	cfg, err := Load([]string{"--config", p})
	require.NoError(t, err)
	require.Equal(t, "file-key", cfg.JWTKey)
	require.Equal(t, "Acme", cfg.TOTPIssuer)
	require.Zero(t, cfg.RatePerMin)
}

func TestLoad_Validation(t *testing.T) {
	_, err := Load(nil)
	require.ErrorContains(t, err, "jwt")

	_, err = Load([]string{"--jwt-key", "k", "--tls-cert", "c.pem"})
	require.ErrorContains(t, err, "together")

	_, err = Load([]string{"--bogus"})
	require.Error(t, err)
}
