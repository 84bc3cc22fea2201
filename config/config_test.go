package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/spektr-org/vitasicura/copilot"
	"github.com/spektr-org/vitasicura/dataset"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vitasicura.yaml")
	assert.NilError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.Data.Dir, dataset.DefaultDir)
	assert.Equal(t, cfg.Server.Addr, ":8501")
	assert.Equal(t, cfg.Copilot.Model, copilot.DefaultModel)
	assert.Equal(t, cfg.Copilot.Timeout, copilot.DefaultTimeout)
	assert.Equal(t, cfg.Copilot.KeyName, copilot.KeyName)
	assert.Equal(t, cfg.Server.MaxSessions, copilot.DefaultMaxSessions)
	assert.Equal(t, cfg.Thresholds.Churn, 0.7)
	assert.Equal(t, cfg.Thresholds.PriorityQuantile, 0.9)
	assert.Equal(t, cfg.Thresholds.HighPotential, 0.6)
	assert.NilError(t, cfg.Validate())
}

func TestLoadOverridesAndKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
data:
  dir: /srv/analytics
server:
  addr: 127.0.0.1:9000
copilot:
  model: anthropic/claude-3-haiku
  timeout: 10s
thresholds:
  churn: 0.8
logging:
  level: debug
  seq_url: http://localhost:5341
`)
	cfg, err := Load(path)
	assert.NilError(t, err)

	assert.Equal(t, cfg.Data.Dir, "/srv/analytics")
	assert.Equal(t, cfg.Server.Addr, "127.0.0.1:9000")
	assert.Equal(t, cfg.Copilot.Model, "anthropic/claude-3-haiku")
	assert.Equal(t, cfg.Copilot.Timeout, 10*time.Second)
	assert.Equal(t, cfg.Copilot.Endpoint, copilot.DefaultEndpoint)
	assert.Equal(t, cfg.Thresholds.Churn, 0.8)
	assert.Equal(t, cfg.Thresholds.PriorityQuantile, 0.9)
	assert.Equal(t, cfg.Logging.SeqURL, "http://localhost:5341")
}

func TestLoadKeepsExplicitZero(t *testing.T) {
	path := writeConfig(t, "copilot:\n  temperature: 0\nthresholds:\n  churn: 0\n  high_potential: 0\n")
	cfg, err := Load(path)
	assert.NilError(t, err)

	assert.Equal(t, cfg.Copilot.Temperature, 0.0)
	assert.Equal(t, cfg.Thresholds.Churn, 0.0)
	assert.Equal(t, cfg.Thresholds.HighPotential, 0.0)
	assert.Equal(t, cfg.Thresholds.PriorityQuantile, 0.9)
	assert.Equal(t, *cfg.AdvisorConfig().Temperature, 0.0)
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	path := writeConfig(t, "thresholds:\n  priority_quantile: 1.5\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "priority_quantile")
}

func TestLoadRejectsBadLevel(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: verbose\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "logging.level")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "server: [unterminated\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestAdvisorConfigResolvesSecretsFile(t *testing.T) {
	dir := t.TempDir()
	secrets := filepath.Join(dir, "secrets.yaml")
	assert.NilError(t, os.WriteFile(secrets, []byte("OPENROUTER_API_KEY: sk-file\n"), 0o600))

	cfg := Default()
	cfg.Copilot.SecretsFile = secrets
	cfg.Copilot.DotEnvFile = filepath.Join(dir, "missing.env")
	t.Setenv(copilot.KeyName, "sk-env")

	ac := cfg.AdvisorConfig()
	assert.Equal(t, ac.APIKey, "sk-file")
	assert.Equal(t, ac.Model, copilot.DefaultModel)
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Default().Print(&buf)
	assert.Assert(t, is.Contains(buf.String(), "churn ≥ 0.70"))
	assert.Assert(t, is.Contains(buf.String(), "Logging: info\n"))
}
