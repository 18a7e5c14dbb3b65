package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/garage-ops/internal/analytics"
)

func TestLoadPolicy_Defaults(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, analytics.DefaultPolicy(), p)
}

func TestLoadPolicy_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := "motorcycle:\n  service_interval_km: 6000\nconfidence_per_record: 25\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	p, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, 6000, p.Motorcycle.ServiceIntervalKm)
	assert.Equal(t, 0.8, p.Motorcycle.DefaultCostPerKm, "unset keys keep their defaults")
	assert.Equal(t, 25, p.ConfidencePerRecord)
	assert.Equal(t, 10000, p.Car.ServiceIntervalKm)
}

func TestLoadPolicy_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"car":{"service_interval_km":12000}}`), 0o600))
	t.Setenv("GARAGE_POLICY__CAR__SERVICE_INTERVAL_KM", "15000")
	t.Setenv("GARAGE_POLICY__LOW_STOCK_THRESHOLD", "5")

	p, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, 15000, p.Car.ServiceIntervalKm)
	assert.Equal(t, 5, p.LowStockThreshold)
}

func TestLoadPolicy_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadPolicy(filepath.Join(dir, "policy.toml"))
	assert.Error(t, err)

	_, err = LoadPolicy(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("car:\n  service_interval_km: 0\n"), 0o600))
	_, err = LoadPolicy(bad)
	assert.Error(t, err)
}
