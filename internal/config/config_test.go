package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vehicle-scheduling-service/internal/domain"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vsched.yaml")
	body := "instance_dir: fischetti\nboundary_policy: strict\nworkers: 2\nsolve_burst: 9\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv("WORKERS", "6")
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "fischetti", cfg.InstanceDir)
	require.Equal(t, 6, cfg.Workers)
	require.Equal(t, 9, cfg.SolveBurst)
	require.Equal(t, "9090", cfg.Port)

	p, err := cfg.BoundaryPolicy()
	require.NoError(t, err)
	require.Equal(t, domain.Strict, p)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("BOUNDARY_POLICY", "sometimes")
	_, err := Load("")
	require.Error(t, err)

	t.Setenv("BOUNDARY_POLICY", "")
	t.Setenv("SOLVE_BURST", "many")
	_, err = Load("")
	require.Error(t, err)
}

func TestGet(t *testing.T) {
	t.Setenv("VSCHED_TEST_KEY", "  ")
	require.Equal(t, "fallback", Get("VSCHED_TEST_KEY", "fallback"))
	t.Setenv("VSCHED_TEST_KEY", "value")
	require.Equal(t, "value", Get("VSCHED_TEST_KEY", "fallback"))
}
