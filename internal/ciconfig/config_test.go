package ciconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnv_AppliesDefaults(t *testing.T) {
	t.Setenv(envDataDir, "")
	t.Setenv(envWorkspaceDir, "")
	t.Setenv(envTimeoutSeconds, "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, defaultDataDir, cfg.DataDir)
	require.Equal(t, defaultWorkspaceDir, cfg.WorkspaceDir)
	require.Equal(t, defaultTimeoutSeconds, cfg.TimeoutSeconds)
}

func TestFromEnv_InvalidTimeoutReturnsError(t *testing.T) {
	t.Setenv(envTimeoutSeconds, "not-a-number")

	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnv_ReadsConfiguredValues(t *testing.T) {
	t.Setenv(envToken, "tok")
	t.Setenv(envModel, "model-x")
	t.Setenv(envTimeoutSeconds, "45")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "tok", cfg.Token)
	require.Equal(t, "model-x", cfg.Model)
	require.Equal(t, 45, cfg.TimeoutSeconds)
}

func TestWriteOutputs_AppendsKeyValueLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outputs")

	err := WriteOutputs(path, map[string]string{"score": "80"})
	require.NoError(t, err)
	err = WriteOutputs(path, map[string]string{"verdict": "PASS"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "score=80\n"))
	require.True(t, strings.Contains(string(data), "verdict=PASS\n"))
}

func TestWriteOutputs_NoopWhenPathEmpty(t *testing.T) {
	require.NoError(t, WriteOutputs("", map[string]string{"a": "b"}))
}
