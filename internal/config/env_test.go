package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFilesKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("INCREMIT_ENV_A=from-file\nINCREMIT_ENV_B=\"quoted\"\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("INCREMIT_ENV_A", "from-process")
	t.Setenv("INCREMIT_ENV_B", "")
	require.NoError(t, os.Unsetenv("INCREMIT_ENV_B"))

	require.NoError(t, loadEnvFiles())
	assert.Equal(t, "from-process", os.Getenv("INCREMIT_ENV_A"))
	assert.Equal(t, "quoted", os.Getenv("INCREMIT_ENV_B"))
}

func TestLoadEnvFilesWithoutFiles(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.NoError(t, loadEnvFiles())
}
