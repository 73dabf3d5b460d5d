package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())
	assert.True(t, s.Parallelism >= 1)
}

func TestValidateRejectsBadValues(t *testing.T) {
	s := DefaultSettings()
	s.Parallelism = -1
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.Codec = "brotli"
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.LogLevel = "trace"
	assert.Error(t, s.Validate())
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("TESSERA_TEST_CODEC", "lz4")
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "codec: ${TESSERA_TEST_CODEC}\nparallelism: 2\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s := DefaultSettings()
	require.NoError(t, Load(path, s))
	assert.Equal(t, "lz4", s.Codec)
	assert.Equal(t, 2, s.Parallelism)
	assert.Equal(t, "debug", s.LogLevel)
	require.NoError(t, s.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := DefaultSettings()
	s.Codec = "snappy"
	require.NoError(t, Save(path, s))

	got := &Settings{}
	require.NoError(t, Load(path, got))
	assert.Equal(t, "snappy", got.Codec)
}
