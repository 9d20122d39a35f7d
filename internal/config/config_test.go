package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	// A template was written for the operator to fill in.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.Equal(t, "laboratoriemedicin", cfg.Sync.Anchor)
	assert.Equal(t, []string{"sign:", "moment:"}, cfg.Sync.Delimiters)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "23:00", cfg.Sync.FallbackStart)
	assert.Equal(t, "23:59", cfg.Sync.FallbackEnd)
}

func TestLoad_NormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"personal_ics_url: https://example.com/personal.ics\n"+
			"reference_ics_url: https://example.com/schema.ics\n"+
			"sync:\n  exclude: [\"BMA152\"]\n",
	), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/personal.ics", cfg.PersonalICSURL)
	assert.Equal(t, []string{"BMA152"}, cfg.Sync.Exclude)
	// Missing values fall back to defaults.
	assert.Equal(t, "laboratoriemedicin", cfg.Sync.Anchor)
	assert.Equal(t, "Europe/Stockholm", cfg.Timezone)
	assert.Equal(t, "*/30 * * * *", cfg.Schedule)
	assert.Positive(t, cfg.Sync.HorizonDays)
}

func TestLoad_TokenFromEnvironment(t *testing.T) {
	t.Setenv("TODOIST_API_TOKEN", "env-token")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("personal_ics_url: x\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Todoist.Token)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Normalize()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "personal_ics_url")
	assert.Contains(t, err.Error(), "reference_ics_url")

	cfg.PersonalICSURL = "https://example.com/personal.ics"
	cfg.ReferenceICSURL = "https://example.com/schema.ics"
	cfg.Todoist.Token = "token"
	require.NoError(t, cfg.Validate())

	cfg.Sync.FallbackStart = "25:00"
	assert.Error(t, cfg.Validate())
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{in: "23:00", hour: 23, minute: 0},
		{in: "09:30", hour: 9, minute: 30},
		{in: "0:5", hour: 0, minute: 5},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		h, m, err := ParseClock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.hour, h, tt.in)
		assert.Equal(t, tt.minute, m, tt.in)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.PersonalICSURL = "https://example.com/personal.ics"
	cfg.BasicAuth = &BasicAuthConfig{Username: "ops", Password: "secret"}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.PersonalICSURL, loaded.PersonalICSURL)
	require.NotNil(t, loaded.BasicAuth)
	assert.Equal(t, "ops", loaded.BasicAuth.Username)
}
