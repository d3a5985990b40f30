package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailsort/rules"
)

func TestNewManagerCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	m, err := NewManager(path)
	require.NoError(t, err)

	assert.True(t, m.AutoSort())
	assert.Empty(t, m.Rules())

	// The file must now exist with the defaults written out.
	_, err = os.Stat(path)
	require.NoError(t, err)

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	assert.True(t, reloaded.AutoSort())
}

func TestSetRulesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m, err := NewManager(path)
	require.NoError(t, err)

	ruleSet := []rules.Rule{
		{Expression: `([^.]+)@x\.com$`, Output: "$1", MatchOn: rules.TargetRecipients},
		{Expression: "^news@", Output: "newsletters", MatchOn: rules.TargetSenders},
	}
	require.NoError(t, m.SetRules(ruleSet))

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, ruleSet, reloaded.Rules())
}

func TestSubscribeReceivesOldAndNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m, err := NewManager(path)
	require.NoError(t, err)

	var gotOld, gotNew Settings
	calls := 0
	m.Subscribe(func(old, new Settings) {
		gotOld, gotNew = old, new
		calls++
	})

	require.NoError(t, m.SetAutoSort(false))
	assert.Equal(t, 1, calls)
	assert.True(t, gotOld.AutoSort)
	assert.False(t, gotNew.AutoSort)
}

func TestSettingsReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, m.SetRules([]rules.Rule{{Expression: "a", Output: "b"}}))

	s := m.Settings()
	s.Rules[0].Output = "mutated"
	assert.Equal(t, "b", m.Rules()[0].Output)
}

func TestLoadAppDefaultsWhenMissing(t *testing.T) {
	app, err := LoadApp(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultApp(), app)
}

func TestLoadApp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailsort.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
credentials_file = "creds.json"
poll_interval = "1m"
ignore_read = false
`), 0644))

	app, err := LoadApp(path)
	require.NoError(t, err)
	assert.Equal(t, "creds.json", app.CredentialsFile)
	assert.Equal(t, time.Minute, app.PollInterval.Duration)
	assert.False(t, app.IgnoreRead)
	// Unset keys keep their defaults.
	assert.Equal(t, "token.json", app.TokenFile)
}

func TestLoadAppRejectsBadInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailsort.toml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval = \"not a duration\"\n"), 0644))

	_, err := LoadApp(path)
	assert.Error(t, err)
}
