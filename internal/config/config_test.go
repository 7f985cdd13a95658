package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"gw2webhooks/internal/gw2api"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhook = "https://discord.com/api/webhooks/1/token"

func TestMain(m *testing.M) {
	// Never pick the config of the machine running the tests
	DefaultConfigFiles = nil
	os.Exit(m.Run())
}

func writeConfig(t *testing.T, name string, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
	return filename
}

func problems(t *testing.T, err error) []string {
	t.Helper()
	var configErr *ConfigError
	require.True(t, errors.As(err, &configErr), "expected a ConfigError, got %v", err)
	return configErr.Problems
}

func TestDefaults(t *testing.T) {
	options, err := Resolve(MATCHES, []string{"-w", "2008", "-u", webhook}, nil)
	require.NoError(t, err)

	assert.Equal(t, MATCHES, options.Command)
	assert.Equal(t, gw2api.WorldId(2008), options.World)
	assert.Equal(t, webhook, options.WebhookURL)
	assert.Equal(t, 15*time.Minute, options.Interval)
	assert.Equal(t, 30*time.Second, options.Timeout)
	assert.Equal(t, gw2api.API_URL, options.APIURL)
	assert.Empty(t, options.Timezones)
	assert.False(t, options.ChangeOnly)
	assert.False(t, options.SingleShot())
	assert.Empty(t, options.ConfigFile)
}

func TestPrecedence(t *testing.T) {
	filename := writeConfig(t, "gw2.conf", strings.Join([]string{
		"world=1001",
		"webhook-url=https://discord.com/api/webhooks/1/file",
		"matches-username=File Bot",
		"interval=1h",
		"timezones=Europe/Berlin",
	}, "\n"))
	environ := []string{
		"GW2_CONFIG_FILE=" + filename,
		"GW2_WEBHOOK_URL=https://discord.com/api/webhooks/1/env",
		"GW2_MATCHES_USERNAME=Env Bot",
		"HOME=/nowhere",
	}

	options, err := Resolve(MATCHES, []string{"--matches-username", "Flag Bot"}, environ)
	require.NoError(t, err)
	assert.Equal(t, filename, options.ConfigFile)
	assert.Equal(t, gw2api.WorldId(1001), options.World, "file only")
	assert.Equal(t, "https://discord.com/api/webhooks/1/env", options.WebhookURL, "env over file")
	assert.Equal(t, "Flag Bot", options.Username, "flag over env")
	assert.Equal(t, time.Hour, options.Interval, "file over default")
	require.Len(t, options.Timezones, 1)
	assert.Equal(t, "Europe/Berlin", options.Timezones[0].String())

	// A flag given with its default value still wins
	options, err = Resolve(MATCHES, []string{"-i", "15m"}, environ)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, options.Interval)
}

func TestHomeWorldVariable(t *testing.T) {
	options, err := Resolve(POPULATION, []string{"-p"}, []string{"GW2_HOME_WORLD_ID=2008"})
	require.NoError(t, err)
	assert.Equal(t, gw2api.WorldId(2008), options.World)
	assert.True(t, options.PrintOnly)
	assert.True(t, options.SingleShot())
}

func TestINIFile(t *testing.T) {
	filename := writeConfig(t, "gw2_discord_webhooks", strings.Join([]string{
		"; comment",
		"world = 2008",
		"webhook-url: " + webhook,
		"change-only",
		"[population]",
		"population-log = /tmp/population.log",
		"relink-weeks = 4",
	}, "\n"))

	options, err := Resolve(POPULATION, []string{"-c", filename}, nil)
	require.NoError(t, err)
	assert.Equal(t, gw2api.WorldId(2008), options.World)
	assert.Equal(t, webhook, options.WebhookURL)
	assert.True(t, options.ChangeOnly, "bare keys are booleans")
	assert.Equal(t, "/tmp/population.log", options.LogFile)
	assert.Equal(t, 4, options.RelinkWeeks)
	assert.Equal(t, time.Date(2024, 1, 26, 0, 0, 0, 0, time.UTC), options.RelinkAnchor)
}

func TestYAMLFile(t *testing.T) {
	filename := writeConfig(t, "gw2.yaml", strings.Join([]string{
		"world: 2008",
		"webhook-url: " + webhook,
		"change-only: yes",
		"ampm: true",
		"timezones:",
		"  - Europe/Berlin",
		"  - America/New_York",
		"matches:",
		"  matches-log: ~/matches.log",
	}, "\n"))

	options, err := Resolve(MATCHES, []string{"--config", filename}, nil)
	require.NoError(t, err)
	assert.True(t, options.ChangeOnly)
	assert.True(t, options.AMPM)
	require.Len(t, options.Timezones, 2)
	assert.Equal(t, "America/New_York", options.Timezones[1].String())
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "matches.log"), options.LogFile)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := Resolve(MATCHES, []string{"-c", filepath.Join(t.TempDir(), "missing")}, nil)
	assert.Len(t, problems(t, err), 1)
}

func TestValidation(t *testing.T) {
	_, err := Resolve(MATCHES, []string{
		"-w", "abc",
		"-u", "not a url",
		"-t", "Europe/Berlin,Mars/Olympus",
		"-i", "500ms",
		"-s", "every day",
		"--timeout", "soon",
	}, nil)
	found := strings.Join(problems(t, err), "\n")
	assert.Contains(t, found, `world "abc" is not a number`)
	assert.Contains(t, found, `unknown timezone "Mars/Olympus"`)
	assert.Contains(t, found, `timeout "soon" is not a duration`)
	assert.Contains(t, found, `schedule "every day" is not valid`)
	assert.Contains(t, found, "webhook-url fails the 'url' check")
	assert.Contains(t, found, "interval fails the 'min=1s' check")
	assert.NotContains(t, found, "world fails")
}

func TestWebhookRequired(t *testing.T) {
	_, err := Resolve(POPULATION, []string{"-w", "2008"}, nil)
	assert.Equal(t, []string{"webhook-url is required unless printing to console"}, problems(t, err))

	_, err = Resolve(POPULATION, []string{"-w", "2008", "--print-only"}, nil)
	assert.NoError(t, err)
}

func TestWorldRequired(t *testing.T) {
	_, err := Resolve(MATCHES, []string{"-u", webhook}, nil)
	assert.Equal(t, []string{"world is required"}, problems(t, err))

	_, err = Resolve(MATCHES, []string{"-u", webhook, "-w", "-3"}, nil)
	assert.Equal(t, []string{"world fails the 'gt=0' check"}, problems(t, err))
}

func TestBooleans(t *testing.T) {
	options, err := Resolve(MATCHES, []string{"-w", "2008", "-p"}, []string{"GW2_CHANGE_ONLY=on", "GW2_AMPM=No"})
	require.NoError(t, err)
	assert.True(t, options.ChangeOnly)
	assert.False(t, options.AMPM)

	_, err = Resolve(MATCHES, []string{"-w", "2008", "-p"}, []string{"GW2_CHANGE_ONLY=maybe"})
	assert.Equal(t, []string{`change-only "maybe" is not a boolean`}, problems(t, err))
}

func TestCommandFlags(t *testing.T) {
	// Population has no timezones, matches has no relink calendar
	_, err := Resolve(POPULATION, []string{"-w", "2008", "-p", "-t", "UTC"}, nil)
	assert.Len(t, problems(t, err), 1)
	_, err = Resolve(MATCHES, []string{"-w", "2008", "-p", "--relink-weeks", "4"}, nil)
	assert.Len(t, problems(t, err), 1)

	_, err = Resolve(POPULATION, []string{"-w", "2008", "-p", "--relink-weeks", "0"}, nil)
	assert.Equal(t, []string{"relink-weeks fails the 'min=1' check"}, problems(t, err))

	assert.Contains(t, Usage(MATCHES), "--matches-username")
	assert.Contains(t, Usage(POPULATION), "--relink-anchor")
	assert.NotContains(t, Usage(POPULATION), "--timezones")
}

func TestHelp(t *testing.T) {
	_, err := Resolve(MATCHES, []string{"--help"}, nil)
	assert.ErrorIs(t, err, pflag.ErrHelp)
}
