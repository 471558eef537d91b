package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vyrodovalexey/webfunc/internal/config"
)

func TestParseFlags(t *testing.T) {
	t.Setenv("WEBFUNC_CONFIG_PATH", "")
	t.Setenv("WEBFUNC_LOG_LEVEL", "")
	t.Setenv("WEBFUNC_LOG_FORMAT", "")

	flags := parseFlags(nil)
	assert.Equal(t, "webconfig.yaml", flags.configPath)
	assert.Empty(t, flags.logLevel)
	assert.False(t, flags.showVersion)

	flags = parseFlags([]string{"-config", "other.yaml", "-log-level", "debug", "-version"})
	assert.Equal(t, "other.yaml", flags.configPath)
	assert.Equal(t, "debug", flags.logLevel)
	assert.True(t, flags.showVersion)

	t.Setenv("WEBFUNC_CONFIG_PATH", "/etc/webfunc/webconfig.json")
	assert.Equal(t, "/etc/webfunc/webconfig.json", parseFlags(nil).configPath)
}

func TestLogConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Logging.Level = "warn"

	tests := []struct {
		name       string
		flags      cliFlags
		wantLevel  string
		wantFormat string
	}{
		{name: "from config", wantLevel: "warn", wantFormat: "json"},
		{name: "flag overrides", flags: cliFlags{logLevel: "debug", logFormat: "console"}, wantLevel: "debug", wantFormat: "console"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lc := logConfig(tt.flags, cfg)
			assert.Equal(t, tt.wantLevel, lc.Level)
			assert.Equal(t, tt.wantFormat, lc.Format)
		})
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("WEBFUNC_TEST_ENV", "set")
	assert.Equal(t, "set", getEnvOrDefault("WEBFUNC_TEST_ENV", "default"))
	assert.Equal(t, "default", getEnvOrDefault("WEBFUNC_TEST_ENV_UNSET", "default"))
}
