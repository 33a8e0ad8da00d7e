package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevelFlags(t *testing.T) {
	tests := []struct {
		name        string
		flags       []string
		environ     []string
		wantDefault string
		wantPkgs    map[string]string
		wantErr     bool
	}{
		{
			name:        "default only",
			flags:       []string{"debug"},
			wantDefault: "debug",
			wantPkgs:    map[string]string{},
		},
		{
			name:        "package override",
			flags:       []string{"info", "labeler.probe=debug"},
			wantDefault: "info",
			wantPkgs:    map[string]string{"labeler.probe": "debug"},
		},
		{
			name:        "env var is lower priority than flag",
			flags:       []string{"labeler.probe=warn"},
			environ:     []string{"LOG_LEVEL_LABELER_PROBE=debug", "LOG_LEVEL_TASK_RUNNER=error", "HOME=/root"},
			wantDefault: "info",
			wantPkgs:    map[string]string{"labeler.probe": "warn", "task.runner": "error"},
		},
		{
			name:        "explicit default key",
			flags:       []string{"default=warn"},
			wantDefault: "warn",
			wantPkgs:    map[string]string{},
		},
		{
			name:    "invalid default",
			flags:   []string{"loud"},
			wantErr: true,
		},
		{
			name:    "invalid package level",
			flags:   []string{"info"},
			environ: []string{"LOG_LEVEL_AGENT=verbose"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, pkgs, err := parseLogLevelFlags(tt.flags, tt.environ)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDefault, def)
			assert.Equal(t, tt.wantPkgs, pkgs)
		})
	}
}

func TestConvertEnvKeyToPackageName(t *testing.T) {
	assert.Equal(t, "labeler.probe", convertEnvKeyToPackageName("LOG_LEVEL_LABELER_PROBE"))
	assert.Equal(t, "scheduler", convertEnvKeyToPackageName("LOG_LEVEL_SCHEDULER"))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "probe", "tasks", "ago", "daemon"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
