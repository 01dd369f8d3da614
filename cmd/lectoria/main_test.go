// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	subcommands := []string{"serve", "migrate", "status"}
	for _, sub := range subcommands {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{
			name:     "config flag with space",
			args:     []string{"--config", "/path/to/config.yaml", "--help"},
			wantFlag: "/path/to/config.yaml",
		},
		{
			name:     "config flag with equals",
			args:     []string{"--config=/etc/lectoria.yaml", "--help"},
			wantFlag: "/etc/lectoria.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset global
			configFile = ""

			cmd := NewRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.wantFlag, configFile)
		})
	}
}

func TestResolveConfigFile(t *testing.T) {
	t.Run("explicit flag wins", func(t *testing.T) {
		configFile = "/explicit/config.yaml"
		t.Cleanup(func() { configFile = "" })

		assert.Equal(t, "/explicit/config.yaml", resolveConfigFile())
	})

	t.Run("falls back to the XDG config file", func(t *testing.T) {
		configFile = ""
		xdgHome := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", xdgHome)

		assert.Empty(t, resolveConfigFile(), "no config anywhere yields defaults only")

		path := filepath.Join(xdgHome, "lectoria", "config.yaml")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
		require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

		assert.Equal(t, path, resolveConfigFile())
	})
}

func TestRootCommand_LongDescription(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "lectoria", cmd.Use)
	assert.Contains(t, cmd.Long, "PDF", "Long description should mention PDF")
	assert.Contains(t, cmd.Long, "share links", "Long description should mention share links")
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "test-version")
}

func TestRootCommand_NoArgs(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	// Root command with no args should show help (no error)
	require.NoError(t, cmd.Execute())
}
