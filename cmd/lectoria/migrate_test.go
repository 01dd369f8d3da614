// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chicohaager/lectoria/pkg/errutil"
)

// mockMigrator records which operations were called.
type mockMigrator struct {
	upErr    error
	downErr  error
	version  uint
	dirty    bool
	verErr   error
	closeErr error

	upCalled    bool
	downCalled  bool
	closeCalled bool
}

func (m *mockMigrator) Up() error {
	m.upCalled = true
	return m.upErr
}

func (m *mockMigrator) Down() error {
	m.downCalled = true
	return m.downErr
}

func (m *mockMigrator) Version() (uint, bool, error) {
	return m.version, m.dirty, m.verErr
}

func (m *mockMigrator) Close() error {
	m.closeCalled = true
	return m.closeErr
}

func runMigrateWithMock(t *testing.T, mock *mockMigrator, cfg *migrateConfig) (string, error) {
	t.Helper()

	deps := &MigrateDeps{
		NewMigrator: func(_ string) (databaseMigrator, error) {
			return mock, nil
		},
	}

	cmd := NewMigrateCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	err := runMigrate(cmd, cfg, deps)
	return buf.String(), err
}

func TestMigrate_Up(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/lectoria")

	mock := &mockMigrator{version: 3}
	output, err := runMigrateWithMock(t, mock, &migrateConfig{})

	require.NoError(t, err)
	assert.True(t, mock.upCalled)
	assert.False(t, mock.downCalled)
	assert.True(t, mock.closeCalled)
	assert.Contains(t, output, "schema version 3")
}

func TestMigrate_Down(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/lectoria")

	mock := &mockMigrator{}
	output, err := runMigrateWithMock(t, mock, &migrateConfig{down: true})

	require.NoError(t, err)
	assert.True(t, mock.downCalled)
	assert.False(t, mock.upCalled)
	assert.Contains(t, output, "Rollback completed")
}

func TestMigrate_UpFailure(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/lectoria")

	mock := &mockMigrator{upErr: errors.New("connection refused")}
	_, err := runMigrateWithMock(t, mock, &migrateConfig{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, mock.closeCalled, "migrator should be closed on failure")
}

func TestMigrate_DirtySchema(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/lectoria")

	mock := &mockMigrator{version: 2, dirty: true}
	_, err := runMigrateWithMock(t, mock, &migrateConfig{})

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_DIRTY")
}

func TestMigrate_NoDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	configFile = ""

	mock := &mockMigrator{}
	_, err := runMigrateWithMock(t, mock, &migrateConfig{})

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.False(t, mock.upCalled)
}

func TestResolveDatabaseURL(t *testing.T) {
	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://env:5432/db")

		url, err := resolveDatabaseURL("")
		require.NoError(t, err)
		assert.Equal(t, "postgres://env:5432/db", url)
	})

	t.Run("falls back to config file", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("database_url: postgres://file:5432/db\n"), 0o600))

		url, err := resolveDatabaseURL(path)
		require.NoError(t, err)
		assert.Equal(t, "postgres://file:5432/db", url)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")

		_, err := resolveDatabaseURL("")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})
}
