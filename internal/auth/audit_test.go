// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// auditRecords parses one JSON log line per emitted event.
func auditRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}
	return records
}

func TestAuditLog_Events(t *testing.T) {
	ctx := context.Background()
	buf := new(bytes.Buffer)
	audit := NewAuditLog(slog.New(slog.NewJSONHandler(buf, nil)))

	audit.LoginSucceeded(ctx, "10.0.0.1", "user-1", "alice")
	audit.LoginFailed(ctx, "10.0.0.1", 3)
	audit.LoginLocked(ctx, "10.0.0.1", 90*time.Second)
	audit.TokenRejected(ctx, TokenExpired)
	audit.PasswordChanged(ctx, "user-1")
	audit.UserRegistered(ctx, "user-2", "bob")
	audit.ShareCreated(ctx, "user-1", "doc-1", "share-1")
	audit.ShareRevoked(ctx, "user-1", "share-1")
	audit.ShareResolved(ctx, "abcd1234", "not_found")
	audit.ShareFetched(ctx, "share-1", "doc-1")

	records := auditRecords(t, buf)
	require.Len(t, records, 10)

	wantEvents := []string{
		"login_success", "login_failure", "login_lockout", "token_rejected",
		"password_changed", "user_registered", "share_created",
		"share_revoked", "share_resolved", "share_fetched",
	}
	for i, rec := range records {
		assert.Equal(t, wantEvents[i], rec["event"])
		assert.Equal(t, "audit", rec["log"], "every record carries the audit stream marker")
	}

	assert.Equal(t, float64(3), records[1]["failures"])
	assert.Equal(t, "1m30s", records[2]["retry_after"])
	assert.Equal(t, string(TokenExpired), records[3]["reason"])
	assert.Equal(t, "not_found", records[8]["result"])
}

func TestAuditLog_NilLoggerUsesDefault(t *testing.T) {
	assert.NotPanics(t, func() {
		NewAuditLog(nil).PasswordChanged(context.Background(), "user-1")
	})
}
