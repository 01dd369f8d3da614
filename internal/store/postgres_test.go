// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chicohaager/lectoria/pkg/errutil"
)

func TestConnect(t *testing.T) {
	t.Run("empty URL", func(t *testing.T) {
		_, err := Connect(context.Background(), "")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "DB_CONFIG_INVALID")
	})

	t.Run("unparseable URL", func(t *testing.T) {
		_, err := Connect(context.Background(), "://not-a-url")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "DB_CONNECT_FAILED")
	})
}
