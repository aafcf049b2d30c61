package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestDB opens a fresh in-memory database for one test
func setupTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, OpenSQLite(":memory:"))
	t.Cleanup(func() { Close() })
}
