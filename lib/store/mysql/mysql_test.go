//go:build integration
// +build integration

package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tarancss/chainscan/lib/store/storetest"
)

// TestMySQL requires an available MySQL server at localhost:3306 with an empty scan database.
func TestMySQL(t *testing.T) {
	m, err := New("root:root@tcp(localhost:3306)/scan")
	require.NoError(t, err)

	defer m.Close()

	ctx := context.Background()

	for _, table := range []string{"found", "runs"} {
		_, err = m.db.ExecContext(ctx, "DELETE FROM "+table)
		require.NoError(t, err)
	}

	storetest.Run(t, m)
}
