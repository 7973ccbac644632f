package sqldb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRebindDollar(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`SELECT 1`, `SELECT 1`},
		{`SELECT * FROM t WHERE a = ?`, `SELECT * FROM t WHERE a = $1`},
		{`UPDATE t SET a = ?, b = ? WHERE c = ?`, `UPDATE t SET a = $1, b = $2 WHERE c = $3`},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, RebindDollar(tt.in))
	}
}
