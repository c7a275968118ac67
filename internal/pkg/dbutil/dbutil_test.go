package dbutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalize(t *testing.T) {
	query, args := Finalize("INSERT INTO t (a, b) VALUES (?, ?)", []interface{}{1, "x"})
	require.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", query)
	require.Equal(t, []interface{}{1, "x"}, args)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.True(t, IsConflict(fmt.Errorf("wrapped: %w", &pq.Error{Code: "23505"})))
	require.False(t, IsConflict(&pq.Error{Code: "42P01"}))
	require.False(t, IsConflict(errors.New("plain")))
}
