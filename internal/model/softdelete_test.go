package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftDeleteFlagScan(t *testing.T) {
	var f SoftDeleteFlag

	// sqlite hands back integers for boolean columns.
	require.NoError(t, f.Scan(int64(1)))
	assert.True(t, bool(f))
	require.NoError(t, f.Scan(int64(0)))
	assert.False(t, bool(f))

	// postgres hands back bools.
	require.NoError(t, f.Scan(true))
	assert.True(t, bool(f))

	require.NoError(t, f.Scan(nil))
	assert.False(t, bool(f))

	assert.Error(t, f.Scan("yes"))
}

func TestSoftDeleteFlagValue(t *testing.T) {
	v, err := SoftDeleteFlag(true).Value()
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = SoftDeleteFlag(false).Value()
	require.NoError(t, err)
	assert.Equal(t, false, v)
}
