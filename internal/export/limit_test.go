package export

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10mb", 10000000},
		{"1.5mb", 1500000},
		{"500kb", 500000},
		{"1gb", 1000000000},
		{"2tb", 2000000000000},
		{"100b", 100},
		{" 10MB ", 10000000},
	}
	for _, tt := range tests {
		got, err := ParseFileSize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseFileSizeInvalid(t *testing.T) {
	for _, in := range []string{"", "mb", "10", "10lightyears", "ten mb", "10..5mb"} {
		_, err := ParseFileSize(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrInvalidLimit), in)
	}
}

func TestParsePartitionLimit(t *testing.T) {
	limit, err := ParsePartitionLimit("")
	require.NoError(t, err)
	assert.Equal(t, NullLimit, limit)

	limit, err = ParsePartitionLimit("1000")
	require.NoError(t, err)
	assert.Equal(t, MessageCountLimit{Count: 1000}, limit)

	limit, err = ParsePartitionLimit("10mb")
	require.NoError(t, err)
	assert.Equal(t, ByteSizeLimit{Bytes: 10000000}, limit)

	_, err = ParsePartitionLimit("-5")
	assert.Error(t, err)
	_, err = ParsePartitionLimit("nonsense")
	assert.Error(t, err)
}

func TestLimitBehavior(t *testing.T) {
	assert.False(t, NullLimit.IsReached(1<<30, 1<<40))

	count := MessageCountLimit{Count: 3}
	assert.False(t, count.IsReached(2, 0))
	assert.True(t, count.IsReached(3, 0))

	size := ByteSizeLimit{Bytes: 100}
	assert.False(t, size.IsReached(0, 99))
	assert.True(t, size.IsReached(0, 100))
}
