package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateMD5(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", CalculateMD5(nil))
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", CalculateMD5([]byte("hello")))
}

func TestPointerHelpers(t *testing.T) {
	assert.Nil(t, StringPtr("  "))
	s := StringPtr("https://cdn.example.com/a.pdf")
	require.NotNil(t, s)
	assert.Equal(t, "https://cdn.example.com/a.pdf", *s)
	assert.Equal(t, "https://cdn.example.com/a.pdf", StringValue(s))
	assert.Equal(t, "", StringValue(nil))

	assert.Nil(t, TimePtr(time.Time{}))
	now := time.Now()
	assert.Equal(t, now, *TimePtr(now))

	assert.Equal(t, 2018, *IntPtr(2018))
}
