package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	s, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "openai", s.Provider)
	assert.Equal(t, 3, s.RouterHistoryWindow)
	assert.Equal(t, 5, s.RetrieveK)
	assert.Equal(t, 2, s.CompactKeepRecent)
	assert.Equal(t, 200*time.Millisecond, s.RetryInitialInterval)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("TRIAD_PROVIDER", "anthropic")
	t.Setenv("TRIAD_RETRIEVE_K", "8")
	t.Setenv("TRIAD_RELEVANCE_THRESHOLD", "0.8")
	t.Setenv("TRIAD_RETRY_INITIAL_INTERVAL", "50ms")

	s, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", s.Provider)
	assert.Equal(t, 8, s.RetrieveK)
	assert.Equal(t, 0.8, s.RelevanceThreshold)
	assert.Equal(t, 50*time.Millisecond, s.RetryInitialInterval)
}

func TestFromEnv_InvalidInt(t *testing.T) {
	t.Setenv("TRIAD_RETRIEVE_K", "not-a-number")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnv_InvalidProvider(t *testing.T) {
	t.Setenv("TRIAD_PROVIDER", "carrier-pigeon")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnv_ThresholdOutOfRange(t *testing.T) {
	t.Setenv("TRIAD_RELEVANCE_THRESHOLD", "1.5")

	_, err := FromEnv()
	assert.Error(t, err)
}
