package config

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_ResolvesOnce(t *testing.T) {
	var calls atomic.Int32
	c := &Cache{resolve: func() (*Config, error) {
		calls.Add(1)
		return &Config{}, nil
	}}
	assert.False(t, c.Started())

	const workers = 32
	got := make([]*Config, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg, err := c.Get()
			assert.NoError(t, err)
			got[i] = cfg
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, c.Started())
	for _, cfg := range got {
		assert.Same(t, got[0], cfg)
	}
}

func TestCache_ErrorIsCached(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	c := &Cache{resolve: func() (*Config, error) {
		calls.Add(1)
		return nil, boom
	}}

	_, err1 := c.Get()
	_, err2 := c.Get()
	assert.ErrorIs(t, err1, boom)
	assert.ErrorIs(t, err2, boom)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_IgnoresLaterEnvironmentChanges(t *testing.T) {
	for k, v := range baseEnv() {
		t.Setenv(k, v)
	}
	t.Setenv("PROJECT_NAME", "Before")

	c := NewCache(WithEnvFile(""))
	first, err := c.Get()
	require.NoError(t, err)

	t.Setenv("PROJECT_NAME", "After")
	second, err := c.Get()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "Before", second.Project.Name)
}

// The only test that touches the process-wide cache.
func TestConfigureAndGet(t *testing.T) {
	require.NoError(t, Configure(WithEnvFile(""), WithEnvironment(baseEnv())))

	cfg, err := Get()
	require.NoError(t, err)
	assert.Same(t, cfg, MustGet())
	assert.Equal(t, "research", cfg.Keycloak.Realm)

	assert.ErrorIs(t, Configure(WithEnvFile("")), ErrAlreadyResolved)
	again, err := Get()
	require.NoError(t, err)
	assert.Same(t, cfg, again)
}
