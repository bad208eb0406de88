package redis

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/postnatalcare/backend/pkg/config"
)

func TestNewClient_Connects(t *testing.T) {
	mr := miniredis.RunT(t)

	host, portStr, ok := strings.Cut(mr.Addr(), ":")
	require.True(t, ok)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	client, err := NewClient(&config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
	assert.NotNil(t, client.Client())
}

func TestOptions_PoolDefaults(t *testing.T) {
	opts := options(&config.RedisConfig{Host: "cache", Port: 6380, DB: 2})
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 20, opts.PoolSize)

	opts = options(&config.RedisConfig{Host: "cache", Port: 6380, PoolSize: 4})
	assert.Equal(t, 4, opts.PoolSize)
}
