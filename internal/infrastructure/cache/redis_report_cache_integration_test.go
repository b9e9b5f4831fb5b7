//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisReportCache_Container(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	c, err := NewRedisReportCache(ctx, RedisConfig{Addr: endpoint})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, ok, err := c.Get(ctx, "balance_sheet|1970-01-01|2024-01-31|6-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "balance_sheet|1970-01-01|2024-01-31|6-1", []byte(`{"success":true}`), time.Minute))

	value, ok, err := c.Get(ctx, "balance_sheet|1970-01-01|2024-01-31|6-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"success":true}`, string(value))

	ttl, err := c.client.TTL(ctx, DefaultKeyPrefix+"balance_sheet|1970-01-01|2024-01-31|6-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
