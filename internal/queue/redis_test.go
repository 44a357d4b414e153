package queue

import (
	"context"
	"testing"
	"time"

	"grocery/scraper/internal/config"
	"grocery/scraper/internal/domain/task"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())
	return rdb
}

func TestRedisQueueRoundTrip(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	q, err := NewRedisQueue(ctx, rdb, config.RedisConfig{ConsumerGroup: "grocery_consumer"})
	require.NoError(t, err)
	q.block = 100 * time.Millisecond

	// A second setup against the same streams must not fail on BUSYGROUP.
	require.NoError(t, q.EnsureStreamsExist(ctx))

	stream := StreamName("ProductRetryTask")

	msg, err := q.GetTask(ctx, "worker-1", stream)
	require.NoError(t, err)
	require.Nil(t, msg)

	id, err := q.AddTask(ctx, &task.ProductRetryTask{
		ProductURL:    "https://shop.test/ip/1",
		SubcategoryID: 7,
		Error:         "timeout",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msg, err = q.GetTask(ctx, "worker-1", stream)
	require.NoError(t, err)
	require.NotNil(t, msg)
	require.Equal(t, id, msg.ID)

	retry, err := task.Decode[*task.ProductRetryTask](msg.Values)
	require.NoError(t, err)
	require.Equal(t, "https://shop.test/ip/1", retry.ProductURL)
	require.EqualValues(t, 7, retry.SubcategoryID)

	// Unacked messages can be claimed by another consumer.
	claimed, err := q.AutoClaim(ctx, "worker-2", stream, 0)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, q.AckTask(ctx, stream, msg.ID))

	claimed, err = q.AutoClaim(ctx, "worker-2", stream, 0)
	require.NoError(t, err)
	require.Empty(t, claimed)
}
