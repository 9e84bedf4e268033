package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() {
		client.Close()
	})
	return client
}

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	client := startRedis(t)
	store := NewRedisStore(client, "")
	ctx := context.Background()

	_, err := store.Load(ctx, "PHPSESSID:alice")
	require.ErrorIs(t, err, ErrNoCredential)

	cred := Credential{
		Name:   "PHPSESSID:alice",
		Token:  "abc",
		Expiry: time.Now().Add(time.Hour).Unix(),
	}
	require.NoError(t, store.Save(ctx, cred))

	loaded, err := store.Load(ctx, cred.Name)
	require.NoError(t, err)
	require.Equal(t, cred, loaded)

	ttl, err := client.TTL(ctx, "pantry:session:PHPSESSID:alice").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, 50*time.Minute)

	require.NoError(t, store.Delete(ctx, cred.Name))
	_, err = store.Load(ctx, cred.Name)
	require.ErrorIs(t, err, ErrNoCredential)
}

func TestRedisStoreDropsExpired(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	client := startRedis(t)
	store := NewRedisStore(client, "test:")
	ctx := context.Background()

	err := store.Save(ctx, Credential{Name: "x", Token: "t", Expiry: time.Now().Add(-time.Minute).Unix()})
	require.NoError(t, err)

	_, err = store.Load(ctx, "x")
	require.ErrorIs(t, err, ErrNoCredential)
}

func TestCredentialValid(t *testing.T) {
	now := time.Unix(1000, 0)
	require.True(t, Credential{Token: "a", Expiry: 1001}.Valid(now))
	require.False(t, Credential{Token: "a", Expiry: 1000}.Valid(now))
	require.False(t, Credential{Token: "", Expiry: 2000}.Valid(now))
}
