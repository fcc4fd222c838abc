package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/deppfellow/vacq/internal/database"
	"github.com/deppfellow/vacq/internal/server"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage   = "postgres:16-alpine"
	redisImage      = "redis:7-alpine"
	containerWarmup = 90 * time.Second
)

// skipWithoutDocker skips container tests under -short and when no
// container runtime answers.
func skipWithoutDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("container test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// NewDatabaseServer starts a throwaway Postgres, applies the embedded
// migrations and returns a server whose DB is connected to it. The
// container is removed when the test ends.
func NewDatabaseServer(t *testing.T) *server.Server {
	t.Helper()
	skipWithoutDocker(t)

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "vacq",
				"POSTGRES_PASSWORD": "vacq",
				"POSTGRES_DB":       "vacq_test",
			},
			// Postgres restarts once after the init scripts run.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(containerWarmup),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	s := NewServer(nil)
	s.Config.Database.Host = host
	s.Config.Database.Port = port.Int()
	s.Config.Database.User = "vacq"
	s.Config.Database.Password = "vacq"
	s.Config.Database.Name = "vacq_test"
	s.Config.Database.SSLMode = "disable"
	s.Config.Database.MaxOpenConns = 10
	s.Config.Database.MaxIdleConns = 2
	s.Config.Database.ConnMaxLifetime = 300
	s.Config.Database.ConnMaxIdleTime = 60

	require.NoError(t, database.Migrate(ctx, s.Logger, s.Config))

	db, err := database.New(s.Config, s.Logger, s.LoggerService)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s.DB = db
	return s
}

// ResetDatabase empties the hospital and appointment tables between subtests
// sharing one container. The seeded vaccine centers stay.
func ResetDatabase(t *testing.T, s *server.Server) {
	t.Helper()
	_, err := s.DB.Pool.Exec(context.Background(), "TRUNCATE appointments, hospitals")
	require.NoError(t, err)
}

// NewRedis starts a throwaway Redis and returns a client connected to it.
func NewRedis(t *testing.T) *redis.Client {
	t.Helper()
	skipWithoutDocker(t)

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        redisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(containerWarmup),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(ctx).Err())
	return client
}
