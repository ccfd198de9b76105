package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"betline/database"
)

// TestDatabase is a disposable Postgres instance with the betline schema
// migrated and a pool opened against it
type TestDatabase struct {
	DB *database.DB

	container *postgres.PostgresContainer
}

// SetupTestDatabase starts a Postgres container, applies the embedded
// migrations and opens a connection pool. Teardown is registered on t.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("betline_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{"test": "betline"}),
	)
	require.NoError(t, err)

	testDB := &TestDatabase{container: container}
	t.Cleanup(func() { testDB.teardown(t) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Migrate before opening the pool
	require.NoError(t, database.RunMigrationsWithURL(connStr))

	db, err := database.NewConnection(ctx, connStr)
	require.NoError(t, err)
	testDB.DB = db

	return testDB
}

func (td *TestDatabase) teardown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if td.DB != nil {
		td.DB.Close()
	}
	if td.container != nil {
		if err := td.container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate test container: %v", err)
		}
	}
}
