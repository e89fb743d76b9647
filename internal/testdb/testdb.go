// Package testdb starts a throwaway postgres for integration tests.
package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/buildathon/scoring-api/internal/migrations"
)

const Image = "postgres:16.4-alpine"

// Start runs a postgres container for the life of t and returns a connection to it.
// When migrate is true the schema is brought fully up first.
func Start(t testing.TB, migrate bool) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		Image,
		postgres.WithDatabase("scoringapi"),
		postgres.WithUsername("scoringapi"),
		postgres.WithPassword("scoringapi"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	t.Cleanup(func() {
		err := testcontainers.TerminateContainer(postgresContainer)
		assert.NoError(t, err, "failed to terminate container")
	})
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string to container")

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to connect to the database")

	if migrate {
		require.NoError(t, migrations.Up(ctx, db), "failed to migrate db")
	}

	return db
}
