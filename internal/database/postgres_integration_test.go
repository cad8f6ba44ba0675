package database_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/database"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormlogger "gorm.io/gorm/logger"
)

// Runs against a real PostgreSQL started in Docker. Opt in with YAMDB_PG_IT=1.
func TestPostgres_MigrateAndConstraints(t *testing.T) {
	if os.Getenv("YAMDB_PG_IT") != "1" {
		t.Skip("set YAMDB_PG_IT=1 to run PostgreSQL integration tests")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("yamdb"),
		postgres.WithUsername("yamdb"),
		postgres.WithPassword("yamdb"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(database.DriverPostgres, dsn, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.Ping(db))

	users := repository.NewUserRepository(db)
	titles := repository.NewTitleRepository(db)
	reviews := repository.NewReviewRepository(db)
	categories := repository.NewCategoryRepository(db)

	author := &models.User{Username: "pg_author", Email: "pg@example.com"}
	require.NoError(t, users.CreateUser(author))

	dup := &models.User{Username: "pg_author", Email: "other@example.com"}
	assert.ErrorIs(t, users.CreateUser(dup), repository.ErrDuplicate)

	category := &models.Category{Name: "Films", Slug: "films"}
	require.NoError(t, categories.Create(category))

	title := &models.Title{Name: "Solaris", Year: 1972, CategoryID: &category.ID}
	require.NoError(t, titles.Create(title, nil))

	require.NoError(t, reviews.Create(&models.Review{Text: "deep", Score: 9, AuthorID: author.ID, TitleID: title.ID}))
	err = reviews.Create(&models.Review{Text: "again", Score: 3, AuthorID: author.ID, TitleID: title.ID})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	avg, err := reviews.AverageScores([]uint{title.ID})
	require.NoError(t, err)
	assert.InDelta(t, 9.0, avg[title.ID], 0.001)

	require.NoError(t, categories.Delete(category.ID))
	reloaded, err := titles.GetByID(title.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Nil(t, reloaded.CategoryID)

	require.NoError(t, titles.Delete(title.ID))
	exists, err := titles.Exists(title.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}
