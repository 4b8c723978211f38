package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-catalog/catalog/internal/errs"
	"github.com/Astemirdum/book-catalog/catalog/internal/model"
	"github.com/Astemirdum/book-catalog/catalog/internal/repository"
	"github.com/Astemirdum/book-catalog/catalog/migrations"
	"github.com/Astemirdum/book-catalog/pkg/postgres"
)

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("cannot ping test database: %v", err)
	}
	require.NoError(t, postgres.Migrate(pool, migrations.MigrationFiles))
	_, err = pool.Exec(ctx, "truncate table book restart identity")
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func newBook(title, isbn string) model.Book {
	return model.Book{
		Title:           title,
		Author:          "Lauren Kate",
		Isbn:            isbn,
		Description:     "Historia",
		PublicationDate: model.NewDate(2009, 12, 8),
		Genre:           model.GenreNarrativo,
		Available:       true,
	}
}

func TestRepository(t *testing.T) {
	pool := setupDB(t)
	repo, err := repository.NewRepository(pool, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	price := 500.0
	fallen := newBook("Fallen", "9780385738934")
	fallen.Price = &price
	created, err := repo.CreateBook(ctx, fallen)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.True(t, created.Available)
	require.Equal(t, "2009-12-08", created.PublicationDate.String())
	require.NotNil(t, created.Price)
	require.InDelta(t, 500.0, *created.Price, 0.001)

	_, err = repo.CreateBook(ctx, newBook("Torment", "0385742630"))
	require.NoError(t, err)
	_, err = repo.CreateBook(ctx, newBook("Angel", "0385742649"))
	require.NoError(t, err)

	t.Run("unique isbn enforced by the table", func(t *testing.T) {
		_, err := repo.CreateBook(ctx, newBook("Passion", "9780385738934"))
		require.ErrorIs(t, err, errs.ErrDuplicateIsbn)
	})

	t.Run("get by id and isbn", func(t *testing.T) {
		got, err := repo.GetBook(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.Isbn, got.Isbn)

		got, err = repo.GetBookByIsbn(ctx, "9780385738934")
		require.NoError(t, err)
		require.Equal(t, created.ID, got.ID)

		_, err = repo.GetBookByIsbn(ctx, "9780385738935")
		require.ErrorIs(t, err, errs.ErrNotFound)
		_, err = repo.GetBook(ctx, 100500)
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("list ordered by title", func(t *testing.T) {
		books, err := repo.ListBooks(ctx)
		require.NoError(t, err)
		require.Len(t, books, 3)
		require.Equal(t, []string{"Angel", "Fallen", "Torment"},
			[]string{books[0].Title, books[1].Title, books[2].Title})
	})

	t.Run("toggle and update", func(t *testing.T) {
		toggled, err := repo.ToggleAvailability(ctx, created.ID)
		require.NoError(t, err)
		require.False(t, toggled.Available)

		toggled.Title = "Fallen II"
		updated, err := repo.UpdateBook(ctx, toggled)
		require.NoError(t, err)
		require.Equal(t, "Fallen II", updated.Title)
		require.False(t, updated.Available)

		_, err = repo.ToggleAvailability(ctx, 100500)
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("ids beyond int4 are absent", func(t *testing.T) {
		const large = 3000000000
		_, err := repo.GetBook(ctx, large)
		require.ErrorIs(t, err, errs.ErrNotFound)
		_, err = repo.ToggleAvailability(ctx, large)
		require.ErrorIs(t, err, errs.ErrNotFound)
		missing := newBook("Rapture", "0385742665")
		missing.ID = large
		_, err = repo.UpdateBook(ctx, missing)
		require.ErrorIs(t, err, errs.ErrNotFound)
		require.ErrorIs(t, repo.DeleteBook(ctx, large), errs.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteBook(ctx, created.ID))
		require.ErrorIs(t, repo.DeleteBook(ctx, created.ID), errs.ErrNotFound)
	})
}
