package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/nikhilgadge18/TexttoImage/internal/models"
	"github.com/nikhilgadge18/TexttoImage/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Вспомогательная функция для создания мока БД и репозитория генераций.
func setupImageRepoMock(t *testing.T) (repository.GeneratedImageRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := repository.NewPostgresGeneratedImageRepository(sqlxDB)
	return repo, mock
}

func TestCreateImage(t *testing.T) {
	insertQuery := regexp.QuoteMeta(
		`INSERT INTO generated_images (user_id, prompt, object_key, size_bytes)`)

	image := &models.GeneratedImage{
		UserID:    7,
		Prompt:    "a cat in space",
		ObjectKey: "alice/abc.png",
		SizeBytes: 2048,
	}

	t.Run("Успешное создание записи", func(t *testing.T) {
		repo, mock := setupImageRepoMock(t)
		rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(42))
		mock.ExpectQuery(insertQuery).
			WithArgs(image.UserID, image.Prompt, image.ObjectKey, image.SizeBytes).
			WillReturnRows(rows)

		imageID, err := repo.CreateImage(context.Background(), image)

		require.NoError(t, err)
		assert.Equal(t, int64(42), imageID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ошибка БД", func(t *testing.T) {
		repo, mock := setupImageRepoMock(t)
		mock.ExpectQuery(insertQuery).
			WithArgs(image.UserID, image.Prompt, image.ObjectKey, image.SizeBytes).
			WillReturnError(errors.New("connection refused"))

		imageID, err := repo.CreateImage(context.Background(), image)

		require.Error(t, err)
		assert.Zero(t, imageID)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListImagesByUserID(t *testing.T) {
	selectQuery := regexp.QuoteMeta(
		`SELECT id, user_id, prompt, object_key, size_bytes, created_at`)
	now := time.Now()

	t.Run("Успешное получение списка", func(t *testing.T) {
		repo, mock := setupImageRepoMock(t)
		rows := sqlmock.NewRows(
			[]string{"id", "user_id", "prompt", "object_key", "size_bytes", "created_at"}).
			AddRow(int64(2), int64(7), "a dog", "alice/2.png", int64(1024), now).
			AddRow(int64(1), int64(7), "a cat", "alice/1.png", int64(2048), now)
		mock.ExpectQuery(selectQuery).WithArgs(int64(7), 20, 0).WillReturnRows(rows)

		images, err := repo.ListImagesByUserID(context.Background(), 7, 20, 0)

		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, "a dog", images[0].Prompt)
		assert.Equal(t, "alice/1.png", images[1].ObjectKey)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Пустая история", func(t *testing.T) {
		repo, mock := setupImageRepoMock(t)
		rows := sqlmock.NewRows(
			[]string{"id", "user_id", "prompt", "object_key", "size_bytes", "created_at"})
		mock.ExpectQuery(selectQuery).WithArgs(int64(7), 20, 0).WillReturnRows(rows)

		images, err := repo.ListImagesByUserID(context.Background(), 7, 20, 0)

		require.NoError(t, err)
		assert.Empty(t, images)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ошибка БД", func(t *testing.T) {
		repo, mock := setupImageRepoMock(t)
		mock.ExpectQuery(selectQuery).WithArgs(int64(7), 20, 0).
			WillReturnError(errors.New("connection refused"))

		images, err := repo.ListImagesByUserID(context.Background(), 7, 20, 0)

		require.Error(t, err)
		assert.Nil(t, images)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
