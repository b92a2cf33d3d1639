package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/nikhilgadge18/TexttoImage/internal/models"
)

// GeneratedImageRepository определяет методы для работы с историей генераций.
type GeneratedImageRepository interface {
	CreateImage(ctx context.Context, image *models.GeneratedImage) (int64, error)
	ListImagesByUserID(ctx context.Context, userID int64, limit, offset int) ([]models.GeneratedImage, error)
}

// postgresGeneratedImageRepository реализует GeneratedImageRepository для PostgreSQL.
type postgresGeneratedImageRepository struct {
	db *sqlx.DB
}

// NewPostgresGeneratedImageRepository создает новый экземпляр репозитория генераций.
func NewPostgresGeneratedImageRepository(db *sqlx.DB) GeneratedImageRepository {
	return &postgresGeneratedImageRepository{db: db}
}

// CreateImage создает новую запись о сгенерированном изображении.
func (r *postgresGeneratedImageRepository) CreateImage(
	ctx context.Context,
	image *models.GeneratedImage,
) (int64, error) {
	query := `INSERT INTO generated_images (user_id, prompt, object_key, size_bytes)
	          VALUES ($1, $2, $3, $4) RETURNING id`
	var imageID int64

	err := r.db.QueryRowxContext(ctx, query,
		image.UserID, image.Prompt, image.ObjectKey, image.SizeBytes,
	).Scan(&imageID)

	if err != nil {
		// Проверяем на ошибку уникальности object_key
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			log.Printf("[ImageRepo] Ключ объекта '%s' уже существует", image.ObjectKey)
			return 0, fmt.Errorf("запись с ключом объекта '%s' уже существует: %w", image.ObjectKey, err)
		}
		log.Printf("[ImageRepo] Непредвиденная ошибка при создании записи для '%s': %v", image.ObjectKey, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на создание записи об изображении: %w", err)
	}

	log.Printf("[ImageRepo] Запись (ID: %d) успешно создана для пользователя ID %d", imageID, image.UserID)
	return imageID, nil
}

// ListImagesByUserID возвращает историю генераций пользователя с пагинацией.
func (r *postgresGeneratedImageRepository) ListImagesByUserID(
	ctx context.Context,
	userID int64,
	limit,
	offset int,
) ([]models.GeneratedImage, error) {
	// Запрос с сортировкой по убыванию времени создания (сначала новые)
	query := `SELECT id, user_id, prompt, object_key, size_bytes, created_at
	          FROM generated_images
	          WHERE user_id=$1
	          ORDER BY created_at DESC
	          LIMIT $2 OFFSET $3`

	images := make([]models.GeneratedImage, 0, limit)
	err := r.db.SelectContext(ctx, &images, query, userID, limit, offset)
	if err != nil {
		log.Printf("[ImageRepo] Ошибка при получении истории генераций пользователя ID %d: %v", userID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение истории генераций: %w", err)
	}

	log.Printf("[ImageRepo] Получено %d записей для пользователя ID %d (limit=%d, offset=%d)",
		len(images), userID, limit, offset)
	return images, nil
}
