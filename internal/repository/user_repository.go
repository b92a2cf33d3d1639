package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/nikhilgadge18/TexttoImage/internal/models"
)

// Код ошибки PostgreSQL при нарушении ограничения уникальности.
const pgUniqueViolationCode = "23505"

// Кастомные ошибки репозитория пользователей.
var (
	ErrUserNotFound  = errors.New("пользователь не найден")
	ErrUsernameTaken = errors.New("имя пользователя уже занято")
)

// UserRepository определяет методы для работы с учетными записями в хранилище.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type postgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository создает репозиторий пользователей поверх PostgreSQL.
func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

// CreateUser вставляет нового пользователя и возвращает его ID.
// Уникальность username обеспечивается ограничением на уровне БД, поэтому
// конкурентные попытки регистрации с одним именем не создадут двух записей:
// проигравшая вставка получает ErrUsernameTaken.
func (r *postgresUserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	const query = `INSERT INTO users (username, password_hash, full_name) VALUES ($1, $2, $3) RETURNING id`

	var userID int64
	if err := r.db.QueryRowxContext(ctx, query, user.Username, user.PasswordHash, user.FullName).Scan(&userID); err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			log.Printf("[UserRepo] Имя пользователя '%s' уже занято", user.Username)
			return 0, ErrUsernameTaken
		}
		log.Printf("[UserRepo] Непредвиденная ошибка при создании пользователя '%s': %v", user.Username, err)
		return 0, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	log.Printf("[UserRepo] Пользователь '%s' создан с ID %d", user.Username, userID)
	return userID, nil
}

// GetUserByUsername находит пользователя по имени.
// Если запись отсутствует, возвращает ErrUserNotFound.
func (r *postgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT id, username, password_hash, full_name, created_at, updated_at FROM users WHERE username=$1`

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		log.Printf("[UserRepo] Ошибка при поиске пользователя '%s': %v", username, err)
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	return &user, nil
}
