package services

import (
	"context"
	"errors"
	"log"

	"github.com/nikhilgadge18/TexttoImage/internal/models"
	"github.com/nikhilgadge18/TexttoImage/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer определяет зависимость сервиса аутентификации от сервиса токенов.
type TokenIssuer interface {
	Issue(subject string) (string, error)
	Verify(tokenString string) (string, error)
}

// AuthService определяет интерфейс для сервиса аутентификации.
type AuthService interface {
	Register(ctx context.Context, username, password, fullName string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error) // Возвращает JWT токен или ошибку
	CurrentUser(ctx context.Context, tokenString string) (*models.User, error)
}

// Убедимся, что authService удовлетворяет интерфейсу AuthService.
var _ AuthService = (*authService)(nil)

type authService struct {
	userRepo repository.UserRepository // Зависимость от репозитория пользователей
	tokens   TokenIssuer               // Сервис выпуска и проверки токенов
}

// NewAuthService создает новый экземпляр сервиса аутентификации.
func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer) AuthService {
	return &authService{userRepo: userRepo, tokens: tokens}
}

// Register регистрирует нового пользователя и возвращает созданную запись.
// Хеширование пароля выполняется bcrypt, соль генерируется на каждый вызов
// и встроена в итоговый хеш.
func (s *authService) Register(
	ctx context.Context,
	username, password, fullName string,
) (*models.User, error) {
	// Хешируем пароль
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[AuthService] Ошибка хеширования пароля для '%s': %v", username, err)
		return nil, errors.New("внутренняя ошибка сервера при хешировании пароля")
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
		FullName:     fullName,
	}

	// Создаем пользователя через репозиторий. Отдельной проверки занятости
	// имени нет: уникальное ограничение в БД закрывает гонку двух
	// конкурентных регистраций с одним именем.
	userID, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			log.Printf("[AuthService] Попытка регистрации с занятым именем: %s", username)
			return nil, ErrUsernameTaken // Возвращаем ошибку слоя сервиса
		}
		log.Printf("[AuthService] Непредвиденная ошибка репозитория при регистрации '%s': %v", username, err)
		return nil, errors.New("внутренняя ошибка сервера при создании пользователя")
	}
	user.ID = userID

	log.Printf("[AuthService] Пользователь '%s' успешно зарегистрирован", username)
	return user, nil
}

// Login аутентифицирует пользователя и возвращает JWT токен.
// Несуществующий пользователь и неверный пароль дают одну и ту же ошибку,
// чтобы по ответу нельзя было перебирать имена пользователей.
func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	// Получаем пользователя по имени пользователя
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Printf("[AuthService] Попытка входа несуществующего пользователя: %s", username)
			return "", ErrInvalidCredentials // Общая ошибка для несуществующего пользователя и неверного пароля
		}
		log.Printf("[AuthService] Ошибка репозитория при поиске '%s': %v", username, err)
		return "", errors.New("внутренняя ошибка сервера при поиске пользователя")
	}

	// Сравниваем предоставленный пароль с хешем из базы данных
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		// Ошибка сравнения означает неверный пароль (или другую проблему bcrypt)
		log.Printf("[AuthService] Неверный пароль для пользователя: %s", username)
		return "", ErrInvalidCredentials // Общая ошибка
	}

	// Выпускаем токен, привязанный к имени пользователя, с TTL из конфигурации
	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		log.Printf("[AuthService] Ошибка генерации токена для '%s': %v", username, err)
		return "", errors.New("внутренняя ошибка сервера при генерации токена")
	}

	log.Printf("[AuthService] Пользователь '%s' успешно аутентифицирован", username)
	return token, nil
}

// CurrentUser разрешает предъявленный токен в пользователя.
// Любой отказ проверки токена, как и исчезнувший после выпуска токена аккаунт,
// дает одну и ту же ошибку ErrInvalidToken: внешне причины неразличимы.
func (s *authService) CurrentUser(ctx context.Context, tokenString string) (*models.User, error) {
	username, err := s.tokens.Verify(tokenString)
	if err != nil {
		log.Printf("[AuthService] Отклонен токен: %v", err)
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		// Токен валиден, но субъекта больше нет в справочнике
		log.Printf("[AuthService] Субъект токена '%s' не найден: %v", username, err)
		return nil, ErrInvalidToken
	}

	return user, nil
}

// Кастомные ошибки сервиса.
var (
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	ErrUsernameTaken      = errors.New("имя пользователя уже занято")
	ErrInvalidToken       = errors.New("не удалось проверить учетные данные")
)
