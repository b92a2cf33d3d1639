// Package token реализует выпуск и проверку JWT токенов доступа.
// Секретный ключ, алгоритм подписи и время жизни токена задаются при
// создании сервиса из конфигурации, а не зашиты в код.
package token

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Время жизни по умолчанию, если при выпуске не указано явно.
const fallbackTTL = 15 * time.Minute

// Кастомные ошибки сервиса токенов.
var (
	ErrEmptySubject   = errors.New("субъект токена не может быть пустым")
	ErrTokenMalformed = errors.New("токен не может быть декодирован")
	ErrTokenExpired   = errors.New("срок действия токена истек")
	ErrTokenInvalid   = errors.New("невалидный токен")
)

// Поддерживаемые алгоритмы подписи (HMAC-семейство).
var signingMethods = map[string]*jwt.SigningMethodHMAC{
	jwt.SigningMethodHS256.Alg(): jwt.SigningMethodHS256,
	jwt.SigningMethodHS384.Alg(): jwt.SigningMethodHS384,
	jwt.SigningMethodHS512.Alg(): jwt.SigningMethodHS512,
}

// Service выпускает и проверяет подписанные токены доступа.
type Service struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
}

// NewService создает сервис токенов с заданным секретом, алгоритмом подписи
// ("HS256", "HS384" или "HS512") и временем жизни по умолчанию.
// Если ttl не положительно, используется fallbackTTL.
func NewService(secret []byte, algorithm string, ttl time.Duration) (*Service, error) {
	method, ok := signingMethods[algorithm]
	if !ok {
		return nil, fmt.Errorf("неподдерживаемый алгоритм подписи: %q", algorithm)
	}
	if ttl <= 0 {
		ttl = fallbackTTL
	}
	return &Service{secret: secret, method: method, ttl: ttl}, nil
}

// Issue выпускает токен для указанного субъекта с TTL по умолчанию.
func (s *Service) Issue(subject string) (string, error) {
	return s.IssueWithTTL(subject, s.ttl)
}

// IssueWithTTL выпускает токен для указанного субъекта с явным TTL.
// Нулевой или отрицательный TTL заменяется на fallbackTTL.
func (s *Service) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	if ttl <= 0 {
		ttl = fallbackTTL
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	// Создаем токен с claims и настроенным методом подписи
	t := jwt.NewWithClaims(s.method, claims)

	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// Verify проверяет подпись и срок действия токена и возвращает субъект.
// Различает три вида отказа: ErrTokenMalformed (не декодируется),
// ErrTokenExpired (истек) и ErrTokenInvalid (неверная подпись, неверный
// алгоритм или отсутствующий субъект).
func (s *Service) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		// Убеждаемся, что метод подписи - HMAC
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{s.method.Alg()}))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		default:
			log.Printf("[TokenService] Ошибка проверки токена: %v", err)
			return "", ErrTokenInvalid
		}
	}

	if !t.Valid {
		return "", ErrTokenInvalid
	}

	// Структурно валидный токен без субъекта отклоняем так же,
	// как токен с неверной подписью
	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}
