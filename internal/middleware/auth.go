package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/nikhilgadge18/TexttoImage/internal/models"
)

// Тип для ключа контекста.
type contextKey string

// Ключ для хранения пользователя в контексте.
const UserKey contextKey = "user"

// UserResolver разрешает предъявленный токен в пользователя.
// Реализуется сервисом аутентификации.
type UserResolver interface {
	CurrentUser(ctx context.Context, tokenString string) (*models.User, error)
}

// Authenticator возвращает middleware, проверяющее Bearer токен.
// Проверка подписи, срока действия и существования субъекта выполняется
// резолвером; все отказы дают одинаковый ответ 401, без уточнения причины.
func Authenticator(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := BearerToken(r)
			if !ok {
				log.Println("[AuthMiddleware] Заголовок Authorization отсутствует или имеет неверный формат")
				unauthorized(w)
				return
			}

			user, err := resolver.CurrentUser(r.Context(), tokenString)
			if err != nil {
				log.Printf("[AuthMiddleware] Отказ проверки токена: %v", err)
				unauthorized(w)
				return
			}

			log.Printf("[AuthMiddleware] Пользователь '%s' успешно аутентифицирован", user.Username)

			// Передаем управление следующему обработчику с пользователем в контексте
			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken извлекает токен из заголовка "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
		return "", false
	}
	return headerParts[1], true
}

// GetUserFromContext извлекает пользователя из контекста запроса.
// Возвращает пользователя и true, если он найден, иначе nil и false.
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok
}

// unauthorized пишет единый ответ 401 c заголовком WWW-Authenticate.
// Сообщение одно для всех причин отказа (нет заголовка, истекший или
// поддельный токен, исчезнувший аккаунт).
func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
}
