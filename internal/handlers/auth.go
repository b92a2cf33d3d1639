package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/nikhilgadge18/TexttoImage/internal/middleware"
	"github.com/nikhilgadge18/TexttoImage/internal/models"
	"github.com/nikhilgadge18/TexttoImage/internal/services"
)

// Сообщения об ошибках, видимые клиенту.
const (
	detailUsernameTaken      = "Username already registered"
	detailBadCredentials     = "Incorrect username or password"
	detailInvalidCredentials = "Could not validate credentials"
	detailBadRequestBody     = "Invalid request body"
	detailEmptyCredentials   = "Username and password must not be empty"
	detailInternalError      = "Internal server error"
)

// AuthHandler обрабатывает HTTP-запросы, связанные с аутентификацией.
type AuthHandler struct {
	service services.AuthService // Зависимость от интерфейса, а не конкретной реализации
}

// NewAuthHandler создает новый экземпляр AuthHandler.
func NewAuthHandler(s services.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

// Signup обрабатывает запрос на регистрацию нового пользователя.
// Тело запроса - JSON {username, password, full_name?}. Занятое имя дает 400.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	// Декодируем JSON из тела запроса
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[AuthHandler] Ошибка декодирования запроса регистрации: %v", err)
		writeError(w, http.StatusBadRequest, detailBadRequestBody)
		return
	}

	// Валидация входных данных (простая)
	if req.Username == "" || req.Password == "" {
		log.Printf("[AuthHandler] Пустое имя пользователя или пароль при регистрации")
		writeError(w, http.StatusBadRequest, detailEmptyCredentials)
		return
	}

	log.Printf("[AuthHandler] Попытка регистрации пользователя: %s", req.Username)

	user, err := h.service.Register(r.Context(), req.Username, req.Password, req.FullName)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) {
			writeError(w, http.StatusBadRequest, detailUsernameTaken)
			return
		}
		log.Printf("[AuthHandler] Внутренняя ошибка при регистрации '%s': %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, detailInternalError)
		return
	}

	// Хеш пароля в ответ не попадает: поле исключено из JSON на уровне модели
	writeJSON(w, http.StatusOK, user)
	log.Printf("[AuthHandler] Успешная регистрация: %s", user.Username)
}

// Token обрабатывает запрос на вход пользователя (OAuth2 password form).
// Тело запроса - form-encoded поля username и password.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		log.Printf("[AuthHandler] Ошибка разбора формы входа: %v", err)
		writeError(w, http.StatusBadRequest, detailBadRequestBody)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		log.Printf("[AuthHandler] Пустое имя пользователя или пароль при входе")
		writeError(w, http.StatusBadRequest, detailEmptyCredentials)
		return
	}

	log.Printf("[AuthHandler] Попытка входа пользователя: %s", username)

	token, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			// Несуществующий пользователь и неверный пароль неразличимы
			writeUnauthorized(w, detailBadCredentials)
			return
		}
		log.Printf("[AuthHandler] Внутренняя ошибка при входе '%s': %v", username, err)
		writeError(w, http.StatusInternalServerError, detailInternalError)
		return
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
	log.Printf("[AuthHandler] Успешный вход: %s", username)
}

// Me возвращает пользователя, разрешенного из предъявленного токена.
// Проверка токена выполняется в middleware, сюда запрос доходит уже
// с пользователем в контексте.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		log.Printf("[AuthHandler:Me] Не удалось получить пользователя из контекста")
		writeUnauthorized(w, detailInvalidCredentials)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
