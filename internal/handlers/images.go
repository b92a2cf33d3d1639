package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/nikhilgadge18/TexttoImage/internal/generator"
	"github.com/nikhilgadge18/TexttoImage/internal/middleware"
	"github.com/nikhilgadge18/TexttoImage/internal/models"
	"github.com/nikhilgadge18/TexttoImage/internal/services"
)

// Сообщения об ошибках, видимые клиенту.
const (
	detailNoPrompts = "No text prompts provided"
	detailBadPrompt = "Prompt rejected by the inference service"
)

// Параметры пагинации истории по умолчанию.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ImageHandler обрабатывает HTTP-запросы генерации изображений.
type ImageHandler struct {
	imageService services.ImageService
	resolver     middleware.UserResolver // Для необязательной аутентификации
}

// NewImageHandler создает новый экземпляр ImageHandler.
func NewImageHandler(is services.ImageService, resolver middleware.UserResolver) *ImageHandler {
	return &ImageHandler{imageService: is, resolver: resolver}
}

// GenerateImages обрабатывает POST запрос на генерацию изображений по промптам.
// Аутентификация не требуется; если валидный Bearer токен все же предъявлен,
// сгенерированные изображения попадают в историю пользователя.
func (h *ImageHandler) GenerateImages(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, h.imageService.GenerateImages)
}

// RemoveBackground обрабатывает POST запрос на генерацию изображений с
// последующим удалением фона.
func (h *ImageHandler) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, h.imageService.RemoveBackground)
}

func (h *ImageHandler) generate(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, user *models.User, prompts []string) ([]string, error),
) {
	var req models.TextToImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ImageHandler] Ошибка декодирования запроса генерации: %v", err)
		writeError(w, http.StatusBadRequest, detailBadRequestBody)
		return
	}

	if len(req.TextPrompts) == 0 {
		writeError(w, http.StatusBadRequest, detailNoPrompts)
		return
	}

	user := h.optionalUser(r)

	images, err := op(r.Context(), user, req.TextPrompts)
	if err != nil {
		if errors.Is(err, services.ErrNoPrompts) {
			writeError(w, http.StatusBadRequest, detailNoPrompts)
			return
		}
		if errors.Is(err, generator.ErrBadPrompt) {
			writeError(w, http.StatusBadRequest, detailBadPrompt)
			return
		}
		log.Printf("[ImageHandler] Ошибка генерации: %v", err)
		writeError(w, http.StatusInternalServerError, detailInternalError)
		return
	}

	writeJSON(w, http.StatusOK, models.ImagesResponse{Images: images})
}

// History возвращает историю генераций текущего пользователя.
// Маршрут закрыт middleware аутентификации.
func (h *ImageHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		log.Printf("[ImageHandler:History] Не удалось получить пользователя из контекста")
		writeUnauthorized(w, detailInvalidCredentials)
		return
	}

	limit := queryInt(r, "limit", defaultHistoryLimit)
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset := queryInt(r, "offset", 0)

	images, err := h.imageService.ListHistory(r.Context(), user.ID, limit, offset)
	if err != nil {
		log.Printf("[ImageHandler:History] Ошибка получения истории для '%s': %v", user.Username, err)
		writeError(w, http.StatusInternalServerError, detailInternalError)
		return
	}

	writeJSON(w, http.StatusOK, images)
}

// optionalUser пытается разрешить пользователя из Bearer токена, если он
// предъявлен. Любой отказ трактуется как анонимный запрос.
func (h *ImageHandler) optionalUser(r *http.Request) *models.User {
	tokenString, ok := middleware.BearerToken(r)
	if !ok {
		return nil
	}
	user, err := h.resolver.CurrentUser(r.Context(), tokenString)
	if err != nil {
		return nil
	}
	return user
}

// queryInt читает неотрицательный целочисленный query-параметр.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
