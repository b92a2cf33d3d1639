package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/nikhilgadge18/TexttoImage/internal/generator"
	"github.com/nikhilgadge18/TexttoImage/internal/models"
	"github.com/nikhilgadge18/TexttoImage/internal/repository"
	"github.com/nikhilgadge18/TexttoImage/internal/storage"
)

// ImageService определяет интерфейс для сервиса генерации изображений.
type ImageService interface {
	GenerateImages(ctx context.Context, user *models.User, prompts []string) ([]string, error)
	RemoveBackground(ctx context.Context, user *models.User, prompts []string) ([]string, error)
	ListHistory(ctx context.Context, userID int64, limit, offset int) ([]models.GeneratedImage, error)
}

// Убедимся, что imageService удовлетворяет интерфейсу ImageService.
var _ ImageService = (*imageService)(nil)

type imageService struct {
	gen       generator.Generator                 // Внешний сервис инференса
	files     storage.FileStorage                 // Объектное хранилище PNG
	imageRepo repository.GeneratedImageRepository // История генераций
}

// NewImageService создает новый экземпляр сервиса изображений.
func NewImageService(
	gen generator.Generator,
	files storage.FileStorage,
	imageRepo repository.GeneratedImageRepository,
) ImageService {
	return &imageService{gen: gen, files: files, imageRepo: imageRepo}
}

// GenerateImages генерирует по изображению на каждый промпт и возвращает
// PNG в base64, в порядке исходных промптов.
// user может быть nil: генерация доступна без аутентификации, но тогда
// результат не попадает в историю.
func (s *imageService) GenerateImages(
	ctx context.Context,
	user *models.User,
	prompts []string,
) ([]string, error) {
	return s.generate(ctx, user, prompts, false)
}

// RemoveBackground генерирует изображения и удаляет с них фон.
func (s *imageService) RemoveBackground(
	ctx context.Context,
	user *models.User,
	prompts []string,
) ([]string, error) {
	return s.generate(ctx, user, prompts, true)
}

// ListHistory возвращает историю генераций пользователя.
func (s *imageService) ListHistory(
	ctx context.Context,
	userID int64,
	limit, offset int,
) ([]models.GeneratedImage, error) {
	images, err := s.imageRepo.ListImagesByUserID(ctx, userID, limit, offset)
	if err != nil {
		log.Printf("[ImageService] Ошибка получения истории для пользователя ID %d: %v", userID, err)
		return nil, errors.New("внутренняя ошибка сервера при получении истории генераций")
	}
	return images, nil
}

func (s *imageService) generate(
	ctx context.Context,
	user *models.User,
	prompts []string,
	stripBackground bool,
) ([]string, error) {
	if len(prompts) == 0 {
		return nil, ErrNoPrompts
	}

	encoded := make([]string, 0, len(prompts))
	for _, prompt := range prompts {
		png, err := s.gen.Generate(ctx, prompt)
		if err != nil {
			log.Printf("[ImageService] Ошибка генерации по промпту %q: %v", prompt, err)
			return nil, fmt.Errorf("ошибка генерации изображения: %w", err)
		}

		if stripBackground {
			png, err = s.gen.RemoveBackground(ctx, png)
			if err != nil {
				log.Printf("[ImageService] Ошибка удаления фона по промпту %q: %v", prompt, err)
				return nil, fmt.Errorf("ошибка удаления фона: %w", err)
			}
		}

		encoded = append(encoded, base64.StdEncoding.EncodeToString(png))

		// Сохраняем в хранилище тот же PNG, что уходит клиенту
		// (после удаления фона, если оно запрошено), и пишем запись
		// в историю. Изображение уже сгенерировано, поэтому сбой
		// сохранения не отменяет ответ клиенту.
		if user != nil {
			s.archive(ctx, user, prompt, png)
		}
	}

	return encoded, nil
}

// archive загружает PNG в объектное хранилище и создает запись в истории.
func (s *imageService) archive(ctx context.Context, user *models.User, prompt string, png []byte) {
	objectKey := fmt.Sprintf("%s/%s.png", user.Username, uuid.NewString())

	if err := s.files.UploadImage(ctx, objectKey, png); err != nil {
		log.Printf("[ImageService] Не удалось сохранить '%s' в хранилище: %v", objectKey, err)
		return
	}

	record := &models.GeneratedImage{
		UserID:    user.ID,
		Prompt:    prompt,
		ObjectKey: objectKey,
		SizeBytes: int64(len(png)),
	}
	if _, err := s.imageRepo.CreateImage(ctx, record); err != nil {
		log.Printf("[ImageService] Не удалось записать историю для '%s': %v", objectKey, err)
	}
}

// Кастомные ошибки сервиса.
var (
	ErrNoPrompts = errors.New("список промптов пуст")
)
