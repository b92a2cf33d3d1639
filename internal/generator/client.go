// Package generator содержит клиент внешнего сервиса инференса диффузионной
// модели. Сама модель (Stable Diffusion) работает в отдельном процессе;
// этот сервис обращается к ней по HTTP.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Параметры генерации (совпадают с конфигурацией модели в сервисе инференса).
const (
	imageGenSteps         = 35
	imageGenGuidanceScale = 9
	imageGenWidth         = 400
	imageGenHeight        = 400

	defaultRequestTimeout = 120 * time.Second // Инференс на CPU может быть долгим
)

// ErrBadPrompt сигнализирует, что сервис инференса отклонил промпт (400).
var ErrBadPrompt = errors.New("сервис инференса отклонил промпт")

// Generator определяет интерфейс внешнего генератора изображений.
type Generator interface {
	// Generate генерирует PNG по текстовому промпту.
	Generate(ctx context.Context, prompt string) ([]byte, error)
	// RemoveBackground удаляет фон с PNG и возвращает результат.
	RemoveBackground(ctx context.Context, png []byte) ([]byte, error)
}

// generateRequest представляет тело запроса к сервису инференса.
type generateRequest struct {
	Prompt        string `json:"prompt"`
	Steps         int    `json:"num_inference_steps"`
	GuidanceScale int    `json:"guidance_scale"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
}

// httpGenerator реализует Generator поверх HTTP API сервиса инференса.
type httpGenerator struct {
	baseURL    string       // Базовый URL сервиса инференса, например "http://localhost:7860"
	httpClient *http.Client // HTTP клиент для выполнения запросов
}

// NewHTTPGenerator создает новый клиент сервиса инференса.
func NewHTTPGenerator(baseURL string) Generator {
	return &httpGenerator{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

// Generate отправляет промпт на сервис инференса и возвращает байты PNG.
func (g *httpGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	generateURL, err := url.JoinPath(g.baseURL, "/generate")
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования URL для генерации: %w", err)
	}

	requestBody := generateRequest{
		Prompt:        prompt,
		Steps:         imageGenSteps,
		GuidanceScale: imageGenGuidanceScale,
		Width:         imageGenWidth,
		Height:        imageGenHeight,
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования запроса на генерацию: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, generateURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса на генерацию: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return g.doImageRequest(req, "генерации")
}

// RemoveBackground отправляет PNG на сервис инференса и возвращает PNG без фона.
func (g *httpGenerator) RemoveBackground(ctx context.Context, png []byte) ([]byte, error) {
	removeURL, err := url.JoinPath(g.baseURL, "/remove-background")
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования URL для удаления фона: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, removeURL, bytes.NewReader(png))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса на удаление фона: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")

	return g.doImageRequest(req, "удаления фона")
}

// doImageRequest выполняет запрос и возвращает тело ответа (байты PNG).
func (g *httpGenerator) doImageRequest(req *http.Request, operation string) ([]byte, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса %s: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем чтение тела
	case http.StatusBadRequest:
		return nil, ErrBadPrompt
	default:
		return nil, fmt.Errorf("ошибка %s на сервисе инференса: статус %d", operation, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа %s: %w", operation, err)
	}
	return data, nil
}
