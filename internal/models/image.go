package models

import "time"

// GeneratedImage представляет запись об одном сгенерированном изображении.
// Сами байты PNG лежат в объектном хранилище под ObjectKey.
type GeneratedImage struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Prompt    string    `db:"prompt" json:"prompt"`
	ObjectKey string    `db:"object_key" json:"object_key"`
	SizeBytes int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TextToImageRequest представляет тело запроса на генерацию изображений.
type TextToImageRequest struct {
	TextPrompts []string `json:"text_prompts"`
}

// ImagesResponse представляет тело ответа со сгенерированными изображениями
// (PNG в base64, в порядке исходных промптов).
type ImagesResponse struct {
	Images []string `json:"images"`
}
