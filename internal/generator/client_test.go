package generator_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nikhilgadge18/TexttoImage/internal/generator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGenerator_Generate(t *testing.T) {
	pngData := []byte("fake-png-bytes")

	t.Run("Успешная генерация", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/generate", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "a cat in space", req["prompt"])
			// Параметры генерации передаются сервису инференса
			assert.InDelta(t, 35, req["num_inference_steps"], 0)
			assert.InDelta(t, 9, req["guidance_scale"], 0)

			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngData)
		}))
		defer server.Close()

		gen := generator.NewHTTPGenerator(server.URL)
		got, err := gen.Generate(context.Background(), "a cat in space")

		require.NoError(t, err)
		assert.Equal(t, pngData, got)
	})

	t.Run("Отклоненный промпт", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		gen := generator.NewHTTPGenerator(server.URL)
		_, err := gen.Generate(context.Background(), "bad prompt")

		require.ErrorIs(t, err, generator.ErrBadPrompt)
	})

	t.Run("Ошибка сервиса инференса", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		gen := generator.NewHTTPGenerator(server.URL)
		_, err := gen.Generate(context.Background(), "a cat")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "статус 500")
	})

	t.Run("Сервис недоступен", func(t *testing.T) {
		gen := generator.NewHTTPGenerator("http://127.0.0.1:1") // Закрытый порт
		_, err := gen.Generate(context.Background(), "a cat")

		require.Error(t, err)
	})
}

func TestHTTPGenerator_RemoveBackground(t *testing.T) {
	pngData := []byte("fake-png-bytes")
	strippedData := []byte("fake-png-no-bg")

	t.Run("Успешное удаление фона", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/remove-background", r.URL.Path)
			assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
			_, _ = w.Write(strippedData)
		}))
		defer server.Close()

		gen := generator.NewHTTPGenerator(server.URL)
		got, err := gen.RemoveBackground(context.Background(), pngData)

		require.NoError(t, err)
		assert.Equal(t, strippedData, got)
	})

	t.Run("Отмена контекста", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(strippedData)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		gen := generator.NewHTTPGenerator(server.URL)
		_, err := gen.RemoveBackground(ctx, pngData)

		require.Error(t, err)
	})
}
