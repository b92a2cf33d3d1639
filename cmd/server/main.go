package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Драйвер PostgreSQL
	"github.com/nikhilgadge18/TexttoImage/internal/generator"
	"github.com/nikhilgadge18/TexttoImage/internal/handlers"
	appmiddleware "github.com/nikhilgadge18/TexttoImage/internal/middleware"
	"github.com/nikhilgadge18/TexttoImage/internal/repository"
	"github.com/nikhilgadge18/TexttoImage/internal/services"
	"github.com/nikhilgadge18/TexttoImage/internal/storage"
	"github.com/nikhilgadge18/TexttoImage/internal/token"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 180 * time.Second // Генерация изображений может занимать минуты
	defaultIdleTimeout  = 30 * time.Second
	shutdownTimeout     = 10 * time.Second

	// Переменные окружения для MinIO (значения по умолчанию из docker-compose).
	envMinioEndpoint     = "MINIO_ENDPOINT"
	envMinioUser         = "MINIO_USER"
	envMinioPassword     = "MINIO_PASSWORD"
	envMinioBucket       = "MINIO_BUCKET"
	defaultMinioEndpoint = "localhost:9000"
	defaultMinioUser     = "minioadmin"
	defaultMinioPassword = "minioadmin"
	defaultMinioBucket   = "generated-images"
	minioUseSSL          = false // Для локальной разработки
)

// Переменная для подмены в тестах.
var newPostgresDB = repository.NewPostgresDB

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	db           *sqlx.DB
	authService  services.AuthService
	authHandler  *handlers.AuthHandler
	imageHandler *handlers.ImageHandler
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(); err != nil {
		log.Printf("Ошибка выполнения сервера: %v", err)
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run() error {
	log.Println("Запуск сервера TextToImage...")

	cfg, err := parseFlags()
	if err != nil {
		return fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}

	// Инициализация зависимостей
	deps, err := setupDependencies(cfg)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	// Отложенное закрытие соединения с БД
	defer func() {
		if deps.db != nil {
			if closeErr := deps.db.Close(); closeErr != nil {
				log.Printf("Ошибка закрытия соединения с БД: %v", closeErr)
			}
		}
	}()

	// Настройка роутера
	r := setupRouter(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	// Останавливаем сервер по SIGINT/SIGTERM
	errCh := make(chan error, 1)
	go func() {
		if cfg.CertFile != "" && cfg.KeyFile != "" {
			log.Printf("Запуск HTTPS-сервера на порту %s...", cfg.Port)
			errCh <- server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			log.Printf("Запуск HTTP-сервера на порту %s...", cfg.Port)
			errCh <- server.ListenAndServe()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err = <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка запуска сервера: %w", err)
		}
	case sig := <-stop:
		log.Printf("Получен сигнал %v, останавливаем сервер...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err = server.Shutdown(ctx); err != nil {
			return fmt.Errorf("ошибка остановки сервера: %w", err)
		}
	}

	log.Println("Сервер остановлен.")
	return nil
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
func setupDependencies(cfg *config) (*dependencies, error) {
	deps := &dependencies{}
	var err error

	// 1. Подключение к БД
	deps.db, err = newPostgresDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
	}

	// 2. Инициализация клиента MinIO
	minioCfg := storage.MinioConfig{
		Endpoint:        getEnv(envMinioEndpoint, defaultMinioEndpoint),
		AccessKeyID:     getEnv(envMinioUser, defaultMinioUser),
		SecretAccessKey: getEnv(envMinioPassword, defaultMinioPassword),
		UseSSL:          minioUseSSL,
		BucketName:      getEnv(envMinioBucket, defaultMinioBucket),
	}
	fileStorage, err := storage.NewMinioClient(minioCfg)
	if err != nil {
		// Закрываем соединение с БД перед выходом
		if dbCloseErr := deps.db.Close(); dbCloseErr != nil {
			log.Printf("Ошибка закрытия соединения с БД при ошибке MinIO: %v", dbCloseErr)
		}
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	// 3. Создание репозиториев
	userRepo := repository.NewPostgresUserRepository(deps.db)
	imageRepo := repository.NewPostgresGeneratedImageRepository(deps.db)

	// 4. Создание сервисов
	// Секрет, алгоритм и TTL токенов приходят из конфигурации, а не зашиты в код
	tokenService, err := token.NewService(
		[]byte(cfg.JWTSecret),
		cfg.JWTAlgorithm,
		time.Duration(cfg.TokenTTLMinutes)*time.Minute,
	)
	if err != nil {
		if dbCloseErr := deps.db.Close(); dbCloseErr != nil {
			log.Printf("Ошибка закрытия соединения с БД при ошибке сервиса токенов: %v", dbCloseErr)
		}
		return nil, fmt.Errorf("ошибка инициализации сервиса токенов: %w", err)
	}
	deps.authService = services.NewAuthService(userRepo, tokenService)

	gen := generator.NewHTTPGenerator(cfg.InferenceURL)
	imageService := services.NewImageService(gen, fileStorage, imageRepo)

	// 5. Создание обработчиков
	deps.authHandler = handlers.NewAuthHandler(deps.authService)
	deps.imageHandler = handlers.NewImageHandler(imageService, deps.authService)

	return deps, nil
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(deps *dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// --- Маршруты --- //
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})

	// Публичные маршруты
	r.Post("/signup", deps.authHandler.Signup)
	r.Post("/token", deps.authHandler.Token)
	r.Post("/generate-images/", deps.imageHandler.GenerateImages)
	r.Post("/remove-background/", deps.imageHandler.RemoveBackground)

	// Приватные маршруты (требуют аутентификации)
	r.Group(func(r chi.Router) {
		// Применяем middleware аутентификации ко всей группе
		r.Use(appmiddleware.Authenticator(deps.authService))

		r.Get("/users/me", deps.authHandler.Me)
		r.Get("/users/me/images", deps.imageHandler.History)
	})

	return r
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
