package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// FileStorage определяет интерфейс для взаимодействия с объектным хранилищем.
type FileStorage interface {
	UploadImage(ctx context.Context, objectKey string, data []byte) error
	DownloadImage(ctx context.Context, objectKey string) ([]byte, error)
}

// MinioClient реализует FileStorage для MinIO.
type MinioClient struct {
	client     *minio.Client
	bucketName string
}

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string // Адрес MinIO (например, "localhost:9000")
	AccessKeyID     string // Логин
	SecretAccessKey string // Пароль
	UseSSL          bool   // Использовать SSL (обычно false для локальной разработки)
	BucketName      string // Имя бакета для хранения сгенерированных изображений
	Region          string // Регион (не обязательно для MinIO)
}

// NewMinioClient создает новый клиент MinIO и гарантирует наличие бакета.
func NewMinioClient(cfg MinioConfig) (*MinioClient, error) {
	log.Printf("[Minio] Инициализация клиента для эндпоинта %s...", cfg.Endpoint)

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	// Проверка существования бакета и создание при необходимости
	ctx := context.Background()
	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существования бакета '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		log.Printf("[Minio] Бакет '%s' не найден, попытка создания...", cfg.BucketName)
		if err = minioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("ошибка создания бакета '%s': %w", cfg.BucketName, err)
		}
		log.Printf("[Minio] Бакет '%s' успешно создан.", cfg.BucketName)
	}

	log.Printf("[Minio] Клиент успешно инициализирован для бакета '%s'.", cfg.BucketName)
	return &MinioClient{
		client:     minioClient,
		bucketName: cfg.BucketName,
	}, nil
}

// UploadImage загружает PNG в MinIO под указанным ключом.
func (c *MinioClient) UploadImage(ctx context.Context, objectKey string, data []byte) error {
	log.Printf("[Minio] Загрузка изображения '%s' в бакет '%s'...", objectKey, c.bucketName)

	opts := minio.PutObjectOptions{ContentType: "image/png"}

	uploadInfo, err := c.client.PutObject(ctx, c.bucketName, objectKey,
		bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		log.Printf("[Minio] Ошибка загрузки изображения '%s': %v", objectKey, err)
		return fmt.Errorf("ошибка загрузки изображения в MinIO: %w", err)
	}

	log.Printf("[Minio] Изображение '%s' успешно загружено, размер: %d, ETag: %s",
		objectKey, uploadInfo.Size, uploadInfo.ETag)
	return nil
}

// DownloadImage скачивает изображение из MinIO.
func (c *MinioClient) DownloadImage(ctx context.Context, objectKey string) ([]byte, error) {
	log.Printf("[Minio] Скачивание изображения '%s' из бакета '%s'...", objectKey, c.bucketName)

	object, err := c.client.GetObject(ctx, c.bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		log.Printf("[Minio] Ошибка получения изображения '%s': %v", objectKey, err)
		return nil, fmt.Errorf("ошибка получения изображения из MinIO: %w", err)
	}
	defer func() { _ = object.Close() }()

	data, err := io.ReadAll(object)
	if err != nil {
		// Ошибка NoSuchKey у minio-go проявляется только при чтении тела
		var minioErr minio.ErrorResponse
		if errors.As(err, &minioErr) && minioErr.Code == "NoSuchKey" {
			log.Printf("[Minio] Изображение '%s' не найдено в бакете '%s'", objectKey, c.bucketName)
			return nil, ErrObjectNotFound
		}
		log.Printf("[Minio] Ошибка чтения изображения '%s': %v", objectKey, err)
		return nil, fmt.Errorf("ошибка чтения изображения из MinIO: %w", err)
	}

	log.Printf("[Minio] Изображение '%s' успешно получено (%d байт)", objectKey, len(data))
	return data, nil
}

// Кастомная ошибка хранилища.
var (
	ErrObjectNotFound = errors.New("объект не найден в хранилище")
)
