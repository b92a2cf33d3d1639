package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
)

const (
	// Порт по умолчанию.
	defaultServerPort = "8000"
	// Время жизни токена доступа по умолчанию (в минутах).
	defaultTokenTTLMinutes = 30
	// Адрес сервиса инференса по умолчанию.
	defaultInferenceURL = "http://localhost:7860"
	// Алгоритм подписи токенов по умолчанию.
	defaultJWTAlgorithm = "HS256"

	// Переменные окружения.
	envServerPort      = "SERVER_PORT"
	envTLSCertFile     = "TLS_CERT_FILE"
	envTLSKeyFile      = "TLS_KEY_FILE"
	envDatabaseDSN     = "DATABASE_DSN"
	envJWTSecret       = "JWT_SECRET" //nolint:gosec // Это имя переменной окружения, а не секрет
	envJWTAlgorithm    = "JWT_ALGORITHM"
	envTokenTTLMinutes = "ACCESS_TOKEN_EXPIRE_MINUTES"
	envInferenceURL    = "INFERENCE_URL"
)

// config хранит конфигурацию сервера.
type config struct {
	Port            string
	CertFile        string
	KeyFile         string
	DatabaseDSN     string
	JWTSecret       string
	JWTAlgorithm    string
	TokenTTLMinutes int
	InferenceURL    string
}

// parseFlags разбирает флаги и переменные окружения, возвращает config или ошибку.
// Флаг имеет приоритет над переменной окружения.
func parseFlags() (*config, error) {
	cfg := &config{}

	// Определяем флаги
	flag.StringVar(&cfg.Port, "port", "",
		fmt.Sprintf("Порт для запуска сервера (env: %s, default: %s)", envServerPort, defaultServerPort))
	flag.StringVar(&cfg.CertFile, "cert-file", "",
		fmt.Sprintf("Путь к файлу TLS-сертификата, необязательно (env: %s)", envTLSCertFile))
	flag.StringVar(&cfg.KeyFile, "key-file", "",
		fmt.Sprintf("Путь к файлу TLS-ключа, необязательно (env: %s)", envTLSKeyFile))
	flag.StringVar(&cfg.DatabaseDSN, "database-dsn", "",
		fmt.Sprintf("Строка подключения к базе данных (env: %s)", envDatabaseDSN))
	flag.StringVar(&cfg.JWTSecret, "jwt-secret", "",
		fmt.Sprintf("Секретный ключ для подписи токенов (env: %s)", envJWTSecret))
	flag.StringVar(&cfg.JWTAlgorithm, "jwt-algorithm", "",
		fmt.Sprintf("Алгоритм подписи токенов (env: %s, default: %s)", envJWTAlgorithm, defaultJWTAlgorithm))
	flag.IntVar(&cfg.TokenTTLMinutes, "token-ttl-minutes", 0,
		fmt.Sprintf("Время жизни токена доступа в минутах (env: %s, default: %d)",
			envTokenTTLMinutes, defaultTokenTTLMinutes))
	flag.StringVar(&cfg.InferenceURL, "inference-url", "",
		fmt.Sprintf("Адрес сервиса инференса (env: %s, default: %s)", envInferenceURL, defaultInferenceURL))

	// Парсим флаги
	flag.Parse()

	// Применяем переменные окружения, если флаги не заданы
	if cfg.Port == "" {
		if value, ok := os.LookupEnv(envServerPort); ok {
			cfg.Port = value
		} else {
			cfg.Port = defaultServerPort
		}
	}
	if cfg.CertFile == "" {
		if value, ok := os.LookupEnv(envTLSCertFile); ok {
			cfg.CertFile = value
		}
	}
	if cfg.KeyFile == "" {
		if value, ok := os.LookupEnv(envTLSKeyFile); ok {
			cfg.KeyFile = value
		}
	}
	if cfg.DatabaseDSN == "" {
		if value, ok := os.LookupEnv(envDatabaseDSN); ok {
			cfg.DatabaseDSN = value
		}
	}
	if cfg.JWTSecret == "" {
		if value, ok := os.LookupEnv(envJWTSecret); ok {
			cfg.JWTSecret = value
		}
	}
	if cfg.JWTAlgorithm == "" {
		if value, ok := os.LookupEnv(envJWTAlgorithm); ok {
			cfg.JWTAlgorithm = value
		} else {
			cfg.JWTAlgorithm = defaultJWTAlgorithm
		}
	}
	if cfg.TokenTTLMinutes == 0 {
		if value, ok := os.LookupEnv(envTokenTTLMinutes); ok {
			minutes, err := strconv.Atoi(value)
			if err != nil || minutes <= 0 {
				return nil, fmt.Errorf("некорректное значение %s: %q", envTokenTTLMinutes, value)
			}
			cfg.TokenTTLMinutes = minutes
		} else {
			cfg.TokenTTLMinutes = defaultTokenTTLMinutes
		}
	}
	if cfg.InferenceURL == "" {
		if value, ok := os.LookupEnv(envInferenceURL); ok {
			cfg.InferenceURL = value
		} else {
			cfg.InferenceURL = defaultInferenceURL
		}
	}

	// Проверяем обязательные параметры
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("не указана строка подключения к БД (--database-dsn или " + envDatabaseDSN + ")")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("не указан секретный ключ для подписи токенов (--jwt-secret или " + envJWTSecret + ")")
	}
	// TLS включается только при наличии обеих частей пары
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, errors.New("для TLS нужны оба параметра: --cert-file и --key-file")
	}

	return cfg, nil
}
