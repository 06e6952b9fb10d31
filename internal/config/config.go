package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Port        int
		Host        string
		Environment string
	}
	Database struct {
		Host     string
		Port     string
		Name     string
		User     string
		Password string
		SSLMode  string
	}
	Maps struct {
		APIKey string
	}
	Classifier struct {
		BaseURL   string
		APIKey    string
		Workspace string
		Workflow  string
		Timeout   int // в секундах
	}
	Storage struct {
		StaticDir  string
		BaseURL    string
		SignSecret string
		URLTTLDays int
	}
	Scoring struct {
		BaseMultiplier float64
	}
	Kafka struct {
		BootstrapServers string // пусто — публикация событий выключена
		Topic            string
	}
	Logging struct {
		Level string
	}
}

// LoadConfig загружает конфигурацию из .env файла и переменных окружения
func LoadConfig() *Config {
	// .env не обязателен, переменные окружения имеют приоритет
	_ = godotenv.Load()

	cfg := &Config{}

	// Конфигурация сервера
	cfg.Server.Port = getEnvInt("SERVER_PORT", 8001)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.Server.Environment = getEnv("ENVIRONMENT", "development")

	// Конфигурация базы данных
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.Name = getEnv("DB_NAME", "road_defects")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres123")
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", "disable")

	// Конфигурация провайдера панорам и геокодирования
	cfg.Maps.APIKey = getEnv("MAPS_API_KEY", "")

	// Конфигурация сервиса инференса
	cfg.Classifier.BaseURL = getEnv("CLASSIFIER_BASE_URL", "https://serverless.roboflow.com")
	cfg.Classifier.APIKey = getEnv("CLASSIFIER_API_KEY", "")
	cfg.Classifier.Workspace = getEnv("CLASSIFIER_WORKSPACE", "safe-road")
	cfg.Classifier.Workflow = getEnv("CLASSIFIER_WORKFLOW", "tilik-jalan")
	cfg.Classifier.Timeout = getEnvInt("CLASSIFIER_TIMEOUT_SECONDS", 120)

	// Конфигурация хранилища артефактов
	cfg.Storage.StaticDir = getEnv("STATIC_DIR", "./static")
	cfg.Storage.BaseURL = getEnv("STORAGE_BASE_URL", "http://localhost:8001")
	cfg.Storage.SignSecret = getEnv("STORAGE_SIGN_SECRET", "")
	cfg.Storage.URLTTLDays = getEnvInt("STORAGE_URL_TTL_DAYS", 3650) // ~10 лет по умолчанию

	// Конфигурация скоринга
	cfg.Scoring.BaseMultiplier = getEnvFloat("SCORE_BASE_MULTIPLIER", 30.0)

	// Конфигурация Kafka (опционально)
	cfg.Kafka.BootstrapServers = getEnv("KAFKA_BOOTSTRAP_SERVERS", "")
	cfg.Kafka.Topic = getEnv("KAFKA_DEFECT_TOPIC", "road-defects")

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	return cfg
}

// Validate проверяет обязательные параметры, без которых сервис не может работать
func (c *Config) Validate() error {
	if c.Maps.APIKey == "" {
		return fmt.Errorf("MAPS_API_KEY не задан")
	}
	if c.Classifier.APIKey == "" {
		return fmt.Errorf("CLASSIFIER_API_KEY не задан")
	}
	if c.Storage.SignSecret == "" {
		return fmt.Errorf("STORAGE_SIGN_SECRET не задан")
	}
	return nil
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает float64 значение переменной окружения или возвращает значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
