package main

import (
	"fmt"
	"net/http"
	"time"

	"road-defect-go/internal/client"
	"road-defect-go/internal/config"
	"road-defect-go/internal/database"
	"road-defect-go/internal/events"
	"road-defect-go/internal/handler"
	"road-defect-go/internal/repository"
	"road-defect-go/internal/scoring"
	"road-defect-go/internal/service"
	"road-defect-go/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// Инициализируем логгер
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.Info("Запуск Road Defect API Server")

	// Получаем конфигурацию из переменных окружения
	cfg := config.LoadConfig()

	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	// Отсутствие обязательных ключей — фатальная ошибка запуска
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Ошибка конфигурации: %v", err)
	}

	// Инициализируем базу данных
	logger.Info("Подключение к базе данных...")
	if err := database.Connect(cfg); err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}

	// Выполняем миграции
	logger.Info("Выполнение миграций базы данных...")
	if err := database.Migrate(); err != nil {
		logger.Fatalf("Ошибка выполнения миграций: %v", err)
	}

	// Проверяем здоровье базы данных
	if err := database.HealthCheck(); err != nil {
		logger.Fatalf("База данных недоступна: %v", err)
	}

	logger.Info("База данных успешно подключена и готова к работе")

	// Инициализируем хранилище артефактов
	blobStore, err := storage.NewLocalBlobStore(
		cfg.Storage.StaticDir,
		cfg.Storage.BaseURL,
		cfg.Storage.SignSecret,
		time.Duration(cfg.Storage.URLTTLDays)*24*time.Hour,
		logger,
	)
	if err != nil {
		logger.Fatalf("Ошибка инициализации хранилища артефактов: %v", err)
	}

	// Инициализируем клиентов внешних сервисов
	streetView := client.NewStreetViewClient(
		cfg.Maps.APIKey,
		30*time.Second,
		logger,
	)
	classifier := client.NewClassifierClient(
		cfg.Classifier.BaseURL,
		cfg.Classifier.APIKey,
		cfg.Classifier.Workspace,
		cfg.Classifier.Workflow,
		time.Duration(cfg.Classifier.Timeout)*time.Second,
		logger,
	)

	// Публикация событий включается только при настроенных брокерах
	var publisher events.Publisher
	if cfg.Kafka.BootstrapServers != "" {
		publisher, err = events.NewKafkaPublisher(cfg.Kafka.BootstrapServers, cfg.Kafka.Topic, logger)
		if err != nil {
			logger.Fatalf("Ошибка инициализации Kafka продюсера: %v", err)
		}
		defer publisher.Close()
	}

	// Инициализируем репозитории
	reportRepo := repository.NewReportRepository(database.DB)

	// Инициализируем сервисы
	acquisitionService := service.NewAcquisitionService(streetView, logger)
	reportService := service.NewReportService(reportRepo, blobStore, logger)
	scorer := scoring.NewCalculator(cfg.Scoring.BaseMultiplier)
	analyzerService := service.NewAnalyzerService(
		acquisitionService,
		classifier,
		reportService,
		scorer,
		publisher,
		logger,
	)

	// Инициализируем обработчики
	defectHandler := handler.NewDefectHandler(analyzerService, reportService, classifier, blobStore, logger)

	// Настраиваем Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Добавляем middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Регистрируем маршруты
	defectHandler.RegisterRoutes(router)

	// Добавляем базовый маршрут для проверки
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Road Defect API Server is running!",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	// Запускаем сервер
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Сервер запущен на %s", serverAddr)
	logger.Infof("API доступно по адресу: http://localhost:%d/api/v1/ai", cfg.Server.Port)

	if err := router.Run(serverAddr); err != nil {
		logger.Fatalf("Ошибка запуска сервера: %v", err)
	}
}

// corsMiddleware добавляет заголовки CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
