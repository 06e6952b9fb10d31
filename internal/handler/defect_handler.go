package handler

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"road-defect-go/internal/database"
	"road-defect-go/internal/service"
	"road-defect-go/internal/storage"
	"road-defect-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DefectHandler обрабатывает HTTP запросы анализа дефектов дорог
type DefectHandler struct {
	analyzerService *service.AnalyzerService
	reportService   *service.ReportService
	classifier      service.Classifier
	blobs           *storage.LocalBlobStore
	logger          *logrus.Logger
}

// NewDefectHandler создает новый экземпляр DefectHandler
func NewDefectHandler(
	analyzerService *service.AnalyzerService,
	reportService *service.ReportService,
	classifier service.Classifier,
	blobs *storage.LocalBlobStore,
	logger *logrus.Logger,
) *DefectHandler {
	return &DefectHandler{
		analyzerService: analyzerService,
		reportService:   reportService,
		classifier:      classifier,
		blobs:           blobs,
		logger:          logger,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *DefectHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/ai")
	{
		api.POST("/analyze-sensor", h.AnalyzeSensor)
		api.POST("/analyze-manual-report", h.AnalyzeManual)
		api.GET("/reports", h.ListReports)
		api.GET("/reports/:id", h.GetReport)
		api.DELETE("/reports/:id", h.DeleteReport)
		api.GET("/health", h.CheckHealth)
	}

	// Артефакты отдаются только по подписанным ссылкам
	router.GET("/static/*path", h.ServeArtifact)
}

// AnalyzeSensor обрабатывает сигнал датчика о возможном дефекте дороги.
// Возвращает id созданного отчёта или JSON null, если дефект не подтвердился
func (h *DefectHandler) AnalyzeSensor(c *gin.Context) {
	h.logger.Info("Получен запрос на анализ координаты датчика")

	var request models.AnalyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Errorf("Ошибка парсинга запроса: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Поля lat и lng обязательны"})
		return
	}

	if err := validateCoordinates(request.Lat, request.Lng); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.analyzerService.AnalyzeSensor(request)
	if err != nil {
		h.logger.Errorf("Ошибка сервиса анализа: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка сервера"})
		return
	}

	if response == nil {
		// Дефект не найден: наружу уходит null, это не ошибка
		c.JSON(http.StatusOK, nil)
		return
	}

	c.JSON(http.StatusOK, response)
}

// AnalyzeManual обрабатывает ручную отправку фотографии дефекта
func (h *DefectHandler) AnalyzeManual(c *gin.Context) {
	h.logger.Info("Получен ручной отчёт о дефекте")

	var request models.ReportRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Errorf("Ошибка парсинга запроса: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Поля title, description, lat, lng и image обязательны"})
		return
	}

	if err := validateCoordinates(request.Lat, request.Lng); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	image, err := decodeBase64Image(request.Image)
	if err != nil {
		h.logger.Errorf("Ошибка декодирования изображения: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Поле image должно содержать корректный base64"})
		return
	}

	response, err := h.analyzerService.AnalyzeManual(request, image)
	if err != nil {
		h.logger.Errorf("Ошибка обработки ручного отчёта: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка сервера"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListReports возвращает все отчёты коллекции (sensor по умолчанию)
func (h *DefectHandler) ListReports(c *gin.Context) {
	collection := c.DefaultQuery("collection", string(models.LineageSensor))

	var lineage models.Lineage
	switch collection {
	case string(models.LineageSensor):
		lineage = models.LineageSensor
	case string(models.LineageManual):
		lineage = models.LineageManual
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "collection должен быть sensor или manual"})
		return
	}

	reports, err := h.reportService.ListReports(lineage)
	if err != nil {
		h.logger.Errorf("Ошибка получения отчётов: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка сервера"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"total":   len(reports),
	})
}

// GetReport возвращает один отчёт по ID
func (h *DefectHandler) GetReport(c *gin.Context) {
	id := c.Param("id")

	report, err := h.reportService.GetReport(id)
	if err != nil {
		h.logger.Errorf("Ошибка получения отчёта %s: %v", id, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Отчёт не найден"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// DeleteReport удаляет отчёт по ID
func (h *DefectHandler) DeleteReport(c *gin.Context) {
	id := c.Param("id")

	if err := h.reportService.DeleteReport(id); err != nil {
		h.logger.Errorf("Ошибка удаления отчёта %s: %v", id, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Отчёт не найден"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Отчёт успешно удален"})
}

// CheckHealth проверяет состояние сервиса и его зависимостей
func (h *DefectHandler) CheckHealth(c *gin.Context) {
	h.logger.Debug("Получен запрос проверки здоровья")

	dbReady := database.HealthCheck() == nil

	health := models.HealthResponse{
		Status:         "healthy",
		DatabaseReady:  dbReady,
		ClassifierName: h.classifier.Name(),
		Version:        "1.0.0",
	}

	statusCode := http.StatusOK
	if !dbReady {
		health.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// ServeArtifact отдаёт артефакт по подписанной ссылке
func (h *DefectHandler) ServeArtifact(c *gin.Context) {
	relPath := strings.TrimPrefix(c.Param("path"), "/")
	expires := c.Query("expires")
	sig := c.Query("sig")

	if !h.blobs.Verify(relPath, expires, sig) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Подпись ссылки недействительна или истекла"})
		return
	}

	fullPath, err := h.blobs.Resolve(relPath)
	if err != nil {
		h.logger.Warnf("Отклонен запрос артефакта %s: %v", relPath, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Артефакт не найден"})
		return
	}

	c.File(fullPath)
}

// decodeBase64Image декодирует base64 изображение, отбрасывая data-URL префикс
func decodeBase64Image(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ","); idx != -1 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// validateCoordinates валидирует координаты
func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("lat должен быть в диапазоне от -90 до 90")
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("lng должен быть в диапазоне от -180 до 180")
	}
	return nil
}
