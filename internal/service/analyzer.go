package service

import (
	"road-defect-go/internal/events"
	"road-defect-go/internal/scoring"
	"road-defect-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// RetakePhotoMessage ответ пользователю, когда на ручном фото дефектов нет
const RetakePhotoMessage = "No road damages detected in the picture, please take a better picture"

// Classifier внешний сервис инференса: изображение на входе, обнаружения на выходе
type Classifier interface {
	Classify(image []byte) (*models.ClassifyResult, error)
	Name() string
}

// AnalyzerService оркестратор конвейера подтверждения дефектов
type AnalyzerService struct {
	acquisition *AcquisitionService
	classifier  Classifier
	reports     *ReportService
	scorer      *scoring.Calculator
	publisher   events.Publisher // nil — публикация событий выключена
	logger      *logrus.Logger
}

// NewAnalyzerService создает новый оркестратор конвейера
func NewAnalyzerService(
	acquisition *AcquisitionService,
	classifier Classifier,
	reports *ReportService,
	scorer *scoring.Calculator,
	publisher events.Publisher,
	logger *logrus.Logger,
) *AnalyzerService {
	return &AnalyzerService{
		acquisition: acquisition,
		classifier:  classifier,
		reports:     reports,
		scorer:      scorer,
		publisher:   publisher,
		logger:      logger,
	}
}

// AnalyzeSensor обрабатывает сигнал датчика: собирает панорамы вокруг
// координаты, прогоняет их через классификатор, агрегирует доказательства и
// сохраняет отчёт. Возвращает nil без ошибки, когда дефект не найден или
// отчёт не удалось сохранить: наружу в обоих случаях уходит null.
func (s *AnalyzerService) AnalyzeSensor(request models.AnalyzeRequest) (*models.DefectResponse, error) {
	coord := models.Coordinates{Lat: request.Lat, Lng: request.Lng}

	capture := s.acquisition.Acquire(coord)

	verdicts := s.classifyBatch(capture.Images)

	bundle := AggregateEvidence(verdicts, capture.StreetName)
	if bundle == nil {
		s.logger.Infof("Дефекты дороги для координаты (%.6f, %.6f) не найдены", coord.Lat, coord.Lng)
		return nil, nil
	}

	score := s.scorer.Score(bundle.AvgConfidence, bundle.DetectionCount, bundle.TakenDate)
	s.logger.Infof("Дефект найден! Средняя уверенность %.3f, обнаружений %d, оценка %.3f",
		bundle.AvgConfidence, bundle.DetectionCount, score)

	meta := ReportMetadata{
		Lat:         coord.Lat,
		Lng:         coord.Lng,
		DefectScore: score,
	}

	id, err := s.reports.Persist(bundle, meta, models.LineageSensor)
	if err != nil {
		// Сбой сохранения не должен уронить запрос: наружу уходит null
		s.logger.Errorf("Не удалось сохранить отчёт датчика: %v", err)
		return nil, nil
	}

	s.publishDefectFound(id, coord, bundle, score)

	return &models.DefectResponse{ID: id}, nil
}

// AnalyzeManual обрабатывает фотографию, отправленную пользователем.
// При отсутствии обнаружений отчёт не создаётся, пользователь получает
// просьбу переснять фото.
func (s *AnalyzerService) AnalyzeManual(request models.ReportRequest, image []byte) (*models.DefectResponse, error) {
	result, err := s.classifier.Classify(image)
	if err != nil {
		// Недоступный классификатор приравниваем к нулю обнаружений
		s.logger.Errorf("Ошибка классификации ручного фото: %v", err)
		return &models.DefectResponse{Message: RetakePhotoMessage}, nil
	}

	if len(result.Predictions) == 0 {
		s.logger.Info("На ручном фото дефекты не обнаружены")
		return &models.DefectResponse{Message: RetakePhotoMessage}, nil
	}

	verdict := models.ImageVerdict{
		Image:      models.CapturedImage{Data: image},
		Detections: result.Predictions,
		Original:   result.OriginalImage,
		Annotated:  result.AnnotatedImage,
	}

	bundle := AggregateEvidence([]models.ImageVerdict{verdict}, "")

	meta := ReportMetadata{
		Lat:         request.Lat,
		Lng:         request.Lng,
		Title:       request.Title,
		Description: request.Description,
	}

	id, err := s.reports.Persist(bundle, meta, models.LineageManual)
	if err != nil {
		s.logger.Errorf("Не удалось сохранить ручной отчёт: %v", err)
		return nil, err
	}

	return &models.DefectResponse{ID: id}, nil
}

// classifyBatch прогоняет снимки через классификатор, оставляя только те,
// где найден хотя бы один дефект. Сбой на одном кадре не прерывает остальные.
func (s *AnalyzerService) classifyBatch(images []models.CapturedImage) []models.ImageVerdict {
	verdicts := make([]models.ImageVerdict, 0, len(images))

	for i, image := range images {
		s.logger.Infof("Анализируем снимок %d/%d (направление %d)", i+1, len(images), image.Heading)

		result, err := s.classifier.Classify(image.Data)
		if err != nil {
			s.logger.Warnf("Классификатор недоступен для снимка %d, пропускаем: %v", i+1, err)
			continue
		}

		if len(result.Predictions) == 0 {
			continue
		}

		verdicts = append(verdicts, models.ImageVerdict{
			Image:      image,
			Detections: result.Predictions,
			Original:   result.OriginalImage,
			Annotated:  result.AnnotatedImage,
		})
	}

	return verdicts
}

// publishDefectFound отправляет событие о найденном дефекте, если публикация
// включена. Сбой публикации только логируется
func (s *AnalyzerService) publishDefectFound(id string, coord models.Coordinates, bundle *models.EvidenceBundle, score float64) {
	if s.publisher == nil {
		return
	}

	event := models.DefectFoundEvent{
		ReportID:        id,
		Lat:             coord.Lat,
		Lng:             coord.Lng,
		StreetName:      bundle.StreetName,
		DefectScore:     score,
		DetectedClasses: bundle.DetectedClasses,
	}

	if err := s.publisher.PublishDefectFound(event); err != nil {
		s.logger.Warnf("Не удалось опубликовать событие о дефекте %s: %v", id, err)
	}
}
