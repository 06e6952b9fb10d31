package service

import (
	"sync"

	"road-defect-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// ImageryProvider источник панорам улиц и геокодирования
type ImageryProvider interface {
	// ReverseGeocode возвращает название улицы, "Unknown Street" при сбое
	ReverseGeocode(lat, lng float64) string
	// ImageMetadata сообщает, есть ли панорама для направления, и дату её съёмки
	ImageMetadata(lat, lng float64, heading int) (bool, string)
	// FetchImage загружает панораму для направления
	FetchImage(lat, lng float64, heading int) ([]byte, error)
}

// AcquisitionService собирает снимки улицы вокруг координаты
type AcquisitionService struct {
	imagery ImageryProvider
	logger  *logrus.Logger
}

// NewAcquisitionService создает новый сервис сбора снимков
func NewAcquisitionService(imagery ImageryProvider, logger *logrus.Logger) *AcquisitionService {
	return &AcquisitionService{
		imagery: imagery,
		logger:  logger,
	}
}

// Acquire получает название улицы и до четырёх снимков по фиксированным
// направлениям. Улица геокодируется один раз на вызов. Направление без
// панорамы молча пропускается и не мешает остальным.
func (s *AcquisitionService) Acquire(coord models.Coordinates) *models.CaptureResult {
	s.logger.Infof("Собираем снимки улицы для координаты (%.6f, %.6f)", coord.Lat, coord.Lng)

	streetName := s.imagery.ReverseGeocode(coord.Lat, coord.Lng)
	s.logger.Infof("Улица определена как: %s", streetName)

	// Направления независимы, загружаем их параллельно.
	// Слоты фиксированы по индексу, порядок результата стабилен.
	var captured [len(models.Headings)]*models.CapturedImage
	var wg sync.WaitGroup

	for i, heading := range models.Headings {
		wg.Add(1)
		go func(slot, heading int) {
			defer wg.Done()
			captured[slot] = s.captureHeading(coord, heading)
		}(i, heading)
	}

	wg.Wait()

	images := make([]models.CapturedImage, 0, len(captured))
	for _, image := range captured {
		if image != nil {
			images = append(images, *image)
		}
	}

	s.logger.Infof("Получено %d из %d снимков", len(images), len(models.Headings))

	return &models.CaptureResult{
		StreetName: streetName,
		Images:     images,
	}
}

// captureHeading загружает один снимок: сначала метаданные, затем само
// изображение. Любой сбой означает пропуск направления.
func (s *AcquisitionService) captureHeading(coord models.Coordinates, heading int) *models.CapturedImage {
	exists, takenDate := s.imagery.ImageMetadata(coord.Lat, coord.Lng, heading)
	if !exists {
		s.logger.Debugf("Панорама для направления %d отсутствует", heading)
		return nil
	}

	data, err := s.imagery.FetchImage(coord.Lat, coord.Lng, heading)
	if err != nil {
		s.logger.Warnf("Не удалось загрузить панораму для направления %d: %v", heading, err)
		return nil
	}

	return &models.CapturedImage{
		Heading:   heading,
		Data:      data,
		TakenDate: takenDate,
	}
}
