package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"road-defect-go/internal/model"
	"road-defect-go/internal/repository"
	"road-defect-go/internal/storage"
	"road-defect-go/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// ErrNoArtifacts ни один артефакт не загрузился, отчёт создавать не к чему
var ErrNoArtifacts = errors.New("no artifacts were uploaded for the report")

// timestampLayout формат нормализации времени создания при чтении отчётов
const timestampLayout = "2006-01-02 15:04:05"

// ReportMetadata метаданные отчёта, передаваемые вызывающей стороной
type ReportMetadata struct {
	Lat         float64
	Lng         float64
	Title       string
	Description string
	DefectScore float64
	Extra       map[string]any
}

// PersistInput один отчёт в составе батча
type PersistInput struct {
	Bundle   *models.EvidenceBundle
	Metadata ReportMetadata
	Lineage  models.Lineage
}

// ReportService сохраняет подтверждённые дефекты: артефакты в хранилище блобов,
// запись в базу данных
type ReportService struct {
	repo   repository.ReportRepository
	blobs  storage.BlobStore
	logger *logrus.Logger
}

// NewReportService создает новый сервис сохранения отчётов
func NewReportService(repo repository.ReportRepository, blobs storage.BlobStore, logger *logrus.Logger) *ReportService {
	return &ReportService{
		repo:   repo,
		blobs:  blobs,
		logger: logger,
	}
}

// Persist загружает артефакты и создает один отчёт о дефекте.
// Пара (оригинал, аннотированная копия) попадает в отчёт только если
// загрузились оба файла. Если не выжила ни одна пара — ErrNoArtifacts,
// запись в базу не создаётся.
func (s *ReportService) Persist(bundle *models.EvidenceBundle, meta ReportMetadata, lineage models.Lineage) (string, error) {
	report, err := s.buildReport(bundle, meta, lineage)
	if err != nil {
		return "", err
	}

	s.logger.Infof("Сохраняем отчёт %s в базу данных (%d пар артефактов)", report.ID, len(report.Images))
	if err := s.repo.Create(report); err != nil {
		s.logger.Errorf("Ошибка сохранения отчёта в БД: %v", err)
		return "", fmt.Errorf("failed to persist defect report: %w", err)
	}

	s.logger.Infof("Отчёт %s успешно сохранен", report.ID)
	return report.ID, nil
}

// PersistBatch создает несколько отчётов в одной транзакции: либо все, либо
// ни одного. Отчёты без единой выжившей пары артефактов в батч не попадают.
func (s *ReportService) PersistBatch(inputs []PersistInput) ([]string, error) {
	reports := make([]*model.DefectReport, 0, len(inputs))
	for _, input := range inputs {
		report, err := s.buildReport(input.Bundle, input.Metadata, input.Lineage)
		if err != nil {
			if errors.Is(err, ErrNoArtifacts) {
				s.logger.Warnf("Пропускаем отчёт без артефактов для (%.6f, %.6f)", input.Metadata.Lat, input.Metadata.Lng)
				continue
			}
			return nil, err
		}
		reports = append(reports, report)
	}

	if len(reports) == 0 {
		return nil, ErrNoArtifacts
	}

	if err := s.repo.CreateBatch(reports); err != nil {
		s.logger.Errorf("Ошибка сохранения батча отчётов: %v", err)
		return nil, fmt.Errorf("failed to persist report batch: %w", err)
	}

	ids := make([]string, len(reports))
	for i, report := range reports {
		ids[i] = report.ID
	}

	s.logger.Infof("Батч из %d отчётов успешно сохранен", len(ids))
	return ids, nil
}

// buildReport загружает артефакты и собирает модель отчёта, но не пишет её в БД
func (s *ReportService) buildReport(bundle *models.EvidenceBundle, meta ReportMetadata, lineage models.Lineage) (*model.DefectReport, error) {
	images := s.uploadArtifacts(bundle, lineage)
	if len(images) == 0 {
		s.logger.Error("Не удалось загрузить ни одного артефакта для отчёта")
		return nil, ErrNoArtifacts
	}

	var extra datatypes.JSON
	if len(meta.Extra) > 0 {
		raw, err := json.Marshal(meta.Extra)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal report metadata: %w", err)
		}
		extra = datatypes.JSON(raw)
	}

	return &model.DefectReport{
		ID:              uuid.New().String(),
		Lineage:         string(lineage),
		Lat:             meta.Lat,
		Lng:             meta.Lng,
		StreetName:      bundle.StreetName,
		TakenDate:       bundle.TakenDate,
		Title:           meta.Title,
		Description:     meta.Description,
		AvgConfidence:   bundle.AvgConfidence,
		DetectedClasses: model.JoinClasses(bundle.DetectedClasses),
		DefectScore:     meta.DefectScore,
		Extra:           extra,
		Images:          images,
	}, nil
}

// uploadArtifacts загружает пары артефактов в хранилище блобов.
// Сбой загрузки исключает пару из отчёта, но не прерывает остальные.
func (s *ReportService) uploadArtifacts(bundle *models.EvidenceBundle, lineage models.Lineage) []model.ReportImage {
	originalPrefix := fmt.Sprintf("original_%s", lineage)
	annotatedPrefix := fmt.Sprintf("annotated_%s", lineage)

	images := make([]model.ReportImage, 0, len(bundle.OriginalImages))
	for i := range bundle.OriginalImages {
		originalURL, err := s.blobs.Upload(originalPrefix, bundle.OriginalImages[i])
		if err != nil {
			s.logger.Warnf("Ошибка загрузки оригинала %d: %v", i, err)
			continue
		}

		annotatedURL, err := s.blobs.Upload(annotatedPrefix, bundle.AnnotatedImages[i])
		if err != nil {
			s.logger.Warnf("Ошибка загрузки аннотированной копии %d: %v", i, err)
			continue
		}

		images = append(images, model.ReportImage{
			Position:     len(images),
			OriginalURL:  originalURL,
			AnnotatedURL: annotatedURL,
		})
	}

	return images
}

// GetReport получает один отчёт по ID
func (s *ReportService) GetReport(id string) (*models.DefectReportView, error) {
	report, err := s.repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	view := s.modelToView(report)
	return &view, nil
}

// DeleteReport удаляет отчёт по ID. Загруженные артефакты остаются в
// хранилище: подписанные ссылки из удалённой записи больше нигде не фигурируют
func (s *ReportService) DeleteReport(id string) error {
	s.logger.Infof("Удаляем отчёт %s", id)

	if err := s.repo.Delete(id); err != nil {
		s.logger.Errorf("Ошибка удаления отчёта: %v", err)
		return fmt.Errorf("failed to delete report: %w", err)
	}

	s.logger.Infof("Отчёт %s успешно удален", id)
	return nil
}

// ListReports получает все отчёты заданного происхождения
func (s *ReportService) ListReports(lineage models.Lineage) ([]models.DefectReportView, error) {
	s.logger.Infof("Получаем все отчёты коллекции %s", lineage)

	reports, err := s.repo.ListByLineage(string(lineage))
	if err != nil {
		s.logger.Errorf("Ошибка получения списка отчётов: %v", err)
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	views := make([]models.DefectReportView, len(reports))
	for i, report := range reports {
		views[i] = s.modelToView(report)
	}

	s.logger.Infof("Найдено %d отчётов в коллекции %s", len(views), lineage)
	return views, nil
}

// modelToView преобразует модель базы данных в ответ API.
// Время создания нормализуется к строке фиксированного формата.
func (s *ReportService) modelToView(report *model.DefectReport) models.DefectReportView {
	urls := models.ImageURLs{
		OriginalURLs:  make([]string, len(report.Images)),
		AnnotatedURLs: make([]string, len(report.Images)),
	}
	for i, image := range report.Images {
		urls.OriginalURLs[i] = image.OriginalURL
		urls.AnnotatedURLs[i] = image.AnnotatedURL
	}

	var extra map[string]any
	if len(report.Extra) > 0 {
		if err := json.Unmarshal(report.Extra, &extra); err != nil {
			s.logger.Warnf("Не удалось разобрать метаданные отчёта %s: %v", report.ID, err)
		}
	}

	return models.DefectReportView{
		ID:              report.ID,
		Lineage:         report.Lineage,
		Lat:             report.Lat,
		Lng:             report.Lng,
		StreetName:      report.StreetName,
		TakenDate:       report.TakenDate,
		Title:           report.Title,
		Description:     report.Description,
		AvgConfidence:   report.AvgConfidence,
		DetectedClasses: report.ClassList(),
		DefectScore:     report.DefectScore,
		Images:          urls,
		Extra:           extra,
		UploadTimestamp: report.CreatedAt.Format(timestampLayout),
	}
}
