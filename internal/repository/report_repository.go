package repository

import (
	"fmt"

	"road-defect-go/internal/model"

	"gorm.io/gorm"
)

// ReportRepository интерфейс для работы с отчётами о дефектах
type ReportRepository interface {
	Create(report *model.DefectReport) error
	CreateBatch(reports []*model.DefectReport) error
	GetByID(id string) (*model.DefectReport, error)
	ListByLineage(lineage string) ([]*model.DefectReport, error)
	Delete(id string) error
}

// reportRepository реализация ReportRepository
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository создает новый instance ReportRepository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{
		db: db,
	}
}

// Create создает новый отчёт вместе с его артефактами в одной транзакции
func (r *reportRepository) Create(report *model.DefectReport) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := createInTx(tx, report); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CreateBatch создает несколько отчётов атомарно: либо все, либо ни одного
func (r *reportRepository) CreateBatch(reports []*model.DefectReport) error {
	if len(reports) == 0 {
		return nil
	}

	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	for i, report := range reports {
		if err := createInTx(tx, report); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create report %d in batch: %w", i, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// createInTx пишет отчёт и его снимки внутри открытой транзакции
func createInTx(tx *gorm.DB, report *model.DefectReport) error {
	// Сначала создаем отчёт
	if err := tx.Omit("Images").Create(report).Error; err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	// Затем создаем записи артефактов
	for i := range report.Images {
		report.Images[i].ID = 0 // Обнуляем ID для auto-increment
		report.Images[i].ReportID = report.ID

		if err := tx.Create(&report.Images[i]).Error; err != nil {
			return fmt.Errorf("failed to create report image %d: %w", i, err)
		}
	}

	return nil
}

// GetByID получает отчёт по ID
func (r *reportRepository) GetByID(id string) (*model.DefectReport, error) {
	var report model.DefectReport
	err := r.db.Preload("Images").Where("id = ?", id).First(&report).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("report with id %s not found", id)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// ListByLineage получает все отчёты заданного происхождения (sensor/manual)
func (r *reportRepository) ListByLineage(lineage string) ([]*model.DefectReport, error) {
	var reports []*model.DefectReport

	err := r.db.Preload("Images").
		Where("lineage = ?", lineage).
		Order("created_at DESC").
		Find(&reports).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	return reports, nil
}

// Delete удаляет отчёт по ID вместе с артефактами
func (r *reportRepository) Delete(id string) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Сначала удаляем записи артефактов
	if err := tx.Where("report_id = ?", id).Delete(&model.ReportImage{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete report images: %w", err)
	}

	// Затем удаляем отчёт
	result := tx.Where("id = ?", id).Delete(&model.DefectReport{})
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete report: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		tx.Rollback()
		return fmt.Errorf("report with id %s not found", id)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
