package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefectReport представляет отчёт о дефекте дороги в базе данных
type DefectReport struct {
	ID         string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Lineage    string  `gorm:"type:varchar(16);not null;index" json:"lineage"`
	Lat        float64 `gorm:"not null" json:"lat"`
	Lng        float64 `gorm:"not null" json:"lng"`
	StreetName string  `gorm:"type:varchar(255)" json:"street_name"`
	TakenDate  string  `gorm:"type:varchar(16)" json:"taken_date"`

	// Поля ручных отчётов
	Title       string `gorm:"type:varchar(255)" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	// Агрегированные показатели
	AvgConfidence   float64 `gorm:"not null;default:0" json:"avg_confidence"`
	DetectedClasses string  `gorm:"type:text" json:"detected_classes"` // классы через запятую
	DefectScore     float64 `gorm:"not null;default:0" json:"defect_score"`

	// Произвольные метаданные отчёта
	Extra datatypes.JSON `gorm:"type:jsonb" json:"extra,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Связь с артефактами
	Images []ReportImage `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"images"`
}

// ReportImage представляет пару ссылок (оригинал, аннотированная копия) одного снимка
type ReportImage struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ReportID     string `gorm:"type:varchar(36);not null;index" json:"report_id"`
	Position     int    `gorm:"not null" json:"position"` // Порядок снимка в отчёте
	OriginalURL  string `gorm:"type:text;not null" json:"original_url"`
	AnnotatedURL string `gorm:"type:text;not null" json:"annotated_url"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Обратная связь с отчётом
	Report DefectReport `gorm:"foreignKey:ReportID;references:ID" json:"-"`
}

// TableName указывает имя таблицы для DefectReport
func (DefectReport) TableName() string {
	return "defect_reports"
}

// TableName указывает имя таблицы для ReportImage
func (ReportImage) TableName() string {
	return "report_images"
}

// ClassList разбирает DetectedClasses обратно в список
func (r *DefectReport) ClassList() []string {
	if r.DetectedClasses == "" {
		return []string{}
	}
	return strings.Split(r.DetectedClasses, ",")
}

// JoinClasses собирает список классов в строку для хранения
func JoinClasses(classes []string) string {
	return strings.Join(classes, ",")
}
