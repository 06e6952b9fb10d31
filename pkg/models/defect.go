package models

// Coordinates представляет географические координаты
type Coordinates struct {
	Lat float64 `json:"lat"` // Широта
	Lng float64 `json:"lng"` // Долгота
}

// Lineage определяет происхождение отчёта о дефекте
type Lineage string

const (
	// LineageSensor отчёт, созданный по сигналу датчика
	LineageSensor Lineage = "sensor"
	// LineageManual отчёт, отправленный пользователем вручную
	LineageManual Lineage = "manual"
)

// Headings фиксированные направления съёмки панорам (север, восток, юг, запад)
var Headings = [4]int{0, 90, 180, 270}

// UnknownStreet значение улицы, когда геокодирование не дало результата
const UnknownStreet = "Unknown Street"

// UnknownDate значение даты съёмки, когда провайдер её не вернул
const UnknownDate = "Unknown Date"

// CapturedImage содержит один снимок улицы для одного направления
type CapturedImage struct {
	Heading   int    `json:"heading"`    // Направление съёмки в градусах
	Data      []byte `json:"-"`          // Байты изображения (не сериализуем в JSON)
	TakenDate string `json:"taken_date"` // Дата съёмки в формате YYYY-MM или "Unknown Date"
}

// CaptureResult результат сбора снимков для одной координаты
type CaptureResult struct {
	StreetName string          `json:"street_name"` // Название улицы (однократное геокодирование)
	Images     []CapturedImage `json:"images"`      // До четырёх снимков по направлениям
}

// Detection одно обнаружение дефекта на изображении
type Detection struct {
	Class      string  `json:"class"`      // Класс дефекта
	Confidence float64 `json:"confidence"` // Уверенность модели [0,1]
}

// ClassifyResult ответ сервиса инференса для одного изображения
type ClassifyResult struct {
	Predictions    []Detection `json:"predictions"`     // Список обнаружений (может быть пустым)
	OriginalImage  []byte      `json:"-"`               // Исходное изображение
	AnnotatedImage []byte      `json:"-"`               // Изображение с разметкой дефектов
}

// ImageVerdict снимок, на котором классификатор нашёл хотя бы один дефект
type ImageVerdict struct {
	Image      CapturedImage // Исходный снимок
	Detections []Detection   // Обнаружения (по построению не пусто)
	Original   []byte        // Оригинал от сервиса инференса
	Annotated  []byte        // Аннотированная копия
}

// EvidenceBundle агрегированные доказательства дефекта для одного наблюдения
type EvidenceBundle struct {
	StreetName      string   // Название улицы
	TakenDate       string   // Дата съёмки первого снимка
	AvgConfidence   float64  // Средняя уверенность по всем обнаружениям всех снимков
	DetectionCount  int      // Общее количество обнаружений
	DetectedClasses []string // Уникальные классы дефектов
	OriginalImages  [][]byte // Оригиналы, порядок совпадает с AnnotatedImages
	AnnotatedImages [][]byte // Аннотированные копии
}

// AnalyzeRequest запрос на анализ координаты по сигналу датчика.
// Координаты проверяются диапазоном, а не binding:"required":
// нулевая широта или долгота — легальное значение
type AnalyzeRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ReportRequest запрос на ручную отправку фотографии дефекта
type ReportRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Image       string  `json:"image" binding:"required"` // base64
}

// DefectResponse ответ API: id созданного отчёта или сообщение пользователю
type DefectResponse struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// DefectReportView отчёт о дефекте в том виде, как он отдаётся наружу
type DefectReportView struct {
	ID              string            `json:"id"`
	Lineage         string            `json:"lineage"`
	Lat             float64           `json:"lat"`
	Lng             float64           `json:"lng"`
	StreetName      string            `json:"street_name,omitempty"`
	TakenDate       string            `json:"taken_date,omitempty"`
	Title           string            `json:"title,omitempty"`
	Description     string            `json:"description,omitempty"`
	AvgConfidence   float64           `json:"avg_confidence"`
	DetectedClasses []string          `json:"detected_classes"`
	DefectScore     float64           `json:"defect_score"`
	Images          ImageURLs         `json:"images"`
	Extra           map[string]any    `json:"extra,omitempty"`
	UploadTimestamp string            `json:"upload_timestamp"` // YYYY-MM-DD HH:MM:SS
}

// ImageURLs подписанные ссылки на артефакты отчёта
type ImageURLs struct {
	OriginalURLs  []string `json:"original_urls"`
	AnnotatedURLs []string `json:"annotated_urls"`
}

// DefectFoundEvent событие для шины сообщений о найденном дефекте
type DefectFoundEvent struct {
	ReportID        string   `json:"report_id"`
	Lat             float64  `json:"lat"`
	Lng             float64  `json:"lng"`
	StreetName      string   `json:"street_name"`
	DefectScore     float64  `json:"defect_score"`
	DetectedClasses []string `json:"detected_classes"`
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status         string `json:"status"`          // Статус сервиса (healthy/unhealthy)
	DatabaseReady  bool   `json:"database_ready"`  // Доступна ли база данных
	ClassifierName string `json:"classifier_name"` // Идентификатор сервиса инференса
	Version        string `json:"version"`         // Версия сервиса
}
