package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"road-defect-go/internal/model"
	"road-defect-go/internal/scoring"
	"road-defect-go/internal/service"
	"road-defect-go/internal/storage"
	"road-defect-go/pkg/models"
)

// fakeImagery провайдер панорам без единого снимка
type fakeImagery struct{}

func (f *fakeImagery) ReverseGeocode(lat, lng float64) string {
	return models.UnknownStreet
}

func (f *fakeImagery) ImageMetadata(lat, lng float64, heading int) (bool, string) {
	return false, models.UnknownDate
}

func (f *fakeImagery) FetchImage(lat, lng float64, heading int) ([]byte, error) {
	return nil, fmt.Errorf("no imagery")
}

// fakeClassifier классификатор, который ничего не находит
type fakeClassifier struct{}

func (f *fakeClassifier) Name() string {
	return "fake/classifier"
}

func (f *fakeClassifier) Classify(image []byte) (*models.ClassifyResult, error) {
	return &models.ClassifyResult{}, nil
}

// fakeRepo репозиторий отчётов в памяти
type fakeRepo struct {
	reports []*model.DefectReport
}

func (f *fakeRepo) Create(report *model.DefectReport) error {
	f.reports = append(f.reports, report)
	return nil
}

func (f *fakeRepo) CreateBatch(reports []*model.DefectReport) error {
	f.reports = append(f.reports, reports...)
	return nil
}

func (f *fakeRepo) GetByID(id string) (*model.DefectReport, error) {
	for _, report := range f.reports {
		if report.ID == id {
			return report, nil
		}
	}
	return nil, fmt.Errorf("report with id %s not found", id)
}

func (f *fakeRepo) ListByLineage(lineage string) ([]*model.DefectReport, error) {
	var result []*model.DefectReport
	for _, report := range f.reports {
		if report.Lineage == lineage {
			result = append(result, report)
		}
	}
	return result, nil
}

func (f *fakeRepo) Delete(id string) error {
	for i, report := range f.reports {
		if report.ID == id {
			f.reports = append(f.reports[:i], f.reports[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("report with id %s not found", id)
}

func newTestRouter(t *testing.T) (*gin.Engine, *service.ReportService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	blobs, err := storage.NewLocalBlobStore(t.TempDir(), "http://localhost:8001", "test-secret", time.Hour, logger)
	require.NoError(t, err)

	reportService := service.NewReportService(&fakeRepo{}, blobs, logger)
	acquisition := service.NewAcquisitionService(&fakeImagery{}, logger)
	classifier := &fakeClassifier{}
	analyzer := service.NewAnalyzerService(acquisition, classifier, reportService, scoring.NewCalculator(30.0), nil, logger)

	router := gin.New()
	h := NewDefectHandler(analyzer, reportService, classifier, blobs, logger)
	h.RegisterRoutes(router)

	return router, reportService
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestDefectHandler_AnalyzeSensor_ZeroCoordinateAccepted(t *testing.T) {
	router, _ := newTestRouter(t)

	// Нулевые координаты легальны: запрос доходит до конвейера,
	// который без снимков отвечает null
	recorder := doJSON(router, "POST", "/api/v1/ai/analyze-sensor", `{"lat": 0, "lng": 0}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "null", strings.TrimSpace(recorder.Body.String()))
}

func TestDefectHandler_AnalyzeSensor_OutOfRangeCoordinate(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := doJSON(router, "POST", "/api/v1/ai/analyze-sensor", `{"lat": 95, "lng": 10}`)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doJSON(router, "POST", "/api/v1/ai/analyze-sensor", `{"lat": 10, "lng": -200}`)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func seedReport(t *testing.T, reports *service.ReportService) string {
	t.Helper()
	bundle := &models.EvidenceBundle{
		StreetName:      "Jl. Pahlawan",
		TakenDate:       "2023-11",
		AvgConfidence:   0.7,
		DetectionCount:  1,
		DetectedClasses: []string{"pothole"},
		OriginalImages:  [][]byte{[]byte("orig")},
		AnnotatedImages: [][]byte{[]byte("ann")},
	}
	id, err := reports.Persist(bundle, service.ReportMetadata{Lat: -6.99, Lng: 110.42}, models.LineageSensor)
	require.NoError(t, err)
	return id
}

func TestDefectHandler_GetReport(t *testing.T) {
	router, reports := newTestRouter(t)
	id := seedReport(t, reports)

	recorder := doJSON(router, "GET", "/api/v1/ai/reports/"+id, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var view models.DefectReportView
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &view))
	require.Equal(t, id, view.ID)
	require.Equal(t, "Jl. Pahlawan", view.StreetName)
	require.Len(t, view.Images.OriginalURLs, 1)

	// Несуществующий отчёт
	recorder = doJSON(router, "GET", "/api/v1/ai/reports/missing-id", "")
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDefectHandler_DeleteReport(t *testing.T) {
	router, reports := newTestRouter(t)
	id := seedReport(t, reports)

	recorder := doJSON(router, "DELETE", "/api/v1/ai/reports/"+id, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	// После удаления отчёт не находится
	recorder = doJSON(router, "GET", "/api/v1/ai/reports/"+id, "")
	require.Equal(t, http.StatusNotFound, recorder.Code)

	// Повторное удаление сообщает об отсутствии
	recorder = doJSON(router, "DELETE", "/api/v1/ai/reports/"+id, "")
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestValidateCoordinates(t *testing.T) {
	require.NoError(t, validateCoordinates(0, 0))
	require.NoError(t, validateCoordinates(-90, 180))
	require.Error(t, validateCoordinates(90.1, 0))
	require.Error(t, validateCoordinates(0, -180.1))
}
