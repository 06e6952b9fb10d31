package service

import (
	"fmt"
	"sync"

	"road-defect-go/internal/model"
	"road-defect-go/pkg/models"
)

// fakeImagery подставной провайдер панорам
type fakeImagery struct {
	mu           sync.Mutex
	streetName   string
	available    map[int]string // направление -> дата съёмки
	images       map[int][]byte
	fetchErr     map[int]error
	geocodeCalls int
}

func (f *fakeImagery) ReverseGeocode(lat, lng float64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geocodeCalls++
	if f.streetName == "" {
		return models.UnknownStreet
	}
	return f.streetName
}

func (f *fakeImagery) ImageMetadata(lat, lng float64, heading int) (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	date, ok := f.available[heading]
	if !ok {
		return false, models.UnknownDate
	}
	return true, date
}

func (f *fakeImagery) FetchImage(lat, lng float64, heading int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fetchErr[heading]; err != nil {
		return nil, err
	}
	if data, ok := f.images[heading]; ok {
		return data, nil
	}
	return []byte(fmt.Sprintf("image-%d", heading)), nil
}

// fakeClassifier подставной сервис инференса: результат по содержимому кадра
type fakeClassifier struct {
	mu      sync.Mutex
	results map[string]*models.ClassifyResult
	errs    map[string]error
	calls   int
}

func (f *fakeClassifier) Name() string {
	return "fake/classifier"
}

func (f *fakeClassifier) Classify(image []byte) (*models.ClassifyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[string(image)]; err != nil {
		return nil, err
	}
	if result, ok := f.results[string(image)]; ok {
		return result, nil
	}
	return &models.ClassifyResult{
		Predictions:    nil,
		OriginalImage:  append([]byte("orig:"), image...),
		AnnotatedImage: append([]byte("ann:"), image...),
	}, nil
}

// fakeRepo репозиторий отчётов в памяти
type fakeRepo struct {
	createCalls int
	batchCalls  int
	failCreate  bool
	reports     []*model.DefectReport
}

func (f *fakeRepo) Create(report *model.DefectReport) error {
	f.createCalls++
	if f.failCreate {
		return fmt.Errorf("database write failed")
	}
	f.reports = append(f.reports, report)
	return nil
}

func (f *fakeRepo) CreateBatch(reports []*model.DefectReport) error {
	f.batchCalls++
	if f.failCreate {
		return fmt.Errorf("database write failed")
	}
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

// fakeBlobStore хранилище блобов с управляемыми сбоями загрузки
type fakeBlobStore struct {
	uploads int
	failAll bool
	failOn  map[int]bool // сбой на n-й загрузке, нумерация с единицы
}

func (f *fakeBlobStore) Upload(prefix string, data []byte) (string, error) {
	f.uploads++
	if f.failAll || f.failOn[f.uploads] {
		return "", fmt.Errorf("upload failed")
	}
	return fmt.Sprintf("https://blobs.local/%s/%d?sig=test", prefix, f.uploads), nil
}
