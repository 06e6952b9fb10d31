package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"road-defect-go/pkg/models"

	"github.com/sirupsen/logrus"
)

const (
	geocodingURL          = "https://maps.googleapis.com/maps/api/geocode/json"
	streetViewURL         = "https://maps.googleapis.com/maps/api/streetview"
	streetViewMetadataURL = "https://maps.googleapis.com/maps/api/streetview/metadata"
)

// Фиксированные параметры запроса панорам: размер кадра, поле зрения,
// наклон камеры к дороге и фильтр наружной съёмки
const (
	imageSize   = "640x640"
	imageFOV    = "90"
	imagePitch  = "-30"
	imageSource = "outdoor"
)

// minImageBytes ответы короче этого порога — заглушка "нет изображения"
const minImageBytes = 1000

// StreetViewClient клиент для провайдера панорам и геокодирования
type StreetViewClient struct {
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger

	// Адреса провайдера; в тестах подменяются на httptest-сервер
	geocodingURL string
	imageURL     string
	metadataURL  string
}

// NewStreetViewClient создает новый клиент провайдера панорам
func NewStreetViewClient(apiKey string, timeout time.Duration, logger *logrus.Logger) *StreetViewClient {
	return &StreetViewClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:       logger,
		geocodingURL: geocodingURL,
		imageURL:     streetViewURL,
		metadataURL:  streetViewMetadataURL,
	}
}

// geocodeResponse структура ответа Geocoding API
type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// metadataResponse структура ответа метаданных панорамы
type metadataResponse struct {
	Status string `json:"status"`
	Date   string `json:"date"`
}

// ReverseGeocode возвращает название улицы для координаты.
// Никогда не возвращает ошибку: при любом сбое отдаёт "Unknown Street".
func (c *StreetViewClient) ReverseGeocode(lat, lng float64) string {
	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("key", c.apiKey)

	body, err := c.get(c.geocodingURL, params)
	if err != nil {
		c.logger.Errorf("Ошибка запроса геокодирования: %v", err)
		return models.UnknownStreet
	}

	var geocode geocodeResponse
	if err := json.Unmarshal(body, &geocode); err != nil {
		c.logger.Errorf("Ошибка парсинга ответа геокодирования: %v", err)
		return models.UnknownStreet
	}

	if geocode.Status != "OK" || len(geocode.Results) == 0 {
		c.logger.Warnf("Геокодирование завершилось со статусом: %s", geocode.Status)
		return models.UnknownStreet
	}

	// Первый результат обычно самый релевантный для конкретной координаты
	for _, component := range geocode.Results[0].AddressComponents {
		for _, t := range component.Types {
			if t == "route" {
				return component.LongName
			}
		}
	}

	return models.UnknownStreet
}

// ImageMetadata проверяет наличие панорамы для направления и возвращает дату съёмки
func (c *StreetViewClient) ImageMetadata(lat, lng float64, heading int) (bool, string) {
	params := c.imageParams(lat, lng, heading)

	body, err := c.get(c.metadataURL, params)
	if err != nil {
		c.logger.Errorf("Ошибка запроса метаданных для направления %d: %v", heading, err)
		return false, models.UnknownDate
	}

	var meta metadataResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		c.logger.Errorf("Ошибка парсинга метаданных для направления %d: %v", heading, err)
		return false, models.UnknownDate
	}

	if meta.Status != "OK" {
		return false, models.UnknownDate
	}

	date := meta.Date
	if date == "" {
		date = models.UnknownDate
	}

	return true, date
}

// FetchImage загружает одну панораму для заданного направления
func (c *StreetViewClient) FetchImage(lat, lng float64, heading int) ([]byte, error) {
	params := c.imageParams(lat, lng, heading)

	body, err := c.get(c.imageURL, params)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки панорамы для направления %d: %w", heading, err)
	}

	// Заглушка "нет изображения" у провайдера имеет характерно малый размер
	if len(body) < minImageBytes {
		return nil, fmt.Errorf("панорама для направления %d отсутствует", heading)
	}

	return body, nil
}

// imageParams собирает фиксированные параметры запроса панорамы
func (c *StreetViewClient) imageParams(lat, lng float64, heading int) url.Values {
	params := url.Values{}
	params.Set("size", imageSize)
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("heading", fmt.Sprintf("%d", heading))
	params.Set("fov", imageFOV)
	params.Set("pitch", imagePitch)
	params.Set("source", imageSource)
	params.Set("key", c.apiKey)
	return params
}

// get выполняет GET запрос и возвращает тело ответа
func (c *StreetViewClient) get(baseURL string, params url.Values) ([]byte, error) {
	req, err := http.NewRequest("GET", fmt.Sprintf("%s?%s", baseURL, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("провайдер панорам вернул ошибку: статус %d", resp.StatusCode)
	}

	return body, nil
}
