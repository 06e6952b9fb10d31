package client

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"road-defect-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// ErrClassifierUnavailable сервис инференса недоступен или вернул ошибку.
// Оркестратор трактует это как "ноль обнаружений" для конкретного кадра.
var ErrClassifierUnavailable = errors.New("classifier unavailable")

// ClassifierClient клиент сервиса инференса дефектов дорожного покрытия
type ClassifierClient struct {
	baseURL    string
	apiKey     string
	workspace  string
	workflow   string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClassifierClient создает новый клиент сервиса инференса
func NewClassifierClient(baseURL, apiKey, workspace, workflow string, timeout time.Duration, logger *logrus.Logger) *ClassifierClient {
	return &ClassifierClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		workspace: workspace,
		workflow:  workflow,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Name возвращает идентификатор развернутого workflow
func (c *ClassifierClient) Name() string {
	return fmt.Sprintf("%s/%s", c.workspace, c.workflow)
}

// workflowRequest структура запроса к workflow инференса
type workflowRequest struct {
	APIKey string                `json:"api_key"`
	Inputs map[string]imageInput `json:"inputs"`
}

type imageInput struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// workflowResponse структура ответа workflow инференса
type workflowResponse struct {
	Outputs []workflowOutput `json:"outputs"`
}

type workflowOutput struct {
	Details struct {
		Predictions []models.Detection `json:"predictions"`
	} `json:"details"`
	OriginalImage  string `json:"original_image"`  // base64
	AnnotatedImage string `json:"annotated_image"` // base64
}

// Classify отправляет изображение на инференс и возвращает список обнаружений
// вместе с оригиналом и аннотированной копией изображения
func (c *ClassifierClient) Classify(image []byte) (*models.ClassifyResult, error) {
	c.logger.Debug("Отправка изображения в сервис инференса")

	request := workflowRequest{
		APIKey: c.apiKey,
		Inputs: map[string]imageInput{
			"image": {
				Type:  "base64",
				Value: base64.StdEncoding.EncodeToString(image),
			},
		},
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса инференса: %w", err)
	}

	url := fmt.Sprintf("%s/infer/workflows/%s/%s", c.baseURL, c.workspace, c.workflow)
	req, err := http.NewRequest("POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка чтения ответа: %v", ErrClassifierUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: статус %d, тело: %s", ErrClassifierUnavailable, resp.StatusCode, string(respBody))
	}

	var workflowResp workflowResponse
	if err := json.Unmarshal(respBody, &workflowResp); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа инференса: %w", err)
	}

	if len(workflowResp.Outputs) == 0 {
		return nil, fmt.Errorf("%w: пустой список outputs в ответе", ErrClassifierUnavailable)
	}

	output := workflowResp.Outputs[0]

	original, err := base64.StdEncoding.DecodeString(output.OriginalImage)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования оригинала изображения: %w", err)
	}

	annotated, err := base64.StdEncoding.DecodeString(output.AnnotatedImage)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования аннотированного изображения: %w", err)
	}

	c.logger.Debugf("Инференс завершен: %d обнаружений", len(output.Details.Predictions))

	return &models.ClassifyResult{
		Predictions:    output.Details.Predictions,
		OriginalImage:  original,
		AnnotatedImage: annotated,
	}, nil
}
