package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/Samrat740/sleep-apnea-screening/internal/domain"

	"go.uber.org/zap"
)

const (
	predictPath   = "/predict"
	fileFieldName = "file"
	errBodyLimit  = 512
)

// Prediction сырой ответ классификатора с подставленными значениями по умолчанию
type Prediction struct {
	Probability float64
	Status      string
}

type predictResponse struct {
	Probability *float64 `json:"probability"`
	Status      *string  `json:"status"`
}

// Client ходит во внешний сервис инференса
type Client struct {
	baseURL        string
	httpClient     *http.Client
	requestTimeout time.Duration
	probeTimeout   time.Duration
	logger         *zap.Logger
}

func NewClient(baseURL string, requestTimeout, probeTimeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:        baseURL,
		httpClient:     &http.Client{},
		requestTimeout: requestTimeout,
		probeTimeout:   probeTimeout,
		logger:         logger,
	}
}

// Probe проверяет доступность сервиса: любой 2xx считается успехом, тело игнорируется
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if !isSuccess(resp.StatusCode) {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}

// Predict отправляет исходный файл одним полем multipart-формы на /predict
func (c *Client) Predict(ctx context.Context, fileName string, content []byte) (*Prediction, error) {
	body, contentType, err := encodeFile(fileName, content)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request failed: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return nil, fmt.Errorf("inference service returned %d: %s", resp.StatusCode, string(msg))
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode predict response: %w", err)
	}

	prediction := &Prediction{Probability: 0, Status: domain.LabelUnknown}
	if decoded.Probability != nil {
		prediction.Probability = *decoded.Probability
	}
	if decoded.Status != nil && *decoded.Status != "" {
		prediction.Status = *decoded.Status
	}

	c.logger.Debug("[InferenceClient] prediction received",
		zap.String("file_name", fileName),
		zap.String("status", prediction.Status),
		zap.Float64("probability", prediction.Probability))

	return prediction, nil
}

func encodeFile(fileName string, content []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(fileFieldName, fileName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
