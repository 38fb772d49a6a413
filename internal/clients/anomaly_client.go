package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"andon/internal/models"
)

// APIError - ответ сервера со статусом вне 2xx
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Message)
}

type ListQuery struct {
	Status      string
	Criticality string
	Equipment   string
	SortBy      string
	SortOrder   string
}

type AnomalyClient interface {
	FetchAnomalies(ctx context.Context, query ListQuery) ([]models.Anomaly, error)
	GetAnomaly(ctx context.Context, id uuid.UUID) (*models.Anomaly, error)
	CreateAnomaly(ctx context.Context, input models.AnomalyInput) (*models.Anomaly, error)
	UpdateAnomaly(ctx context.Context, id uuid.UUID, update models.AnomalyUpdate) (*models.Anomaly, error)
	DeleteAnomaly(ctx context.Context, id uuid.UUID) error
	UploadFile(ctx context.Context, filename string, file io.Reader) error
}

type anomalyClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAnomalyClient(baseURL string) AnomalyClient {
	return &anomalyClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *anomalyClient) FetchAnomalies(ctx context.Context, query ListQuery) ([]models.Anomaly, error) {
	params := url.Values{}
	if query.Status != "" {
		params.Set("status", query.Status)
	}
	if query.Criticality != "" {
		params.Set("criticality", query.Criticality)
	}
	if query.Equipment != "" {
		params.Set("equipment", query.Equipment)
	}
	if query.SortBy != "" {
		params.Set("sortBy", query.SortBy)
		params.Set("sortOrder", query.SortOrder)
	}

	endpoint := c.baseURL + "/anomalies"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var anomalies []models.Anomaly
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &anomalies); err != nil {
		return nil, err
	}
	return anomalies, nil
}

func (c *anomalyClient) GetAnomaly(ctx context.Context, id uuid.UUID) (*models.Anomaly, error) {
	var anomaly models.Anomaly
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/anomalies/"+id.String(), nil, &anomaly); err != nil {
		return nil, err
	}
	return &anomaly, nil
}

func (c *anomalyClient) CreateAnomaly(ctx context.Context, input models.AnomalyInput) (*models.Anomaly, error) {
	var anomaly models.Anomaly
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/anomalies", input, &anomaly); err != nil {
		return nil, err
	}
	return &anomaly, nil
}

func (c *anomalyClient) UpdateAnomaly(ctx context.Context, id uuid.UUID, update models.AnomalyUpdate) (*models.Anomaly, error) {
	var anomaly models.Anomaly
	if err := c.doJSON(ctx, http.MethodPut, c.baseURL+"/anomalies/"+id.String(), update, &anomaly); err != nil {
		return nil, err
	}
	return &anomaly, nil
}

func (c *anomalyClient) DeleteAnomaly(ctx context.Context, id uuid.UUID) error {
	return c.doJSON(ctx, http.MethodDelete, c.baseURL+"/anomalies/"+id.String(), nil, nil)
}

func (c *anomalyClient) UploadFile(ctx context.Context, filename string, file io.Reader) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return checkResponse(resp)
}

func (c *anomalyClient) doJSON(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
	} else {
		apiErr.Message = string(data)
	}
	return apiErr
}
