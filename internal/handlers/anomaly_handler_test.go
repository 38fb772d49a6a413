package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"andon/internal/models"
	"andon/internal/repository"
	"andon/internal/service"
	"andon/internal/utils"
)

// Стабы сервисов: каждый метод отдает заранее настроенный результат
type stubAnomalyService struct {
	anomaly *models.Anomaly
	list    []models.Anomaly
	stats   *repository.AnomalyStats
	err     error
}

func (s *stubAnomalyService) Create(context.Context, models.AnomalyInput) (*models.Anomaly, error) {
	return s.anomaly, s.err
}

func (s *stubAnomalyService) GetByID(context.Context, uuid.UUID) (*models.Anomaly, error) {
	return s.anomaly, s.err
}

func (s *stubAnomalyService) List(context.Context, repository.ListFilter) ([]models.Anomaly, error) {
	return s.list, s.err
}

func (s *stubAnomalyService) Update(context.Context, uuid.UUID, models.AnomalyUpdate) (*models.Anomaly, error) {
	return s.anomaly, s.err
}

func (s *stubAnomalyService) Delete(context.Context, uuid.UUID) error {
	return s.err
}

func (s *stubAnomalyService) GetStats(context.Context) (*repository.AnomalyStats, error) {
	return s.stats, s.err
}

func (s *stubAnomalyService) ListScheduled(context.Context) ([]models.Anomaly, error) {
	return s.list, s.err
}

func (s *stubAnomalyService) Export(context.Context, string, repository.ListFilter) (string, error) {
	return "", s.err
}

type stubImportService struct {
	summary *service.ImportSummary
	err     error
}

func (s *stubImportService) ImportExcel(context.Context, io.Reader) (*service.ImportSummary, error) {
	return s.summary, s.err
}

func newRouter(svc service.AnomalyService, imp service.ImportService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()

	r := gin.New()
	h := NewAnomalyHandler(svc, log)
	u := NewUploadHandler(imp, 0, log)
	d := NewDashboardHandler(svc, log)

	api := r.Group("/api/v1")
	api.GET("/anomalies", h.List)
	api.POST("/anomalies", h.Create)
	api.GET("/anomalies/:id", h.Get)
	api.PUT("/anomalies/:id", h.Update)
	api.DELETE("/anomalies/:id", h.Delete)
	api.POST("/upload", u.Upload)
	api.GET("/dashboard/stats", d.GetStats)
	api.GET("/maintenance-windows", h.ListScheduled)
	return r
}

func testAnomaly() *models.Anomaly {
	return &models.Anomaly{
		ID:                uuid.New(),
		Title:             "Pump leak",
		Description:       "Seal failure",
		Equipment:         "Pump-12",
		DetectionDate:     time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Source:            models.SourceManual,
		ResponsiblePerson: "A. Ivanov",
		Status:            models.StatusNew,
		Criticality:       models.CriticalityMedium,
	}
}

func TestCreateReturns201WithRecord(t *testing.T) {
	a := testAnomaly()
	r := newRouter(&stubAnomalyService{anomaly: a}, nil)

	body := `{"title":"Pump leak","description":"Seal failure","equipment":"Pump-12",` +
		`"detectionDate":"2024-01-05T00:00:00Z","responsiblePerson":"A. Ivanov"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/anomalies", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var got models.Anomaly
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, a.ID, got.ID)
	// Таймстемпы на проводе - ISO-8601
	assert.Contains(t, w.Body.String(), "2024-01-05T00:00:00Z")
}

func TestCreateValidationFailureReturns400(t *testing.T) {
	r := newRouter(&stubAnomalyService{err: &models.ValidationError{
		Message: "validation failed: Title is required",
		Fields:  map[string]string{"Title": "is required"},
	}}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/anomalies", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Title is required")
}

func TestGetUnknownIDReturns404(t *testing.T) {
	r := newRouter(&stubAnomalyService{err: repository.ErrNotFound}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/anomalies/"+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMalformedIDReturns404(t *testing.T) {
	r := newRouter(&stubAnomalyService{anomaly: testAnomaly()}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/anomalies/not-a-uuid", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteReturnsConfirmation(t *testing.T) {
	r := newRouter(&stubAnomalyService{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/anomalies/"+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deleted successfully")
}

func TestStorageFaultReturns500WithGenericMessage(t *testing.T) {
	r := newRouter(&stubAnomalyService{err: io.ErrUnexpectedEOF}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/anomalies", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "unexpected EOF")
}

func uploadRequest(t *testing.T, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "anomalies.xlsx")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadWithoutFileReturns400(t *testing.T) {
	r := newRouter(nil, &stubImportService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No file uploaded")
}

func TestUploadMalformedFileReturns400(t *testing.T) {
	r := newRouter(nil, &stubImportService{
		err: &utils.MalformedFileError{MissingHeaders: []string{"Criticality"}},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, []byte("junk")))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Criticality")
}

func TestUploadEmptyFileReturns200WithZeroCount(t *testing.T) {
	r := newRouter(nil, &stubImportService{summary: &service.ImportSummary{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, []byte("content")))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"insertedCount":0`)
}

func TestUploadSuccessReturns201WithCounts(t *testing.T) {
	r := newRouter(nil, &stubImportService{summary: &service.ImportSummary{
		ParsedCount:   3,
		InsertedCount: 2,
		FailedRows:    []service.RowFailure{{Row: 2, Reason: "Status must be one of"}},
	}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, []byte("content")))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"insertedCount":2`)
	assert.Contains(t, w.Body.String(), `"row":2`)
}

func TestDashboardStats(t *testing.T) {
	r := newRouter(&stubAnomalyService{stats: &repository.AnomalyStats{
		Total: 5, Open: 3, HighCriticalityOpen: 1,
		ByStatus:      map[string]int64{models.StatusNew: 3},
		ByCriticality: map[string]int64{models.CriticalityHigh: 1},
	}}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":5`)
	assert.Contains(t, w.Body.String(), `"highCriticalityOpen":1`)
}
