package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"andon/internal/models"
	"andon/internal/repository"
	"andon/internal/utils"
)

type AnomalyService interface {
	Create(ctx context.Context, input models.AnomalyInput) (*models.Anomaly, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Anomaly, error)
	List(ctx context.Context, filter repository.ListFilter) ([]models.Anomaly, error)
	Update(ctx context.Context, id uuid.UUID, update models.AnomalyUpdate) (*models.Anomaly, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetStats(ctx context.Context) (*repository.AnomalyStats, error)
	ListScheduled(ctx context.Context) ([]models.Anomaly, error)
	Export(ctx context.Context, format string, filter repository.ListFilter) (string, error)
}

type anomalyService struct {
	repo      repository.AnomalyRepository
	log       *zap.SugaredLogger
	exportDir string
}

func NewAnomalyService(repo repository.AnomalyRepository, log *zap.SugaredLogger, exportDir string) AnomalyService {
	if exportDir == "" {
		exportDir = "./data/exports"
	}
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		log.Warnf("Failed to create export directory: %v", err)
	}
	return &anomalyService{
		repo:      repo,
		log:       log,
		exportDir: exportDir,
	}
}

func (s *anomalyService) Create(ctx context.Context, input models.AnomalyInput) (*models.Anomaly, error) {
	anomaly := input.ToAnomaly()
	if err := anomaly.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, anomaly); err != nil {
		return nil, err
	}
	s.log.Infow("anomaly created", "id", anomaly.ID, "equipment", anomaly.Equipment)
	return anomaly, nil
}

func (s *anomalyService) GetByID(ctx context.Context, id uuid.UUID) (*models.Anomaly, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *anomalyService) List(ctx context.Context, filter repository.ListFilter) ([]models.Anomaly, error) {
	return s.repo.List(ctx, filter)
}

// Update накладывает частичное обновление на сохраненную запись и прогоняет
// результат через общую валидацию схемы перед записью
func (s *anomalyService) Update(ctx context.Context, id uuid.UUID, update models.AnomalyUpdate) (*models.Anomaly, error) {
	anomaly, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		anomaly.Title = *update.Title
	}
	if update.Description != nil {
		anomaly.Description = *update.Description
	}
	if update.Equipment != nil {
		anomaly.Equipment = *update.Equipment
	}
	if update.DetectionDate != nil {
		anomaly.DetectionDate = *update.DetectionDate
	}
	if update.Source != nil {
		anomaly.Source = *update.Source
	}
	if update.ResponsiblePerson != nil {
		anomaly.ResponsiblePerson = *update.ResponsiblePerson
	}
	if update.Status != nil {
		anomaly.Status = *update.Status
	}
	if update.Criticality != nil {
		anomaly.Criticality = *update.Criticality
	}
	if update.Attachments != nil {
		anomaly.Attachments = datatypes.NewJSONSlice(*update.Attachments)
	}
	if update.MaintenanceWindow != nil {
		// Пустая строка явно очищает окно обслуживания
		if *update.MaintenanceWindow == "" {
			anomaly.MaintenanceWindow = nil
		} else {
			mw, err := parseTimestamp(*update.MaintenanceWindow)
			if err != nil {
				return nil, &models.ValidationError{
					Message: "maintenanceWindow must be a valid timestamp",
					Fields:  map[string]string{"MaintenanceWindow": "must be a valid timestamp"},
				}
			}
			anomaly.MaintenanceWindow = &mw
		}
	}

	if err := anomaly.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, anomaly); err != nil {
		return nil, err
	}
	s.log.Infow("anomaly updated", "id", anomaly.ID)
	return anomaly, nil
}

func (s *anomalyService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Infow("anomaly deleted", "id", id)
	return nil
}

func (s *anomalyService) GetStats(ctx context.Context) (*repository.AnomalyStats, error) {
	return s.repo.GetStats(ctx)
}

func (s *anomalyService) ListScheduled(ctx context.Context) ([]models.Anomaly, error) {
	return s.repo.ListScheduled(ctx)
}

// Export выгружает текущий (опционально отфильтрованный) список в файл.
// Колонки совпадают с заголовками импорта, так что выгрузку можно
// импортировать обратно.
func (s *anomalyService) Export(ctx context.Context, format string, filter repository.ListFilter) (string, error) {
	anomalies, err := s.repo.List(ctx, filter)
	if err != nil {
		return "", err
	}

	timestamp := time.Now().UTC().Format("20060102_150405")

	var path string
	switch format {
	case "excel", "xlsx":
		path = filepath.Join(s.exportDir, fmt.Sprintf("anomalies_%s.xlsx", timestamp))
		err = utils.CreateAnomalyReport(path, anomalies)
	case "csv":
		path = filepath.Join(s.exportDir, fmt.Sprintf("anomalies_%s.csv", timestamp))
		err = utils.CreateAnomalyCSV(path, anomalies)
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to export anomalies: %w", err)
	}

	s.log.Infow("anomalies exported", "path", path, "records", len(anomalies))
	return path, nil
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
