package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"andon/internal/models"
)

// ErrNotFound - операция адресует несуществующую запись. На HTTP-уровне 404.
var ErrNotFound = errors.New("anomaly not found")

// ListFilter - фильтры и сортировка списка. Пустые поля не применяются.
type ListFilter struct {
	Status      string
	Criticality string
	Equipment   string // подстрока, без учета регистра
	SortBy      string // имя поля как в JSON
	SortOrder   string // asc | desc
}

// Счетчики для дашборда
type AnomalyStats struct {
	Total               int64            `json:"total"`
	Open                int64            `json:"open"`
	HighCriticalityOpen int64            `json:"highCriticalityOpen"`
	ByStatus            map[string]int64 `json:"byStatus"`
	ByCriticality       map[string]int64 `json:"byCriticality"`
}

type AnomalyRepository interface {
	Create(ctx context.Context, anomaly *models.Anomaly) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Anomaly, error)
	List(ctx context.Context, filter ListFilter) ([]models.Anomaly, error)
	Update(ctx context.Context, anomaly *models.Anomaly) error
	Delete(ctx context.Context, id uuid.UUID) error
	BulkCreate(ctx context.Context, anomalies []models.Anomaly) (int, error)
	GetStats(ctx context.Context) (*AnomalyStats, error)
	ListScheduled(ctx context.Context) ([]models.Anomaly, error)
}

type anomalyRepository struct {
	db *gorm.DB
}

func NewAnomalyRepository(db *gorm.DB) AnomalyRepository {
	return &anomalyRepository{db: db}
}

// Белый список сортируемых колонок: JSON-имя поля -> колонка БД
var sortColumns = map[string]string{
	"title":             "title",
	"equipment":         "equipment",
	"detectionDate":     "detection_date",
	"source":            "source",
	"responsiblePerson": "responsible_person",
	"status":            "status",
	"criticality":       "criticality",
	"maintenanceWindow": "maintenance_window",
	"createdAt":         "created_at",
	"updatedAt":         "updated_at",
}

func (r *anomalyRepository) Create(ctx context.Context, anomaly *models.Anomaly) error {
	return r.db.WithContext(ctx).Create(anomaly).Error
}

func (r *anomalyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Anomaly, error) {
	var anomaly models.Anomaly
	err := r.db.WithContext(ctx).First(&anomaly, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &anomaly, nil
}

func (r *anomalyRepository) List(ctx context.Context, filter ListFilter) ([]models.Anomaly, error) {
	q := r.db.WithContext(ctx).Model(&models.Anomaly{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Criticality != "" {
		q = q.Where("criticality = ?", filter.Criticality)
	}
	if filter.Equipment != "" {
		q = q.Where("LOWER(equipment) LIKE ?", "%"+strings.ToLower(filter.Equipment)+"%")
	}

	// По умолчанию - свежие обнаружения первыми
	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "detection_date"
		filter.SortOrder = "desc"
	}
	order := "ASC"
	if filter.SortOrder == "desc" {
		order = "DESC"
	}

	var anomalies []models.Anomaly
	err := q.Order(column + " " + order).Find(&anomalies).Error
	return anomalies, err
}

func (r *anomalyRepository) Update(ctx context.Context, anomaly *models.Anomaly) error {
	// Save перезаписывает все колонки, включая обнуленное maintenance_window
	return r.db.WithContext(ctx).Save(anomaly).Error
}

func (r *anomalyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Anomaly{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *anomalyRepository) BulkCreate(ctx context.Context, anomalies []models.Anomaly) (int, error) {
	if len(anomalies) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).CreateInBatches(anomalies, 100).Error
	if err != nil {
		return 0, err
	}
	return len(anomalies), nil
}

func (r *anomalyRepository) GetStats(ctx context.Context) (*AnomalyStats, error) {
	stats := &AnomalyStats{
		ByStatus:      make(map[string]int64),
		ByCriticality: make(map[string]int64),
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var byStatus []bucket
	err := r.db.WithContext(ctx).Model(&models.Anomaly{}).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, err
	}
	for _, b := range byStatus {
		stats.ByStatus[b.Key] = b.Count
		stats.Total += b.Count
		if b.Key != models.StatusResolved {
			stats.Open += b.Count
		}
	}

	var byCriticality []bucket
	err = r.db.WithContext(ctx).Model(&models.Anomaly{}).
		Select("criticality AS key, COUNT(*) AS count").
		Group("criticality").
		Scan(&byCriticality).Error
	if err != nil {
		return nil, err
	}
	for _, b := range byCriticality {
		stats.ByCriticality[b.Key] = b.Count
	}

	err = r.db.WithContext(ctx).Model(&models.Anomaly{}).
		Where("criticality = ? AND status <> ?", models.CriticalityHigh, models.StatusResolved).
		Count(&stats.HighCriticalityOpen).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *anomalyRepository) ListScheduled(ctx context.Context) ([]models.Anomaly, error) {
	var anomalies []models.Anomaly
	err := r.db.WithContext(ctx).
		Where("maintenance_window IS NOT NULL").
		Order("maintenance_window ASC").
		Find(&anomalies).Error
	return anomalies, err
}
