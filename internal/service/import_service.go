package service

import (
	"context"
	"io"

	"go.uber.org/zap"

	"andon/internal/models"
	"andon/internal/repository"
	"andon/internal/utils"
)

type ImportService interface {
	ImportExcel(ctx context.Context, r io.Reader) (*ImportSummary, error)
}

// RowFailure - строка файла, не прошедшая валидацию схемы
type RowFailure struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportSummary struct {
	ParsedCount   int          `json:"parsedCount"`
	InsertedCount int          `json:"insertedCount"`
	FailedRows    []RowFailure `json:"failedRows,omitempty"`
}

type importService struct {
	repo repository.AnomalyRepository
	log  *zap.SugaredLogger
}

func NewImportService(repo repository.AnomalyRepository, log *zap.SugaredLogger) ImportService {
	return &importService{repo: repo, log: log}
}

// ImportExcel прогоняет файл через разбор листа, валидирует каждого кандидата
// отдельно и вставляет прошедших одной пакетной операцией. Невалидные строки
// не блокируют остальные - они возвращаются в сводке поштучно.
func (s *importService) ImportExcel(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	candidates, err := utils.ParseAnomalies(r)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{ParsedCount: len(candidates)}
	if len(candidates) == 0 {
		return summary, nil
	}

	valid := make([]models.Anomaly, 0, len(candidates))
	for i, input := range candidates {
		anomaly := input.ToAnomaly()
		if err := anomaly.Validate(); err != nil {
			summary.FailedRows = append(summary.FailedRows, RowFailure{
				Row:    i + 1,
				Reason: err.Error(),
			})
			continue
		}
		valid = append(valid, *anomaly)
	}

	inserted, err := s.repo.BulkCreate(ctx, valid)
	if err != nil {
		return nil, err
	}
	summary.InsertedCount = inserted

	s.log.Infow("excel import finished",
		"parsed", summary.ParsedCount,
		"inserted", summary.InsertedCount,
		"failed", len(summary.FailedRows))
	return summary, nil
}
