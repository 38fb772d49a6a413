package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"andon/internal/models"
)

const reportSheet = "Anomalies"

// CreateAnomalyReport создает xlsx-отчет по записям. Колонки совпадают с
// заголовками импорта, так что отчет можно загрузить обратно через /upload.
func CreateAnomalyReport(path string, records []models.Anomaly) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(reportSheet)
	if err != nil {
		return err
	}

	for i, header := range expectedHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(reportSheet, cell, header)
	}

	highStyle := fillStyle(f, "#FFCCCC")
	lowStyle := fillStyle(f, "#CCE5FF")

	for rowIdx, record := range records {
		rowNum := rowIdx + 2 // первая строка занята заголовками

		values := []interface{}{
			record.Title,
			record.Description,
			record.Equipment,
			record.DetectionDate.Format("2006-01-02 15:04:05"),
			record.Source,
			record.ResponsiblePerson,
			record.Status,
			record.Criticality,
			"",
		}
		if record.MaintenanceWindow != nil {
			values[8] = record.MaintenanceWindow.Format("2006-01-02 15:04:05")
		}

		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			f.SetCellValue(reportSheet, cell, v)
		}

		// Подсветка критичности: красный для High, синий для Low
		critCell := fmt.Sprintf("H%d", rowNum)
		switch record.Criticality {
		case models.CriticalityHigh:
			f.SetCellStyle(reportSheet, critCell, critCell, highStyle)
		case models.CriticalityLow:
			f.SetCellStyle(reportSheet, critCell, critCell, lowStyle)
		}
	}

	for i := 1; i <= len(expectedHeaders); i++ {
		colName, _ := excelize.ColumnNumberToName(i)
		f.SetColWidth(reportSheet, colName, colName, 22)
	}

	createInfoSheet(f, records)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(path)
}

func fillStyle(f *excelize.File, color string) int {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{color},
			Pattern: 1,
		},
	})
	return style
}

func createInfoSheet(f *excelize.File, records []models.Anomaly) {
	f.NewSheet("Info")

	open := 0
	high := 0
	for _, r := range records {
		if r.Status != models.StatusResolved {
			open++
		}
		if r.Criticality == models.CriticalityHigh {
			high++
		}
	}

	rows := [][2]interface{}{
		{"Report Generated", time.Now().UTC().Format("2006-01-02 15:04:05")},
		{"Total Anomalies", len(records)},
		{"Open Anomalies", open},
		{"High Criticality", high},
	}
	for i, row := range rows {
		f.SetCellValue("Info", fmt.Sprintf("A%d", i+1), row[0])
		f.SetCellValue("Info", fmt.Sprintf("B%d", i+1), row[1])
	}
}

// CreateAnomalyCSV выгружает записи в CSV с теми же колонками
func CreateAnomalyCSV(path string, records []models.Anomaly) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write(expectedHeaders); err != nil {
		return err
	}

	for _, record := range records {
		mw := ""
		if record.MaintenanceWindow != nil {
			mw = record.MaintenanceWindow.Format(time.RFC3339)
		}
		row := []string{
			record.Title,
			record.Description,
			record.Equipment,
			record.DetectionDate.Format(time.RFC3339),
			record.Source,
			record.ResponsiblePerson,
			record.Status,
			record.Criticality,
			mw,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
