package utils

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"andon/internal/models"
)

// MalformedFileError - файл структурно непригоден для импорта: нет листов,
// нет строк данных или отсутствуют обязательные заголовки
type MalformedFileError struct {
	Reason         string
	MissingHeaders []string
}

func (e *MalformedFileError) Error() string {
	if len(e.MissingHeaders) > 0 {
		return fmt.Sprintf("missing expected headers: %s", strings.Join(e.MissingHeaders, ", "))
	}
	return e.Reason
}

// Обязательные колонки первого листа (порядок колонок в файле любой)
var expectedHeaders = []string{
	"Title",
	"Description",
	"Equipment",
	"Date",
	"Source",
	"Responsible",
	"Status",
	"Criticality",
	"Maintenance Window",
}

// Значения по умолчанию для пустых ячеек. Title обрабатывается отдельно,
// потому что в его подстановку входит номер строки.
var columnDefaults = map[string]string{
	"Description": "No description",
	"Equipment":   "Unknown Equipment",
	"Source":      models.SourceExcel,
	"Responsible": "Unassigned",
	"Status":      models.StatusNew,
	"Criticality": models.CriticalityMedium,
}

// Форматы дат, которые встречаются в выгрузках Oracle/Maximo и в ячейках
// Excel после форматирования excelize
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01-02-06",
	"1/2/06 15:04",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
}

// ParseAnomalies разбирает первый лист xlsx-файла в последовательность
// кандидатов на запись. Первая строка - заголовки, полностью пустые строки
// пропускаются. Жесткая валидация значений происходит позже, на границе
// хранилища; здесь пустые ячейки лишь заполняются значениями по умолчанию.
func ParseAnomalies(r io.Reader) ([]models.AnomalyInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &MalformedFileError{Reason: "unable to read spreadsheet: " + err.Error()}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &MalformedFileError{Reason: "spreadsheet has no sheets"}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &MalformedFileError{Reason: "unable to read sheet rows: " + err.Error()}
	}

	if len(rows) < 2 {
		return nil, &MalformedFileError{Reason: "spreadsheet is empty or has no data rows"}
	}

	headerMap := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		headerMap[strings.TrimSpace(h)] = i
	}

	var missing []string
	for _, h := range expectedHeaders {
		if _, ok := headerMap[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, &MalformedFileError{MissingHeaders: missing}
	}

	anomalies := make([]models.AnomalyInput, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}

		rowNum := i + 1 // нумерация строк данных с единицы

		title := cellValue(row, headerMap["Title"])
		if title == "" {
			title = fmt.Sprintf("Untitled Anomaly %d", rowNum)
		}

		// Дата обнаружения обязана быть валидной: нечитаемая ячейка не
		// роняет строку, а заменяется временем обработки
		detectionDate, ok := parseDate(cellValue(row, headerMap["Date"]))
		if !ok {
			detectionDate = time.Now().UTC()
		}

		// Окно обслуживания наоборот: либо валидная дата, либо отсутствует
		var maintenanceWindow *time.Time
		if mw, ok := parseDate(cellValue(row, headerMap["Maintenance Window"])); ok {
			maintenanceWindow = &mw
		}

		anomalies = append(anomalies, models.AnomalyInput{
			Title:             title,
			Description:       cellOrDefault(row, headerMap, "Description"),
			Equipment:         cellOrDefault(row, headerMap, "Equipment"),
			DetectionDate:     detectionDate,
			Source:            cellOrDefault(row, headerMap, "Source"),
			ResponsiblePerson: cellOrDefault(row, headerMap, "Responsible"),
			Status:            cellOrDefault(row, headerMap, "Status"),
			Criticality:       cellOrDefault(row, headerMap, "Criticality"),
			MaintenanceWindow: maintenanceWindow,
		})
	}

	return anomalies, nil
}

// cellValue возвращает обрезанное значение ячейки; GetRows отбрасывает
// хвостовые пустые ячейки, поэтому индекс может выходить за длину строки
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cellOrDefault(row []string, headerMap map[string]int, header string) string {
	if v := cellValue(row, headerMap[header]); v != "" {
		return v
	}
	return columnDefaults[header]
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
