package clients

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"andon/internal/models"
)

// TableView - представление последнего загруженного списка аномалий.
// Поиск, фильтры и сортировка работают поверх локальной копии без повторных
// запросов к API; очередной FetchAnomalies полностью заменяет содержимое.
type TableView struct {
	anomalies []models.Anomaly

	searchTerm        string
	filterStatus      string
	filterCriticality string
	sortKey           string
	sortDesc          bool
}

func NewTableView(anomalies []models.Anomaly) *TableView {
	v := &TableView{
		// Свежие обнаружения первыми
		sortKey:  "detectionDate",
		sortDesc: true,
	}
	v.SetItems(anomalies)
	return v
}

// SetItems заменяет кэшированный список (очередная загрузка с сервера)
func (v *TableView) SetItems(anomalies []models.Anomaly) {
	v.anomalies = make([]models.Anomaly, len(anomalies))
	copy(v.anomalies, anomalies)
}

// Search ищет подстроку в названии и оборудовании без учета регистра
func (v *TableView) Search(term string) {
	v.searchTerm = term
}

func (v *TableView) FilterStatus(status string) {
	v.filterStatus = status
}

func (v *TableView) FilterCriticality(criticality string) {
	v.filterCriticality = criticality
}

func (v *TableView) ClearFilters() {
	v.searchTerm = ""
	v.filterStatus = ""
	v.filterCriticality = ""
}

// SortBy повторяет поведение клика по заголовку колонки: повторный выбор
// той же колонки переключает направление, новая колонка сортируется по
// возрастанию
func (v *TableView) SortBy(key string) {
	if v.sortKey == key {
		v.sortDesc = !v.sortDesc
	} else {
		v.sortKey = key
		v.sortDesc = false
	}
}

func (v *TableView) SortState() (key string, desc bool) {
	return v.sortKey, v.sortDesc
}

// Rows возвращает отфильтрованный и отсортированный список
func (v *TableView) Rows() []models.Anomaly {
	result := make([]models.Anomaly, 0, len(v.anomalies))

	term := strings.ToLower(v.searchTerm)
	for _, a := range v.anomalies {
		if term != "" &&
			!strings.Contains(strings.ToLower(a.Title), term) &&
			!strings.Contains(strings.ToLower(a.Equipment), term) {
			continue
		}
		if v.filterStatus != "" && a.Status != v.filterStatus {
			continue
		}
		if v.filterCriticality != "" && a.Criticality != v.filterCriticality {
			continue
		}
		result = append(result, a)
	}

	if v.sortKey != "" {
		accessor, ok := fieldAccessors[v.sortKey]
		if ok {
			sort.SliceStable(result, func(i, j int) bool {
				cmp := compareValues(accessor(&result[i]), accessor(&result[j]))
				if v.sortDesc {
					return cmp > 0
				}
				return cmp < 0
			})
		}
	}

	return result
}

var fieldAccessors = map[string]func(a *models.Anomaly) interface{}{
	"title":             func(a *models.Anomaly) interface{} { return a.Title },
	"description":       func(a *models.Anomaly) interface{} { return a.Description },
	"equipment":         func(a *models.Anomaly) interface{} { return a.Equipment },
	"detectionDate":     func(a *models.Anomaly) interface{} { return a.DetectionDate },
	"source":            func(a *models.Anomaly) interface{} { return a.Source },
	"responsiblePerson": func(a *models.Anomaly) interface{} { return a.ResponsiblePerson },
	"status":            func(a *models.Anomaly) interface{} { return a.Status },
	"criticality":       func(a *models.Anomaly) interface{} { return a.Criticality },
	"maintenanceWindow": func(a *models.Anomaly) interface{} {
		if a.MaintenanceWindow == nil {
			return nil
		}
		return *a.MaintenanceWindow
	},
	"createdAt": func(a *models.Anomaly) interface{} { return a.CreatedAt },
	"updatedAt": func(a *models.Anomaly) interface{} { return a.UpdatedAt },
}

// compareValues сравнивает значения колонок: строки лексикографически,
// числа численно, даты хронологически, все прочие пары - как строки
func compareValues(a, b interface{}) int {
	if a == nil || b == nil {
		return 0
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			switch {
			case x.Before(y):
				return -1
			case x.After(y):
				return 1
			default:
				return 0
			}
		}
	case float64:
		if y, ok := b.(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			default:
				return 0
			}
		}
	case int:
		if y, ok := b.(int); ok {
			return x - y
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
