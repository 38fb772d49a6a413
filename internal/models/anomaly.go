package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Допустимые значения перечислений. Источник записи может быть и произвольной
// строкой (интеграции присылают свои имена систем), статус и критичность - нет.
const (
	StatusNew        = "New"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"

	CriticalityHigh   = "High"
	CriticalityMedium = "Medium"
	CriticalityLow    = "Low"

	SourceManual = "Manual"
	SourceExcel  = "Excel"
)

type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Anomaly struct {
	ID                uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	Title             string                            `gorm:"type:text;not null" json:"title" validate:"required"`
	Description       string                            `gorm:"type:text;not null" json:"description" validate:"required"`
	Equipment         string                            `gorm:"type:text;not null;index" json:"equipment" validate:"required"`
	DetectionDate     time.Time                         `gorm:"not null;index" json:"detectionDate" validate:"required"`
	Source            string                            `gorm:"type:varchar(50);not null" json:"source" validate:"required"`
	ResponsiblePerson string                            `gorm:"type:text;not null" json:"responsiblePerson" validate:"required"`
	Status            string                            `gorm:"type:varchar(20);not null;index" json:"status" validate:"required,oneof='New' 'In Progress' 'Resolved'"`
	Criticality       string                            `gorm:"type:varchar(10);not null;index" json:"criticality" validate:"required,oneof=High Medium Low"`
	MaintenanceWindow *time.Time                        `json:"maintenanceWindow,omitempty"`
	Attachments       datatypes.JSONSlice[Attachment]   `gorm:"type:jsonb" json:"attachments,omitempty"`
	CreatedAt         time.Time                         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time                         `gorm:"autoUpdateTime" json:"updatedAt"`
}

// BeforeCreate присваивает UUID на стороне приложения, а не БД
func (a *Anomaly) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

var validate = validator.New()

// Validate - единственная точка проверки схемы записи. Вызывается и на границе
// API, и перед каждой записью в хранилище, чтобы правила не расходились.
func (a *Anomaly) Validate() error {
	if err := validate.Struct(a); err != nil {
		return NewValidationError(err)
	}
	return nil
}

// AnomalyInput - входные поля записи (создание формой или строка импорта).
// ID и системные таймстемпы назначает хранилище.
type AnomalyInput struct {
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Equipment         string       `json:"equipment"`
	DetectionDate     time.Time    `json:"detectionDate"`
	Source            string       `json:"source"`
	ResponsiblePerson string       `json:"responsiblePerson"`
	Status            string       `json:"status"`
	Criticality       string       `json:"criticality"`
	MaintenanceWindow *time.Time   `json:"maintenanceWindow,omitempty"`
	Attachments       []Attachment `json:"attachments,omitempty"`
}

// ToAnomaly заполняет модель, подставляя значения по умолчанию для
// пользовательского ввода: source=Manual, status=New, criticality=Medium.
func (in *AnomalyInput) ToAnomaly() *Anomaly {
	a := &Anomaly{
		Title:             in.Title,
		Description:       in.Description,
		Equipment:         in.Equipment,
		DetectionDate:     in.DetectionDate,
		Source:            in.Source,
		ResponsiblePerson: in.ResponsiblePerson,
		Status:            in.Status,
		Criticality:       in.Criticality,
		MaintenanceWindow: in.MaintenanceWindow,
		Attachments:       datatypes.NewJSONSlice(in.Attachments),
	}
	if a.Source == "" {
		a.Source = SourceManual
	}
	if a.Status == "" {
		a.Status = StatusNew
	}
	if a.Criticality == "" {
		a.Criticality = CriticalityMedium
	}
	return a
}

// AnomalyUpdate - частичное обновление: nil-поле не трогает сохраненное
// значение. MaintenanceWindow передается строкой: пустая строка очищает поле.
type AnomalyUpdate struct {
	Title             *string       `json:"title"`
	Description       *string       `json:"description"`
	Equipment         *string       `json:"equipment"`
	DetectionDate     *time.Time    `json:"detectionDate"`
	Source            *string       `json:"source"`
	ResponsiblePerson *string       `json:"responsiblePerson"`
	Status            *string       `json:"status"`
	Criticality       *string       `json:"criticality"`
	MaintenanceWindow *string       `json:"maintenanceWindow"`
	Attachments       *[]Attachment `json:"attachments"`
}
