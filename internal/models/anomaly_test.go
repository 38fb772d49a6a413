package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAnomaly() *Anomaly {
	return &Anomaly{
		Title:             "Pump leak",
		Description:       "Seal failure on discharge side",
		Equipment:         "Pump-12",
		DetectionDate:     time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Source:            SourceManual,
		ResponsiblePerson: "A. Ivanov",
		Status:            StatusNew,
		Criticality:       CriticalityMedium,
	}
}

func TestValidateAcceptsValidRecord(t *testing.T) {
	require.NoError(t, validAnomaly().Validate())
}

func TestValidateRequiredFields(t *testing.T) {
	a := validAnomaly()
	a.Title = ""
	a.ResponsiblePerson = ""

	err := a.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "Title")
	assert.Contains(t, verr.Fields, "ResponsiblePerson")
}

func TestValidateRejectsUnknownStatus(t *testing.T) {
	a := validAnomaly()
	a.Status = "Pending"

	var verr *ValidationError
	require.ErrorAs(t, a.Validate(), &verr)
	assert.Contains(t, verr.Fields, "Status")
}

func TestValidateAcceptsInProgressStatus(t *testing.T) {
	a := validAnomaly()
	a.Status = StatusInProgress
	require.NoError(t, a.Validate())
}

func TestValidateRejectsUnknownCriticality(t *testing.T) {
	a := validAnomaly()
	a.Criticality = "Severe"

	var verr *ValidationError
	require.ErrorAs(t, a.Validate(), &verr)
	assert.Contains(t, verr.Fields, "Criticality")
}

func TestValidateRejectsZeroDetectionDate(t *testing.T) {
	a := validAnomaly()
	a.DetectionDate = time.Time{}

	var verr *ValidationError
	require.ErrorAs(t, a.Validate(), &verr)
	assert.Contains(t, verr.Fields, "DetectionDate")
}

func TestToAnomalyAppliesManualDefaults(t *testing.T) {
	input := AnomalyInput{
		Title:             "Valve stuck",
		Description:       "Inlet valve does not close",
		Equipment:         "Valve-7",
		DetectionDate:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		ResponsiblePerson: "B. Sidorov",
	}

	a := input.ToAnomaly()
	assert.Equal(t, SourceManual, a.Source)
	assert.Equal(t, StatusNew, a.Status)
	assert.Equal(t, CriticalityMedium, a.Criticality)
	require.NoError(t, a.Validate())
}

func TestToAnomalyKeepsExplicitValues(t *testing.T) {
	input := AnomalyInput{
		Title:             "Valve stuck",
		Description:       "d",
		Equipment:         "Valve-7",
		DetectionDate:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Source:            "Oracle",
		ResponsiblePerson: "B. Sidorov",
		Status:            StatusResolved,
		Criticality:       CriticalityHigh,
	}

	a := input.ToAnomaly()
	assert.Equal(t, "Oracle", a.Source)
	assert.Equal(t, StatusResolved, a.Status)
	assert.Equal(t, CriticalityHigh, a.Criticality)
}

func TestAnomalyJSONOmitsEmptyMaintenanceWindow(t *testing.T) {
	data, err := json.Marshal(validAnomaly())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "maintenanceWindow")

	mw := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	a := validAnomaly()
	a.MaintenanceWindow = &mw
	data, err = json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-03-01T10:00:00Z")
}
