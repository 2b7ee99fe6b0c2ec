package monitor

import (
	"time"

	"github.com/Sabale88/IchilovTest/internal/shared/types"
)

// MonitoringEntry is one row of the attention list: an active admission that
// crossed the hours threshold, with display-formatted durations.
type MonitoringEntry struct {
	PatientID         int64   `json:"patient_id"`
	CaseNumber        int64   `json:"case_number"`
	Name              string  `json:"name"`
	Age               *int    `json:"age"`
	Department        *string `json:"department"`
	RoomNumber        *string `json:"room_number"`
	AdmissionDatetime string  `json:"admission_datetime"`
	AdmissionLength   string  `json:"admission_length"`
	LastTestDatetime  *string `json:"last_test_datetime"`
	TimeSinceLastTest string  `json:"time_since_last_test"`
	LastTestName      *string `json:"last_test_name"`
	PrimaryPhysician  *string `json:"primary_physician"`
	// NeedsAlert is a pointer so that snapshots written before the flag
	// existed can be told apart from an explicit false and backfilled on read.
	NeedsAlert *bool `json:"needs_alert"`

	// ranking keys, never serialized
	sortHoursAdmission float64
	sortHoursLastTest  *float64
}

// MonitoringPayload is the persisted body of one monitoring snapshot.
type MonitoringPayload struct {
	GeneratedAt    string            `json:"generated_at"`
	HoursThreshold int               `json:"hours_threshold"`
	Patients       []MonitoringEntry `json:"patients"`
}

// Pagination describes the slice of the ranked list returned to the caller.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// MonitoringResponse is the caller-facing page of monitoring entries.
type MonitoringResponse struct {
	Data       []MonitoringEntry `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

// LastTestSummary describes the most recent qualifying test for a patient.
type LastTestSummary struct {
	TestName           string   `json:"test_name"`
	LastTestDatetime   string   `json:"last_test_datetime"`
	HoursSinceLastTest *float64 `json:"hours_since_last_test"`
}

// LatestResult carries the newest row per test name, formatted for display.
type LatestResult struct {
	TestName           string   `json:"test_name"`
	OrderDate          *string  `json:"order_date"`
	OrderTime          *string  `json:"order_time"`
	OrderingPhysician  *string  `json:"ordering_physician"`
	ResultValue        *float64 `json:"result_value"`
	ResultUnit         *string  `json:"result_unit"`
	ReferenceRange     *string  `json:"reference_range"`
	ResultStatus       *string  `json:"result_status"`
	PerformedDate      *string  `json:"performed_date"`
	PerformedTime      *string  `json:"performed_time"`
	ReviewingPhysician *string  `json:"reviewing_physician"`
}

// ChartPoint is one measurement on a per-test time series.
type ChartPoint struct {
	Timestamp    string   `json:"timestamp"`
	Value        *float64 `json:"value"`
	ResultStatus *string  `json:"result_status"`
}

// ChartSeries is the chronological series of measurements for one test name.
type ChartSeries struct {
	TestName string       `json:"test_name"`
	Points   []ChartPoint `json:"points"`
}

// DetailPayload is the persisted body of one patient detail snapshot.
type DetailPayload struct {
	PatientID           int64            `json:"patient_id"`
	Name                string           `json:"name"`
	Age                 *int             `json:"age"`
	PrimaryPhysician    *string          `json:"primary_physician"`
	InsuranceProvider   *string          `json:"insurance_provider"`
	BloodType           *string          `json:"blood_type"`
	Allergies           *string          `json:"allergies"`
	Department          *string          `json:"department"`
	RoomNumber          *string          `json:"room_number"`
	AdmissionDatetime   string           `json:"admission_datetime"`
	HoursSinceAdmission float64          `json:"hours_since_admission"`
	LastTest            *LastTestSummary `json:"last_test"`
	LatestResults       []LatestResult   `json:"latest_results"`
	ChartSeries         []ChartSeries    `json:"chart_series"`
}

// PatientDetail pairs a detail payload with its patient for persistence.
type PatientDetail struct {
	PatientID int64
	Payload   DetailPayload
}

// RefreshResult is the complete output of one snapshot pass, handed to the
// store as a unit so that a failed pass leaves no partial write.
type RefreshResult struct {
	HoursThreshold int
	GeneratedAt    time.Time
	Monitoring     MonitoringPayload
	Details        []PatientDetail
}

// RefreshSummary reports what one completed pass produced.
type RefreshSummary struct {
	MonitoringSnapshotID types.ID `json:"monitoring_snapshot_id"`
	PatientCount         int      `json:"patient_count"`
	DetailSnapshots      int      `json:"detail_snapshots"`
}

// StoredMonitoringSnapshot is a monitoring snapshot read back from the store.
type StoredMonitoringSnapshot struct {
	ID        types.ID
	CreatedAt time.Time
	Payload   MonitoringPayload
}

// StoredDetailSnapshot is a detail snapshot read back from the store.
type StoredDetailSnapshot struct {
	ID        types.ID
	PatientID int64
	CreatedAt time.Time
	Payload   DetailPayload
}
