package clinical

import (
	"context"
	"fmt"
	"time"
)

// TemporalKind identifies how a source system delivered a date or time column.
type TemporalKind int

const (
	TemporalNull TemporalKind = iota
	TemporalNative
	TemporalText
)

// Temporal carries a date or time column exactly as the source system
// delivered it. Hospital exports mix native DATE/TIME columns with free-text
// encodings, so normalization happens later in the pipeline, not at scan time.
type Temporal struct {
	Kind TemporalKind
	Time time.Time
	Text string
}

// NativeTemporal wraps a native date/time value
func NativeTemporal(t time.Time) Temporal {
	return Temporal{Kind: TemporalNative, Time: t}
}

// TextTemporal wraps a textual date/time encoding
func TextTemporal(s string) Temporal {
	return Temporal{Kind: TemporalText, Text: s}
}

// IsNull reports whether the column was NULL
func (v Temporal) IsNull() bool {
	return v.Kind == TemporalNull
}

// Scan implements sql.Scanner
func (v *Temporal) Scan(value interface{}) error {
	if value == nil {
		*v = Temporal{}
		return nil
	}
	switch src := value.(type) {
	case time.Time:
		*v = Temporal{Kind: TemporalNative, Time: src}
	case string:
		*v = Temporal{Kind: TemporalText, Text: src}
	case []byte:
		*v = Temporal{Kind: TemporalText, Text: string(src)}
	default:
		return fmt.Errorf("cannot scan %T into Temporal", value)
	}
	return nil
}

// AdmissionRecord is one hospitalization episode joined with patient
// demographics, read fresh from the source at the start of each batch pass.
type AdmissionRecord struct {
	PatientID  int64
	CaseNumber int64

	FirstName         string
	LastName          string
	DateOfBirth       Temporal
	PrimaryPhysician  *string
	InsuranceProvider *string
	BloodType         *string
	Allergies         *string

	Department *string
	RoomNumber *string

	AdmissionDate Temporal
	AdmissionTime Temporal
	ReleaseDate   Temporal
	ReleaseTime   Temporal
}

// Name returns the patient's full name
func (a AdmissionRecord) Name() string {
	return a.FirstName + " " + a.LastName
}

// TestEventRow is a left-join of an ordered lab test to its result. A row may
// carry only order data, only result data, or both.
type TestEventRow struct {
	PatientID int64
	TestID    int64
	TestName  string

	OrderDate         Temporal
	OrderTime         Temporal
	OrderingPhysician *string

	ResultID *int64
	// ResultValue is kept as raw text; malformed numerics become a null
	// measurement downstream, never an error.
	ResultValue        *string
	ResultUnit         *string
	ReferenceRange     *string
	ResultStatus       *string
	PerformedDate      Temporal
	PerformedTime      Temporal
	ReviewingPhysician *string
}

// Source supplies raw clinical events for a snapshot pass.
type Source interface {
	// ListActiveCandidateAdmissions returns all admissions joined with
	// patient demographics that may still be active.
	ListActiveCandidateAdmissions(ctx context.Context) ([]AdmissionRecord, error)

	// ListTestEvents returns ordered tests left-joined to their results.
	ListTestEvents(ctx context.Context) ([]TestEventRow, error)

	// Health checks source connectivity.
	Health(ctx context.Context) error
}
