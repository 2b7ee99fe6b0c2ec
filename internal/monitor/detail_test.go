package monitor

import (
	"testing"
	"time"

	"github.com/Sabale88/IchilovTest/internal/clinical"
)

func strPtr(s string) *string { return &s }

func detailContext(patientID int64, lt *lastTest) admissionContext {
	admitted := attentionNow.Add(-100 * time.Hour)
	age := 45
	return admissionContext{
		admission: clinical.AdmissionRecord{
			PatientID:  patientID,
			CaseNumber: 900,
			FirstName:  "Dana",
			LastName:   "Cohen",
			BloodType:  strPtr("A+"),
		},
		admissionTS:         admitted,
		hoursSinceAdmission: 100,
		lastTest:            lt,
		hoursSinceLastTest:  nil,
		age:                 &age,
	}
}

func resultRow(name, orderDate, orderTime, value string) clinical.TestEventRow {
	row := testRow(1, name, orderDate, orderTime, "", "")
	if value != "" {
		row.ResultValue = &value
	}
	return row
}

func TestBuildDetailPayloadBasics(t *testing.T) {
	rows := []clinical.TestEventRow{
		resultRow("CBC", "10.3.2024", "08:00", "12.5"),
		resultRow("Glucose", "11.3.2024", "09:30", "5.4"),
	}
	agg := aggregateTestEvents(rows)

	lt := lastTestAt(10, "Glucose")
	payload := buildDetailPayload(detailContext(1, &lt), agg.byPatient[1], attentionNow)

	if payload.PatientID != 1 {
		t.Errorf("PatientID = %d", payload.PatientID)
	}
	if payload.Name != "Dana Cohen" {
		t.Errorf("Name = %q", payload.Name)
	}
	if payload.Age == nil || *payload.Age != 45 {
		t.Errorf("Age = %v", payload.Age)
	}
	if payload.HoursSinceAdmission != 100 {
		t.Errorf("HoursSinceAdmission = %v", payload.HoursSinceAdmission)
	}

	if payload.LastTest == nil {
		t.Fatal("expected a last test summary")
	}
	if payload.LastTest.TestName != "Glucose" {
		t.Errorf("LastTest.TestName = %q", payload.LastTest.TestName)
	}
	if payload.LastTest.HoursSinceLastTest == nil || *payload.LastTest.HoursSinceLastTest != 10 {
		t.Errorf("HoursSinceLastTest = %v", payload.LastTest.HoursSinceLastTest)
	}

	if len(payload.LatestResults) != 2 {
		t.Fatalf("expected 2 latest results, got %d", len(payload.LatestResults))
	}
	// descending by event timestamp: Glucose (11.3) before CBC (10.3)
	if payload.LatestResults[0].TestName != "Glucose" || payload.LatestResults[1].TestName != "CBC" {
		t.Errorf("latest results order = [%s, %s]",
			payload.LatestResults[0].TestName, payload.LatestResults[1].TestName)
	}
	if v := payload.LatestResults[0].ResultValue; v == nil || *v != 5.4 {
		t.Errorf("Glucose value = %v", v)
	}
	if d := payload.LatestResults[1].OrderDate; d == nil || *d != "10.03.2024" {
		t.Errorf("CBC order date = %v", d)
	}
}

func TestBuildDetailPayloadLatestPerTest(t *testing.T) {
	rows := []clinical.TestEventRow{
		resultRow("CBC", "10.3.2024", "08:00", "11.0"),
		resultRow("CBC", "12.3.2024", "08:00", "13.0"),
		resultRow("CBC", "11.3.2024", "08:00", "12.0"),
	}
	agg := aggregateTestEvents(rows)
	payload := buildDetailPayload(detailContext(1, nil), agg.byPatient[1], attentionNow)

	if len(payload.LatestResults) != 1 {
		t.Fatalf("expected 1 latest result, got %d", len(payload.LatestResults))
	}
	if v := payload.LatestResults[0].ResultValue; v == nil || *v != 13.0 {
		t.Errorf("latest CBC value = %v, want 13.0", v)
	}
}

func TestBuildDetailPayloadChartSeriesAscending(t *testing.T) {
	rows := []clinical.TestEventRow{
		resultRow("CBC", "12.3.2024", "08:00", "13.0"),
		resultRow("CBC", "10.3.2024", "08:00", "11.0"),
		resultRow("CBC", "2.1.2024", "08:00", "9.0"),
		resultRow("Glucose", "11.3.2024", "09:00", "5.0"),
	}
	agg := aggregateTestEvents(rows)
	payload := buildDetailPayload(detailContext(1, nil), agg.byPatient[1], attentionNow)

	if len(payload.ChartSeries) != 2 {
		t.Fatalf("expected 2 series, got %d", len(payload.ChartSeries))
	}
	// first-seen test name order
	if payload.ChartSeries[0].TestName != "CBC" {
		t.Errorf("first series = %s, want CBC", payload.ChartSeries[0].TestName)
	}

	points := payload.ChartSeries[0].Points
	if len(points) != 3 {
		t.Fatalf("expected 3 CBC points, got %d", len(points))
	}
	// ascending by event timestamp, even where the display string would
	// sort differently (02.01.2024 vs 10.03.2024 vs 12.03.2024)
	want := []string{"02.01.2024 08:00:00", "10.03.2024 08:00:00", "12.03.2024 08:00:00"}
	for i, p := range points {
		if p.Timestamp != want[i] {
			t.Errorf("point %d = %q, want %q", i, p.Timestamp, want[i])
		}
	}
}

func TestBuildDetailPayloadSkipsUnresolvedRows(t *testing.T) {
	rows := []clinical.TestEventRow{
		resultRow("CBC", "10.3.2024", "08:00", "11.0"),
		testRow(1, "CBC", "", "", "", ""),
	}
	agg := aggregateTestEvents(rows)
	payload := buildDetailPayload(detailContext(1, nil), agg.byPatient[1], attentionNow)

	if len(payload.ChartSeries[0].Points) != 1 {
		t.Errorf("unresolved rows must not produce chart points, got %d",
			len(payload.ChartSeries[0].Points))
	}
}

func TestBuildDetailPayloadNoLastTest(t *testing.T) {
	payload := buildDetailPayload(detailContext(1, nil), nil, attentionNow)

	if payload.LastTest != nil {
		t.Error("expected nil last test summary")
	}
	if len(payload.LatestResults) != 0 {
		t.Errorf("expected no latest results, got %d", len(payload.LatestResults))
	}
	if len(payload.ChartSeries) != 0 {
		t.Errorf("expected no series, got %d", len(payload.ChartSeries))
	}
}

func TestParseResultValue(t *testing.T) {
	tests := []struct {
		name     string
		raw      *string
		expected *float64
	}{
		{"nil", nil, nil},
		{"numeric", strPtr("12.5"), f64(12.5)},
		{"integer", strPtr("7"), f64(7)},
		{"padded", strPtr(" 3.2 "), f64(3.2)},
		{"malformed", strPtr("positive"), nil},
		{"empty", strPtr(""), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseResultValue(tt.raw)
			if (got == nil) != (tt.expected == nil) {
				t.Fatalf("parseResultValue = %v, want %v", got, tt.expected)
			}
			if got != nil && *got != *tt.expected {
				t.Errorf("parseResultValue = %v, want %v", *got, *tt.expected)
			}
		})
	}
}
