package monitor

import (
	"testing"
	"time"

	"github.com/Sabale88/IchilovTest/internal/clinical"
)

var attentionNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func admission(patientID, caseNumber int64, admittedHoursAgo float64) clinical.AdmissionRecord {
	admitted := attentionNow.Add(-time.Duration(admittedHoursAgo * float64(time.Hour)))
	return clinical.AdmissionRecord{
		PatientID:     patientID,
		CaseNumber:    caseNumber,
		FirstName:     "Test",
		LastName:      "Patient",
		AdmissionDate: clinical.NativeTemporal(admitted),
		AdmissionTime: clinical.NativeTemporal(admitted),
	}
}

func lastTestAt(hoursAgo float64, name string) lastTest {
	return lastTest{
		timestamp: attentionNow.Add(-time.Duration(hoursAgo * float64(time.Hour))),
		testName:  name,
	}
}

func TestEvaluateAdmissionsFilters(t *testing.T) {
	released := admission(3, 103, 100)
	released.ReleaseDate = clinical.NativeTemporal(attentionNow.Add(-5 * time.Hour))
	released.ReleaseTime = clinical.NativeTemporal(attentionNow.Add(-5 * time.Hour))

	unresolvable := clinical.AdmissionRecord{
		PatientID:     4,
		CaseNumber:    104,
		AdmissionDate: clinical.TextTemporal("admitted at some point"),
	}

	admissions := []clinical.AdmissionRecord{
		admission(1, 101, 50), // qualifies
		admission(2, 102, 20), // under threshold
		released,              // inactive
		unresolvable,          // bad data
	}

	contexts := evaluateAdmissions(admissions, nil, attentionNow, 48, 2*time.Hour)
	if len(contexts) != 1 {
		t.Fatalf("expected 1 context, got %d", len(contexts))
	}
	if contexts[0].admission.PatientID != 1 {
		t.Errorf("expected patient 1, got %d", contexts[0].admission.PatientID)
	}
	if contexts[0].hoursSinceAdmission != 50 {
		t.Errorf("hoursSinceAdmission = %v, want 50", contexts[0].hoursSinceAdmission)
	}
}

func TestEvaluateAdmissionsThresholdBoundary(t *testing.T) {
	contexts := evaluateAdmissions(
		[]clinical.AdmissionRecord{admission(1, 101, 48)},
		nil, attentionNow, 48, 2*time.Hour,
	)
	if len(contexts) != 1 {
		t.Fatal("an admission exactly at the threshold is included")
	}
}

func TestBuildMonitoringEntriesNoTests(t *testing.T) {
	contexts := evaluateAdmissions(
		[]clinical.AdmissionRecord{admission(1, 101, 50)},
		nil, attentionNow, 48, 2*time.Hour,
	)
	entries := buildMonitoringEntries(contexts, 48)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.NeedsAlert == nil || !*e.NeedsAlert {
		t.Error("no tests at all must raise the alert")
	}
	if e.TimeSinceLastTest != "No tests" {
		t.Errorf("TimeSinceLastTest = %q, want \"No tests\"", e.TimeSinceLastTest)
	}
	if e.LastTestDatetime != nil || e.LastTestName != nil {
		t.Error("expected no last test fields")
	}
	if e.AdmissionLength != "2d, 2h" {
		t.Errorf("AdmissionLength = %q, want \"2d, 2h\"", e.AdmissionLength)
	}
}

func TestBuildMonitoringEntriesRecentTest(t *testing.T) {
	lastByPatient := map[int64]lastTest{
		1: lastTestAt(10, "CBC"),
	}
	contexts := evaluateAdmissions(
		[]clinical.AdmissionRecord{admission(1, 101, 100)},
		lastByPatient, attentionNow, 48, 2*time.Hour,
	)
	entries := buildMonitoringEntries(contexts, 48)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.NeedsAlert == nil || *e.NeedsAlert {
		t.Error("a 10 hour old test must not alert at threshold 48")
	}
	if e.TimeSinceLastTest != "10h" {
		t.Errorf("TimeSinceLastTest = %q, want \"10h\"", e.TimeSinceLastTest)
	}
	if e.LastTestName == nil || *e.LastTestName != "CBC" {
		t.Errorf("LastTestName = %v, want CBC", e.LastTestName)
	}
}

func TestBuildMonitoringEntriesStaleTestAlerts(t *testing.T) {
	lastByPatient := map[int64]lastTest{
		1: lastTestAt(48, "CBC"),
	}
	contexts := evaluateAdmissions(
		[]clinical.AdmissionRecord{admission(1, 101, 100)},
		lastByPatient, attentionNow, 48, 2*time.Hour,
	)
	entries := buildMonitoringEntries(contexts, 48)

	// exactly at the threshold still alerts
	if e := entries[0]; e.NeedsAlert == nil || !*e.NeedsAlert {
		t.Error("a test exactly threshold hours old must alert")
	}
}

func TestRankingAlertBucketFirst(t *testing.T) {
	lastByPatient := map[int64]lastTest{
		1: lastTestAt(10, "CBC"), // fresh, no alert
		2: lastTestAt(72, "CBC"), // stale, alert
		3: lastTestAt(50, "CBC"), // stale, alert
	}
	admissions := []clinical.AdmissionRecord{
		admission(1, 101, 100),
		admission(2, 102, 100),
		admission(3, 103, 100),
	}

	contexts := evaluateAdmissions(admissions, lastByPatient, attentionNow, 48, 2*time.Hour)
	entries := buildMonitoringEntries(contexts, 48)

	got := []int64{entries[0].PatientID, entries[1].PatientID, entries[2].PatientID}
	want := []int64{2, 3, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking = %v, want %v", got, want)
		}
	}
}

func TestRankingNoTestsInterleavesByAdmissionHours(t *testing.T) {
	// patient 1 has no tests: keyed by hours since admission (60) in the
	// same space as patient 2's hours since last test (72)
	lastByPatient := map[int64]lastTest{
		2: lastTestAt(72, "CBC"),
	}
	admissions := []clinical.AdmissionRecord{
		admission(1, 101, 60),
		admission(2, 102, 100),
	}

	contexts := evaluateAdmissions(admissions, lastByPatient, attentionNow, 48, 2*time.Hour)
	entries := buildMonitoringEntries(contexts, 48)

	if entries[0].PatientID != 2 || entries[1].PatientID != 1 {
		t.Errorf("ranking = [%d, %d], want [2, 1]", entries[0].PatientID, entries[1].PatientID)
	}
}

func TestRankingTieKeepsInputOrder(t *testing.T) {
	lastByPatient := map[int64]lastTest{
		1: lastTestAt(72, "CBC"),
		2: lastTestAt(72, "CBC"),
	}
	admissions := []clinical.AdmissionRecord{
		admission(1, 101, 100),
		admission(2, 102, 100),
	}

	contexts := evaluateAdmissions(admissions, lastByPatient, attentionNow, 48, 2*time.Hour)
	entries := buildMonitoringEntries(contexts, 48)

	if entries[0].PatientID != 1 || entries[1].PatientID != 2 {
		t.Errorf("tied entries must keep input order, got [%d, %d]",
			entries[0].PatientID, entries[1].PatientID)
	}
}
