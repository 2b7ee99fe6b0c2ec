package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sabale88/IchilovTest/internal/clinical"
)

func testHandler(source *fakeSource, store *fakeStore) http.Handler {
	return NewHandler(testService(source, store)).Routes()
}

func TestGetMonitoringList(t *testing.T) {
	source := &fakeSource{admissions: []clinical.AdmissionRecord{admission(1, 101, 50)}}
	handler := testHandler(source, newFakeStore())

	req := httptest.NewRequest("GET", "/patients/monitoring?hours_threshold=48&page=1&limit=10", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp MonitoringResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pagination.Total != 1 || len(resp.Data) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Data[0].PatientID != 1 {
		t.Errorf("PatientID = %d", resp.Data[0].PatientID)
	}
	if resp.Data[0].TimeSinceLastTest != "No tests" {
		t.Errorf("TimeSinceLastTest = %q", resp.Data[0].TimeSinceLastTest)
	}
}

func TestGetMonitoringListEmptyWhenSourceDown(t *testing.T) {
	source := &fakeSource{err: errConnRefused}
	handler := testHandler(source, newFakeStore())

	req := httptest.NewRequest("GET", "/patients/monitoring", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// degraded, not an error
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp MonitoringResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pagination.Total != 0 {
		t.Errorf("Total = %d, want 0", resp.Pagination.Total)
	}
}

func TestGetPatientDetail(t *testing.T) {
	source := &fakeSource{admissions: []clinical.AdmissionRecord{admission(5, 105, 50)}}
	handler := testHandler(source, newFakeStore())

	req := httptest.NewRequest("GET", "/patients/5", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var detail DetailPayload
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.PatientID != 5 {
		t.Errorf("PatientID = %d", detail.PatientID)
	}
}

func TestGetPatientDetailNotFound(t *testing.T) {
	handler := testHandler(&fakeSource{}, newFakeStore())

	req := httptest.NewRequest("GET", "/patients/999", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetPatientDetailInvalidID(t *testing.T) {
	handler := testHandler(&fakeSource{}, newFakeStore())

	req := httptest.NewRequest("GET", "/patients/abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRefreshSnapshotsEndpoint(t *testing.T) {
	source := &fakeSource{admissions: []clinical.AdmissionRecord{admission(1, 101, 50)}}
	store := newFakeStore()
	handler := testHandler(source, store)

	req := httptest.NewRequest("POST", "/snapshots/refresh", strings.NewReader(`{"hours_threshold": 24}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var summary RefreshSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.PatientCount != 1 {
		t.Errorf("PatientCount = %d, want 1", summary.PatientCount)
	}
	if len(store.saved) != 1 || store.saved[0].HoursThreshold != 24 {
		t.Errorf("expected a save at threshold 24")
	}
}

func TestRefreshSnapshotsEmptyBody(t *testing.T) {
	handler := testHandler(&fakeSource{}, newFakeStore())

	req := httptest.NewRequest("POST", "/snapshots/refresh", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
}

func TestRefreshSnapshotsStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errConnRefused
	handler := testHandler(&fakeSource{}, store)

	req := httptest.NewRequest("POST", "/snapshots/refresh", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
