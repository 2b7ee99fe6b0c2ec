package clinical

import (
	"testing"
	"time"
)

func TestTemporalScan(t *testing.T) {
	native := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		value    any
		expected Temporal
		wantErr  bool
	}{
		{"nil", nil, Temporal{}, false},
		{"time", native, Temporal{Kind: TemporalNative, Time: native}, false},
		{"string", "15.3.2024", Temporal{Kind: TemporalText, Text: "15.3.2024"}, false},
		{"bytes", []byte("08:30"), Temporal{Kind: TemporalText, Text: "08:30"}, false},
		{"unsupported", 42, Temporal{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Temporal
			err := v.Scan(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Scan error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if v.Kind != tt.expected.Kind || v.Text != tt.expected.Text || !v.Time.Equal(tt.expected.Time) {
				t.Errorf("Scan = %+v, want %+v", v, tt.expected)
			}
		})
	}
}

func TestTemporalIsNull(t *testing.T) {
	if !(Temporal{}).IsNull() {
		t.Error("zero Temporal must be null")
	}
	if TextTemporal("x").IsNull() {
		t.Error("text Temporal must not be null")
	}
	if NativeTemporal(time.Now()).IsNull() {
		t.Error("native Temporal must not be null")
	}
}

func TestAdmissionRecordName(t *testing.T) {
	adm := AdmissionRecord{FirstName: "Dana", LastName: "Cohen"}
	if adm.Name() != "Dana Cohen" {
		t.Errorf("Name = %q", adm.Name())
	}
}
