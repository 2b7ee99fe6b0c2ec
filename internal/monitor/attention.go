package monitor

import (
	"sort"
	"time"

	"github.com/Sabale88/IchilovTest/internal/clinical"
)

// admissionContext is one admission that survived the attention filters,
// with the derived values every downstream builder needs. Keeping them here
// avoids re-resolving timestamps per output.
type admissionContext struct {
	admission           clinical.AdmissionRecord
	admissionTS         time.Time
	hoursSinceAdmission float64
	lastTest            *lastTest
	hoursSinceLastTest  *float64
	age                 *int
}

// evaluateAdmissions filters admissions down to the ones the attention list
// covers, preserving input order. An admission is skipped when its admission
// timestamp is unresolvable, when it is no longer active, or when it has not
// yet crossed the hours threshold.
func evaluateAdmissions(
	admissions []clinical.AdmissionRecord,
	lastByPatient map[int64]lastTest,
	now time.Time,
	hoursThreshold int,
	grace time.Duration,
) []admissionContext {
	var contexts []admissionContext

	for _, adm := range admissions {
		admissionTS, ok := combine(adm.AdmissionDate, adm.AdmissionTime)
		if !ok {
			continue
		}
		if !isActive(adm, now, grace) {
			continue
		}

		hoursSinceAdmission := 0.0
		if h := hoursBetween(&admissionTS, now); h != nil {
			hoursSinceAdmission = *h
		}
		if hoursSinceAdmission < float64(hoursThreshold) {
			continue
		}

		ctx := admissionContext{
			admission:           adm,
			admissionTS:         admissionTS,
			hoursSinceAdmission: hoursSinceAdmission,
		}

		if lt, seen := lastByPatient[adm.PatientID]; seen {
			ctx.lastTest = &lt
			ctx.hoursSinceLastTest = hoursBetween(&lt.timestamp, now)
		}

		if birth, ok := resolveDate(adm.DateOfBirth); ok {
			age := ageAt(birth, now)
			ctx.age = &age
		}

		contexts = append(contexts, ctx)
	}

	return contexts
}

// buildMonitoringEntries formats one entry per context and ranks them. The
// alert flag is raised when the patient has no qualifying test at all, or when
// the last test is at least the threshold old.
func buildMonitoringEntries(contexts []admissionContext, hoursThreshold int) []MonitoringEntry {
	entries := make([]MonitoringEntry, 0, len(contexts))

	for _, ctx := range contexts {
		adm := ctx.admission
		needsAlert := ctx.hoursSinceLastTest == nil || *ctx.hoursSinceLastTest >= float64(hoursThreshold)

		entry := MonitoringEntry{
			PatientID:          adm.PatientID,
			CaseNumber:         adm.CaseNumber,
			Name:               adm.Name(),
			Age:                ctx.age,
			Department:         adm.Department,
			RoomNumber:         adm.RoomNumber,
			AdmissionDatetime:  formatTimestamp(ctx.admissionTS),
			AdmissionLength:    formatDuration(&ctx.hoursSinceAdmission),
			TimeSinceLastTest:  "No tests",
			PrimaryPhysician:   adm.PrimaryPhysician,
			NeedsAlert:         &needsAlert,
			sortHoursAdmission: ctx.hoursSinceAdmission,
			sortHoursLastTest:  ctx.hoursSinceLastTest,
		}

		if ctx.lastTest != nil {
			ts := formatTimestamp(ctx.lastTest.timestamp)
			entry.LastTestDatetime = &ts
			entry.LastTestName = &ctx.lastTest.testName
			entry.TimeSinceLastTest = formatDuration(ctx.hoursSinceLastTest)
		}

		entries = append(entries, entry)
	}

	rankMonitoringEntries(entries)
	return entries
}

// rankMonitoringEntries orders entries by alert bucket first, then by
// descending hours since last test. Entries without a last test rank by
// descending hours since admission in the same key space, so they interleave
// by that metric rather than forming a separate tier. Ties keep input order.
func rankMonitoringEntries(entries []MonitoringEntry) {
	key := func(e MonitoringEntry) (int, float64) {
		bucket := 0
		if e.NeedsAlert != nil && !*e.NeedsAlert {
			bucket = 1
		}
		if e.sortHoursLastTest != nil {
			return bucket, -*e.sortHoursLastTest
		}
		return bucket, -e.sortHoursAdmission
	}

	sort.SliceStable(entries, func(i, j int) bool {
		bi, ki := key(entries[i])
		bj, kj := key(entries[j])
		if bi != bj {
			return bi < bj
		}
		return ki < kj
	})
}
