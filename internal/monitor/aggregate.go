package monitor

import (
	"time"

	"github.com/Sabale88/IchilovTest/internal/clinical"
)

// resolvedEvent is a raw test row plus its derived timestamps. A row with no
// resolvable event timestamp is kept for per-patient listings but excluded
// from every "latest" computation.
type resolvedEvent struct {
	row     clinical.TestEventRow
	eventTS *time.Time
}

// lastTest records the most recent qualifying test event for one patient.
type lastTest struct {
	timestamp time.Time
	testName  string
}

// testAggregate groups test events by patient and indexes the last test per
// patient from rows whose event timestamp resolved.
type testAggregate struct {
	byPatient     map[int64][]resolvedEvent
	lastByPatient map[int64]lastTest
}

// aggregateTestEvents derives per-row timestamps and builds both indexes in
// one pass. The event timestamp is the later of the order and result
// timestamps. On equal timestamps the first row seen wins the last-test slot.
func aggregateTestEvents(rows []clinical.TestEventRow) testAggregate {
	agg := testAggregate{
		byPatient:     make(map[int64][]resolvedEvent),
		lastByPatient: make(map[int64]lastTest),
	}

	for _, row := range rows {
		var orderTS, resultTS *time.Time
		if ts, ok := combine(row.OrderDate, row.OrderTime); ok {
			orderTS = &ts
		}
		if ts, ok := combine(row.PerformedDate, row.PerformedTime); ok {
			resultTS = &ts
		}
		eventTS := maxTimestamp(orderTS, resultTS)

		agg.byPatient[row.PatientID] = append(agg.byPatient[row.PatientID], resolvedEvent{
			row:     row,
			eventTS: eventTS,
		})

		if eventTS == nil {
			continue
		}
		current, seen := agg.lastByPatient[row.PatientID]
		if !seen || eventTS.After(current.timestamp) {
			agg.lastByPatient[row.PatientID] = lastTest{
				timestamp: *eventTS,
				testName:  row.TestName,
			}
		}
	}

	return agg
}
