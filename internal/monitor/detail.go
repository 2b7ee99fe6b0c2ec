package monitor

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// buildDetailPayload assembles the full per-patient view: the newest row per
// test name, one chronological series per test name, and the last-test
// summary. Rows without a resolvable event timestamp are skipped here; the
// attention pass already decided this patient is included.
func buildDetailPayload(ctx admissionContext, tests []resolvedEvent, now time.Time) DetailPayload {
	type latestCandidate struct {
		result  LatestResult
		eventTS time.Time
	}
	latestPerTest := make(map[string]latestCandidate)
	type seriesCandidate struct {
		point   ChartPoint
		eventTS time.Time
	}
	pointsPerTest := make(map[string][]seriesCandidate)
	var nameOrder []string

	for _, ev := range tests {
		if ev.eventTS == nil {
			continue
		}
		row := ev.row
		name := row.TestName
		if _, seen := pointsPerTest[name]; !seen {
			nameOrder = append(nameOrder, name)
		}

		value := parseResultValue(row.ResultValue)
		candidate := latestCandidate{
			result: LatestResult{
				TestName:           name,
				OrderDate:          formatDateValue(row.OrderDate),
				OrderTime:          formatClockValue(row.OrderTime),
				OrderingPhysician:  row.OrderingPhysician,
				ResultValue:        value,
				ResultUnit:         row.ResultUnit,
				ReferenceRange:     row.ReferenceRange,
				ResultStatus:       row.ResultStatus,
				PerformedDate:      formatDateValue(row.PerformedDate),
				PerformedTime:      formatClockValue(row.PerformedTime),
				ReviewingPhysician: row.ReviewingPhysician,
			},
			eventTS: *ev.eventTS,
		}
		if current, seen := latestPerTest[name]; !seen || candidate.eventTS.After(current.eventTS) {
			latestPerTest[name] = candidate
		}

		pointsPerTest[name] = append(pointsPerTest[name], seriesCandidate{
			point: ChartPoint{
				Timestamp:    formatTimestamp(*ev.eventTS),
				Value:        value,
				ResultStatus: row.ResultStatus,
			},
			eventTS: *ev.eventTS,
		})
	}

	latestResults := make([]LatestResult, 0, len(latestPerTest))
	latestOrder := append([]string(nil), nameOrder...)
	sort.SliceStable(latestOrder, func(i, j int) bool {
		return latestPerTest[latestOrder[i]].eventTS.After(latestPerTest[latestOrder[j]].eventTS)
	})
	for _, name := range latestOrder {
		latestResults = append(latestResults, latestPerTest[name].result)
	}

	series := make([]ChartSeries, 0, len(pointsPerTest))
	for _, name := range nameOrder {
		candidates := pointsPerTest[name]
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].eventTS.Before(candidates[j].eventTS)
		})
		points := make([]ChartPoint, 0, len(candidates))
		for _, c := range candidates {
			points = append(points, c.point)
		}
		series = append(series, ChartSeries{TestName: name, Points: points})
	}

	var summary *LastTestSummary
	if ctx.lastTest != nil {
		summary = &LastTestSummary{
			TestName:           ctx.lastTest.testName,
			LastTestDatetime:   formatTimestamp(ctx.lastTest.timestamp),
			HoursSinceLastTest: hoursBetween(&ctx.lastTest.timestamp, now),
		}
	}

	adm := ctx.admission
	return DetailPayload{
		PatientID:           adm.PatientID,
		Name:                adm.Name(),
		Age:                 ctx.age,
		PrimaryPhysician:    adm.PrimaryPhysician,
		InsuranceProvider:   adm.InsuranceProvider,
		BloodType:           adm.BloodType,
		Allergies:           adm.Allergies,
		Department:          adm.Department,
		RoomNumber:          adm.RoomNumber,
		AdmissionDatetime:   formatTimestamp(ctx.admissionTS),
		HoursSinceAdmission: ctx.hoursSinceAdmission,
		LastTest:            summary,
		LatestResults:       latestResults,
		ChartSeries:         series,
	}
}

// parseResultValue converts a raw lab value to a float. Malformed numerics
// become a null measurement, never an error.
func parseResultValue(raw *string) *float64 {
	if raw == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil {
		return nil
	}
	return &f
}
