package monitor

import (
	"strconv"
	"strings"
)

const (
	hoursPerDay  = 24
	hoursPerWeek = 7 * hoursPerDay
	hoursPerYear = 365 * hoursPerDay
)

// formatDuration renders an hour count as a compact human string, e.g.
// "1y, 2w, 3d, 4h". The 365-day year is an approximation, not calendar
// aware. Unresolved or negative input renders as "N/A"; zero renders as "0h".
func formatDuration(hours *float64) string {
	if hours == nil || *hours < 0 {
		return "N/A"
	}

	total := int(*hours)
	years := total / hoursPerYear
	total %= hoursPerYear
	weeks := total / hoursPerWeek
	total %= hoursPerWeek
	days := total / hoursPerDay
	total %= hoursPerDay

	var parts []string
	if years > 0 {
		parts = append(parts, strconv.Itoa(years)+"y")
	}
	if weeks > 0 {
		parts = append(parts, strconv.Itoa(weeks)+"w")
	}
	if days > 0 {
		parts = append(parts, strconv.Itoa(days)+"d")
	}
	if total > 0 || len(parts) == 0 {
		parts = append(parts, strconv.Itoa(total)+"h")
	}

	return strings.Join(parts, ", ")
}

// parseDurationHours converts a formatted duration back to whole hours. The
// round trip is lossy for fractional input and used only as a display
// fallback. Sentinels and empty input yield nil; tokens that do not parse as
// <int><suffix> are skipped.
func parseDurationHours(duration string) *int {
	if duration == "" || duration == "N/A" || duration == "No tests" {
		return nil
	}

	total := 0
	for _, part := range strings.Split(duration, ",") {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}
		suffix := token[len(token)-1]
		value, err := strconv.Atoi(token[:len(token)-1])
		if err != nil {
			continue
		}
		switch suffix {
		case 'y':
			total += value * hoursPerYear
		case 'w':
			total += value * hoursPerWeek
		case 'd':
			total += value * hoursPerDay
		case 'h':
			total += value
		}
	}

	if total == 0 {
		return nil
	}
	return &total
}
