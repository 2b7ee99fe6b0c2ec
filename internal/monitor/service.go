package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/Sabale88/IchilovTest/internal/clinical"
	"github.com/Sabale88/IchilovTest/internal/shared/config"
	"github.com/Sabale88/IchilovTest/internal/shared/errors"
	"github.com/Sabale88/IchilovTest/internal/shared/events"
	"github.com/Sabale88/IchilovTest/internal/shared/metrics"
	"github.com/Sabale88/IchilovTest/internal/shared/types"
)

// SnapshotStore persists and retrieves computed snapshots. Retrieval is
// always newest-first, excluding soft-deleted rows.
type SnapshotStore interface {
	// SaveRefresh persists one complete pass atomically: either the
	// monitoring snapshot and every detail snapshot land together, or
	// nothing does.
	SaveRefresh(ctx context.Context, result RefreshResult) (types.ID, error)

	PutMonitoringSnapshot(ctx context.Context, threshold int, generatedAt time.Time, payload MonitoringPayload) (types.ID, error)
	GetLatestMonitoringSnapshot(ctx context.Context, threshold int) (*StoredMonitoringSnapshot, error)
	PutDetailSnapshot(ctx context.Context, patientID int64, generatedAt time.Time, payload DetailPayload) (types.ID, error)
	GetLatestDetailSnapshot(ctx context.Context, patientID int64) (*StoredDetailSnapshot, error)
}

// Service runs the snapshot engine: batch passes over the clinical source and
// snapshot retrieval with regenerate-on-miss.
type Service struct {
	source clinical.Source
	store  SnapshotStore
	bus    events.Publisher
	cfg    config.MonitorConfig

	// now is injected so a pass can be pinned to a fixed instant in tests.
	now func() time.Time
}

// NewService creates a snapshot service. bus may be nil.
func NewService(source clinical.Source, store SnapshotStore, bus events.Publisher, cfg config.MonitorConfig) *Service {
	return &Service{
		source: source,
		store:  store,
		bus:    bus,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Refresh recomputes and persists the monitoring snapshot and every detail
// snapshot for the given threshold. A threshold of 0 uses the configured
// default.
func (s *Service) Refresh(ctx context.Context, hoursThreshold int) (*RefreshSummary, error) {
	return s.refresh(ctx, hoursThreshold, "manual")
}

func (s *Service) refresh(ctx context.Context, hoursThreshold int, trigger string) (summary *RefreshSummary, err error) {
	started := time.Now()
	defer func() {
		metrics.RecordSnapshotRefresh(trigger, err, time.Since(started))
	}()

	if hoursThreshold <= 0 {
		hoursThreshold = s.cfg.HoursThreshold
	}
	grace := time.Duration(s.cfg.ReleaseGraceMinutes) * time.Minute

	// One reference instant for the whole pass keeps every derived hour
	// count internally consistent.
	now := s.now()

	admissions, err := s.source.ListActiveCandidateAdmissions(ctx)
	if err != nil {
		return nil, errors.Unavailable("clinical source", err)
	}
	testRows, err := s.source.ListTestEvents(ctx)
	if err != nil {
		return nil, errors.Unavailable("clinical source", err)
	}
	metrics.RecordClinicalRows("admissions", len(admissions))
	metrics.RecordClinicalRows("test_events", len(testRows))

	agg := aggregateTestEvents(testRows)
	contexts := evaluateAdmissions(admissions, agg.lastByPatient, now, hoursThreshold, grace)
	entries := buildMonitoringEntries(contexts, hoursThreshold)

	details := make([]PatientDetail, 0, len(contexts))
	for _, c := range contexts {
		details = append(details, PatientDetail{
			PatientID: c.admission.PatientID,
			Payload:   buildDetailPayload(c, agg.byPatient[c.admission.PatientID], now),
		})
	}

	result := RefreshResult{
		HoursThreshold: hoursThreshold,
		GeneratedAt:    now,
		Monitoring: MonitoringPayload{
			GeneratedAt:    formatTimestamp(now),
			HoursThreshold: hoursThreshold,
			Patients:       entries,
		},
		Details: details,
	}

	snapshotID, err := s.store.SaveRefresh(ctx, result)
	if err != nil {
		return nil, err
	}

	alerting := 0
	for _, e := range entries {
		if e.NeedsAlert != nil && *e.NeedsAlert {
			alerting++
		}
	}
	metrics.RecordMonitoringCounts(len(entries), alerting)

	if s.bus != nil {
		event := events.NewEvent("snapshot.refreshed", "monitor", map[string]any{
			"snapshot_id":      snapshotID,
			"hours_threshold":  hoursThreshold,
			"patient_count":    len(entries),
			"alerting_count":   alerting,
			"detail_snapshots": len(details),
			"trigger":          trigger,
		})
		s.bus.Publish(ctx, event)
	}

	return &RefreshSummary{
		MonitoringSnapshotID: snapshotID,
		PatientCount:         len(entries),
		DetailSnapshots:      len(details),
	}, nil
}

// MonitoringList returns one page of the latest monitoring snapshot for the
// threshold. A missing snapshot triggers one regeneration attempt; if that
// fails the caller gets an empty page, not an error.
func (s *Service) MonitoringList(ctx context.Context, hoursThreshold int, department string, page, limit int) (*MonitoringResponse, error) {
	if hoursThreshold <= 0 {
		hoursThreshold = s.cfg.HoursThreshold
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	snap, err := s.store.GetLatestMonitoringSnapshot(ctx, hoursThreshold)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		if _, err := s.refresh(ctx, hoursThreshold, "on_demand"); err != nil {
			fmt.Printf("snapshot regeneration failed: %v\n", err)
			return emptyMonitoringResponse(page, limit), nil
		}
		snap, err = s.store.GetLatestMonitoringSnapshot(ctx, hoursThreshold)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			return emptyMonitoringResponse(page, limit), nil
		}
	}

	patients := normalizeEntries(snap.Payload.Patients, hoursThreshold)

	if department != "" {
		filtered := make([]MonitoringEntry, 0, len(patients))
		for _, p := range patients {
			if p.Department != nil && *p.Department == department {
				filtered = append(filtered, p)
			}
		}
		patients = filtered
	}

	total := len(patients)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &MonitoringResponse{
		Data:       patients[start:end],
		Pagination: Pagination{Page: page, Limit: limit, Total: total},
	}, nil
}

// PatientDetail returns the latest detail snapshot for the patient,
// regenerating once on a miss. Returns nil when no snapshot exists even
// after regeneration.
func (s *Service) PatientDetail(ctx context.Context, patientID int64) (*DetailPayload, error) {
	snap, err := s.store.GetLatestDetailSnapshot(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		if _, err := s.refresh(ctx, 0, "on_demand"); err != nil {
			fmt.Printf("snapshot regeneration failed: %v\n", err)
			return nil, nil
		}
		snap, err = s.store.GetLatestDetailSnapshot(ctx, patientID)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			return nil, nil
		}
	}
	payload := snap.Payload
	return &payload, nil
}

// RunPeriodic regenerates snapshots on the configured interval until the
// context is cancelled. A no-op when the interval is 0.
func (s *Service) RunPeriodic(ctx context.Context) {
	if s.cfg.RefreshIntervalMinutes <= 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(s.cfg.RefreshIntervalMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.refresh(ctx, s.cfg.HoursThreshold, "scheduled"); err != nil {
				fmt.Printf("scheduled snapshot refresh failed: %v\n", err)
			}
		}
	}
}

// normalizeEntries backfills fields that older persisted snapshots may lack:
// the "No tests" sentinel and the alert flag, the latter re-derived from the
// formatted duration when absent.
func normalizeEntries(entries []MonitoringEntry, hoursThreshold int) []MonitoringEntry {
	normalized := make([]MonitoringEntry, 0, len(entries))
	for _, e := range entries {
		if (e.TimeSinceLastTest == "" || e.TimeSinceLastTest == "N/A") && e.LastTestDatetime == nil {
			e.TimeSinceLastTest = "No tests"
		}
		if e.NeedsAlert == nil {
			hours := parseDurationHours(e.TimeSinceLastTest)
			alert := hours == nil || *hours >= hoursThreshold
			e.NeedsAlert = &alert
		}
		normalized = append(normalized, e)
	}
	return normalized
}

func emptyMonitoringResponse(page, limit int) *MonitoringResponse {
	return &MonitoringResponse{
		Data:       []MonitoringEntry{},
		Pagination: Pagination{Page: page, Limit: limit, Total: 0},
	}
}
