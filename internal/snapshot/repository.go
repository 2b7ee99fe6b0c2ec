package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sabale88/IchilovTest/internal/monitor"
	"github.com/Sabale88/IchilovTest/internal/shared/errors"
	"github.com/Sabale88/IchilovTest/internal/shared/metrics"
	"github.com/Sabale88/IchilovTest/internal/shared/types"
)

// Repository persists computed snapshots as JSONB rows
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new snapshot repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRefresh writes the monitoring snapshot and every detail snapshot in one
// transaction. A failure at any point rolls the whole pass back, leaving the
// previously stored snapshots authoritative.
func (r *Repository) SaveRefresh(ctx context.Context, result monitor.RefreshResult) (types.ID, error) {
	started := time.Now()
	defer func() { metrics.RecordDBQuery("save_refresh", time.Since(started)) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to begin snapshot transaction")
	}
	defer tx.Rollback(ctx)

	monitoringJSON, err := json.Marshal(result.Monitoring)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode monitoring payload")
	}

	snapshotID := types.NewID()
	_, err = tx.Exec(ctx, `
		INSERT INTO patient_monitoring_snapshots (snapshot_id, response_created_at, hours_threshold, payload)
		VALUES ($1, $2, $3, $4)`,
		snapshotID, result.GeneratedAt, result.HoursThreshold, monitoringJSON,
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to insert monitoring snapshot")
	}

	for _, detail := range result.Details {
		detailJSON, err := json.Marshal(detail.Payload)
		if err != nil {
			return "", errors.Wrap(err, "failed to encode detail payload")
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO patient_detail_snapshots (snapshot_id, patient_id, response_created_at, payload)
			VALUES ($1, $2, $3, $4)`,
			types.NewID(), detail.PatientID, result.GeneratedAt, detailJSON,
		)
		if err != nil {
			return "", errors.Wrap(err, "failed to insert detail snapshot")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", errors.Wrap(err, "failed to commit snapshot transaction")
	}

	return snapshotID, nil
}

// PutMonitoringSnapshot stores one monitoring snapshot outside a refresh pass
func (r *Repository) PutMonitoringSnapshot(ctx context.Context, threshold int, generatedAt time.Time, payload monitor.MonitoringPayload) (types.ID, error) {
	started := time.Now()
	defer func() { metrics.RecordDBQuery("put_monitoring_snapshot", time.Since(started)) }()

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode monitoring payload")
	}

	id := types.NewID()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO patient_monitoring_snapshots (snapshot_id, response_created_at, hours_threshold, payload)
		VALUES ($1, $2, $3, $4)`,
		id, generatedAt, threshold, payloadJSON,
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to insert monitoring snapshot")
	}
	return id, nil
}

// GetLatestMonitoringSnapshot returns the most recent non-deleted monitoring
// snapshot for the threshold, or nil when none exists.
func (r *Repository) GetLatestMonitoringSnapshot(ctx context.Context, threshold int) (*monitor.StoredMonitoringSnapshot, error) {
	started := time.Now()
	defer func() { metrics.RecordDBQuery("get_monitoring_snapshot", time.Since(started)) }()

	var (
		snap        monitor.StoredMonitoringSnapshot
		payloadJSON []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT snapshot_id, response_created_at, payload
		FROM patient_monitoring_snapshots
		WHERE hours_threshold = $1 AND deleted_at IS NULL
		ORDER BY response_created_at DESC
		LIMIT 1`,
		threshold,
	).Scan(&snap.ID, &snap.CreatedAt, &payloadJSON)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query monitoring snapshot")
	}

	if err := json.Unmarshal(payloadJSON, &snap.Payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode monitoring payload")
	}
	return &snap, nil
}

// PutDetailSnapshot stores one patient detail snapshot outside a refresh pass
func (r *Repository) PutDetailSnapshot(ctx context.Context, patientID int64, generatedAt time.Time, payload monitor.DetailPayload) (types.ID, error) {
	started := time.Now()
	defer func() { metrics.RecordDBQuery("put_detail_snapshot", time.Since(started)) }()

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode detail payload")
	}

	id := types.NewID()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO patient_detail_snapshots (snapshot_id, patient_id, response_created_at, payload)
		VALUES ($1, $2, $3, $4)`,
		id, patientID, generatedAt, payloadJSON,
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to insert detail snapshot")
	}
	return id, nil
}

// GetLatestDetailSnapshot returns the most recent non-deleted detail snapshot
// for the patient, or nil when none exists.
func (r *Repository) GetLatestDetailSnapshot(ctx context.Context, patientID int64) (*monitor.StoredDetailSnapshot, error) {
	started := time.Now()
	defer func() { metrics.RecordDBQuery("get_detail_snapshot", time.Since(started)) }()

	var (
		snap        monitor.StoredDetailSnapshot
		payloadJSON []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT snapshot_id, patient_id, response_created_at, payload
		FROM patient_detail_snapshots
		WHERE patient_id = $1 AND deleted_at IS NULL
		ORDER BY response_created_at DESC
		LIMIT 1`,
		patientID,
	).Scan(&snap.ID, &snap.PatientID, &snap.CreatedAt, &payloadJSON)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query detail snapshot")
	}

	if err := json.Unmarshal(payloadJSON, &snap.Payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode detail payload")
	}
	return &snap, nil
}

// Verify interface implementation
var _ monitor.SnapshotStore = (*Repository)(nil)
