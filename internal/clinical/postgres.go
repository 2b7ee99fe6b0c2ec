package clinical

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sabale88/IchilovTest/internal/shared/errors"
	"github.com/Sabale88/IchilovTest/internal/shared/metrics"
)

// PostgresSource reads clinical rows from the Postgres schema created by the
// migrations. Date and time columns are fetched as text so heterogeneous
// encodings survive the scan unchanged.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a Postgres-backed clinical source
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// ListActiveCandidateAdmissions returns admissions joined with patient demographics
func (s *PostgresSource) ListActiveCandidateAdmissions(ctx context.Context) ([]AdmissionRecord, error) {
	query := `
		SELECT
			p.patient_id,
			a.hospitalization_case_number,
			p.first_name,
			p.last_name,
			to_char(p.date_of_birth, 'YYYY-MM-DD'),
			p.primary_physician,
			p.insurance_provider,
			p.blood_type,
			p.allergies,
			a.department,
			a.room_number,
			to_char(a.admission_date, 'YYYY-MM-DD'),
			to_char(a.admission_time, 'HH24:MI:SS'),
			to_char(a.release_date, 'YYYY-MM-DD'),
			to_char(a.release_time, 'HH24:MI:SS')
		FROM admissions a
		JOIN patients p ON p.patient_id = a.patient_id
		WHERE a.deleted_at IS NULL AND p.deleted_at IS NULL
		ORDER BY a.hospitalization_case_number`

	start := time.Now()
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query admissions")
	}
	defer rows.Close()

	var admissions []AdmissionRecord
	for rows.Next() {
		var a AdmissionRecord
		err := rows.Scan(
			&a.PatientID, &a.CaseNumber,
			&a.FirstName, &a.LastName, &a.DateOfBirth,
			&a.PrimaryPhysician, &a.InsuranceProvider, &a.BloodType, &a.Allergies,
			&a.Department, &a.RoomNumber,
			&a.AdmissionDate, &a.AdmissionTime, &a.ReleaseDate, &a.ReleaseTime,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan admission")
		}
		admissions = append(admissions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read admissions")
	}

	metrics.RecordDBQuery("list_admissions", time.Since(start))
	return admissions, nil
}

// ListTestEvents returns ordered tests left-joined to their results
func (s *PostgresSource) ListTestEvents(ctx context.Context) ([]TestEventRow, error) {
	query := `
		SELECT
			lt.patient_id,
			lt.test_id,
			lt.test_name,
			to_char(lt.order_date, 'YYYY-MM-DD'),
			to_char(lt.order_time, 'HH24:MI:SS'),
			lt.ordering_physician,
			lr.result_id,
			lr.result_value::text,
			lr.result_unit,
			lr.reference_range,
			lr.result_status,
			to_char(lr.performed_date, 'YYYY-MM-DD'),
			to_char(lr.performed_time, 'HH24:MI:SS'),
			lr.reviewing_physician
		FROM lab_tests lt
		LEFT JOIN lab_results lr ON lr.test_id = lt.test_id AND lr.deleted_at IS NULL
		WHERE lt.deleted_at IS NULL
		ORDER BY lt.test_id`

	start := time.Now()
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query test events")
	}
	defer rows.Close()

	var events []TestEventRow
	for rows.Next() {
		var e TestEventRow
		err := rows.Scan(
			&e.PatientID, &e.TestID, &e.TestName,
			&e.OrderDate, &e.OrderTime, &e.OrderingPhysician,
			&e.ResultID, &e.ResultValue, &e.ResultUnit, &e.ReferenceRange, &e.ResultStatus,
			&e.PerformedDate, &e.PerformedTime, &e.ReviewingPhysician,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan test event")
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read test events")
	}

	metrics.RecordDBQuery("list_test_events", time.Since(start))
	return events, nil
}

// Health checks source connectivity
func (s *PostgresSource) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Verify interface implementation
var _ Source = (*PostgresSource)(nil)
