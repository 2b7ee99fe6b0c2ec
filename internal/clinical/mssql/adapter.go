package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver

	"github.com/Sabale88/IchilovTest/internal/clinical"
	"github.com/Sabale88/IchilovTest/internal/shared/config"
)

// Adapter implements clinical.Source against a hospital information system
// running on SQL Server. Table names are configurable per installation.
type Adapter struct {
	db  *sql.DB
	cfg config.ClinicalConfig
}

// New opens a connection pool to the HIS database
func New(cfg config.ClinicalConfig) (*Adapter, error) {
	connStr := fmt.Sprintf("server=%s;port=%d;database=%s;user id=%s;password=%s",
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.User,
		cfg.Password,
	)

	if cfg.Encrypt {
		connStr += ";encrypt=true;TrustServerCertificate=true"
	}

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open HIS database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return &Adapter{db: db, cfg: cfg}, nil
}

// Close closes the database connections
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Health checks database connectivity
func (a *Adapter) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// ListActiveCandidateAdmissions retrieves admissions joined with patient demographics
func (a *Adapter) ListActiveCandidateAdmissions(ctx context.Context) ([]clinical.AdmissionRecord, error) {
	query := fmt.Sprintf(`
		SELECT
			p.PatientID,
			h.CaseNumber,
			p.FirstName,
			p.LastName,
			p.DateOfBirth,
			p.PrimaryPhysician,
			p.InsuranceProvider,
			p.BloodType,
			p.Allergies,
			h.Department,
			h.RoomNumber,
			h.AdmissionDate,
			h.AdmissionTime,
			h.ReleaseDate,
			h.ReleaseTime
		FROM %s h
		INNER JOIN %s p ON h.PatientID = p.PatientID
		ORDER BY h.CaseNumber
	`, a.cfg.AdmissionTable, a.cfg.PatientTable)

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query admissions: %w", err)
	}
	defer rows.Close()

	var admissions []clinical.AdmissionRecord
	for rows.Next() {
		var rec clinical.AdmissionRecord
		var physician, insurance, bloodType, allergies sql.NullString
		var department, room sql.NullString

		err := rows.Scan(
			&rec.PatientID,
			&rec.CaseNumber,
			&rec.FirstName,
			&rec.LastName,
			&rec.DateOfBirth,
			&physician,
			&insurance,
			&bloodType,
			&allergies,
			&department,
			&room,
			&rec.AdmissionDate,
			&rec.AdmissionTime,
			&rec.ReleaseDate,
			&rec.ReleaseTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admission: %w", err)
		}

		// Map nullable fields
		if physician.Valid {
			rec.PrimaryPhysician = &physician.String
		}
		if insurance.Valid {
			rec.InsuranceProvider = &insurance.String
		}
		if bloodType.Valid {
			rec.BloodType = &bloodType.String
		}
		if allergies.Valid {
			rec.Allergies = &allergies.String
		}
		if department.Valid {
			rec.Department = &department.String
		}
		if room.Valid {
			rec.RoomNumber = &room.String
		}

		admissions = append(admissions, rec)
	}

	return admissions, rows.Err()
}

// ListTestEvents retrieves ordered tests left-joined to their results
func (a *Adapter) ListTestEvents(ctx context.Context) ([]clinical.TestEventRow, error) {
	query := fmt.Sprintf(`
		SELECT
			t.PatientID,
			t.TestID,
			t.TestName,
			t.OrderDate,
			t.OrderTime,
			t.OrderingPhysician,
			r.ResultID,
			CAST(r.ResultValue AS VARCHAR(64)),
			r.ResultUnit,
			r.ReferenceRange,
			r.ResultStatus,
			r.PerformedDate,
			r.PerformedTime,
			r.ReviewingPhysician
		FROM %s t
		LEFT JOIN %s r ON r.TestID = t.TestID
		ORDER BY t.TestID
	`, a.cfg.LabTestTable, a.cfg.LabResultTable)

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query test events: %w", err)
	}
	defer rows.Close()

	var events []clinical.TestEventRow
	for rows.Next() {
		var e clinical.TestEventRow
		var orderingPhysician, reviewingPhysician sql.NullString
		var resultID sql.NullInt64
		var resultValue, unit, refRange, status sql.NullString

		err := rows.Scan(
			&e.PatientID,
			&e.TestID,
			&e.TestName,
			&e.OrderDate,
			&e.OrderTime,
			&orderingPhysician,
			&resultID,
			&resultValue,
			&unit,
			&refRange,
			&status,
			&e.PerformedDate,
			&e.PerformedTime,
			&reviewingPhysician,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test event: %w", err)
		}

		// Map nullable fields
		if orderingPhysician.Valid {
			e.OrderingPhysician = &orderingPhysician.String
		}
		if resultID.Valid {
			e.ResultID = &resultID.Int64
		}
		if resultValue.Valid {
			e.ResultValue = &resultValue.String
		}
		if unit.Valid {
			e.ResultUnit = &unit.String
		}
		if refRange.Valid {
			e.ReferenceRange = &refRange.String
		}
		if status.Valid {
			e.ResultStatus = &status.String
		}
		if reviewingPhysician.Valid {
			e.ReviewingPhysician = &reviewingPhysician.String
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

// Verify interface implementation
var _ clinical.Source = (*Adapter)(nil)
