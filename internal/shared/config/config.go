package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Clinical  ClinicalConfig
	Monitor   MonitorConfig
	KurrentDB KurrentDBConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

// DatabaseConfig holds the Postgres connection settings for the snapshot store.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// ClinicalConfig selects and configures the clinical data source.
type ClinicalConfig struct {
	// Driver: "postgres" reads admissions and lab rows from the snapshot
	// database; "mssql" reads them from a hospital information system.
	Driver string

	// MSSQL coordinates (used when Driver == "mssql")
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Encrypt  bool

	// HIS table names, overridable per installation
	PatientTable   string
	AdmissionTable string
	LabTestTable   string
	LabResultTable string
}

// MonitorConfig holds the snapshot engine defaults.
type MonitorConfig struct {
	// HoursThreshold is the minimum elapsed hours (since admission or since
	// the last test) that flags a patient for attention.
	HoursThreshold int
	// ReleaseGraceMinutes keeps an admission active for this long after release.
	ReleaseGraceMinutes int
	// RefreshIntervalMinutes drives the periodic regeneration loop; 0 disables it.
	RefreshIntervalMinutes int
}

// KurrentDBConfig holds configuration for KurrentDB (EventStoreDB).
type KurrentDBConfig struct {
	Host     string
	Port     int
	Insecure bool
	Username string
	Password string
	Enabled  bool
}

type AuthConfig struct {
	JWTSecret string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "monitor"),
			Password: getEnv("DB_PASSWORD", "monitor"),
			Database: getEnv("DB_NAME", "monitor"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Clinical: ClinicalConfig{
			Driver:         getEnv("CLINICAL_DRIVER", "postgres"),
			Host:           getEnv("CLINICAL_MSSQL_HOST", "localhost"),
			Port:           getEnvInt("CLINICAL_MSSQL_PORT", 1433),
			User:           getEnv("CLINICAL_MSSQL_USER", "sa"),
			Password:       getEnv("CLINICAL_MSSQL_PASSWORD", ""),
			Database:       getEnv("CLINICAL_MSSQL_DATABASE", "his"),
			Encrypt:        getEnvBool("CLINICAL_MSSQL_ENCRYPT", false),
			PatientTable:   getEnv("CLINICAL_PATIENT_TABLE", "dbo.Patients"),
			AdmissionTable: getEnv("CLINICAL_ADMISSION_TABLE", "dbo.Admissions"),
			LabTestTable:   getEnv("CLINICAL_LAB_TEST_TABLE", "dbo.LabTests"),
			LabResultTable: getEnv("CLINICAL_LAB_RESULT_TABLE", "dbo.LabResults"),
		},
		Monitor: MonitorConfig{
			HoursThreshold:         getEnvInt("MONITOR_HOURS_THRESHOLD", 48),
			ReleaseGraceMinutes:    getEnvInt("MONITOR_RELEASE_GRACE_MINUTES", 120),
			RefreshIntervalMinutes: getEnvInt("MONITOR_REFRESH_INTERVAL_MINUTES", 0),
		},
		KurrentDB: KurrentDBConfig{
			Host:     getEnv("KURRENTDB_HOST", "localhost"),
			Port:     getEnvInt("KURRENTDB_PORT", 2113),
			Insecure: getEnvBool("KURRENTDB_INSECURE", true),
			Username: getEnv("KURRENTDB_USERNAME", ""),
			Password: getEnv("KURRENTDB_PASSWORD", ""),
			Enabled:  getEnvBool("KURRENTDB_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
