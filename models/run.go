package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusPartial   RunStatus = "partial"
)

// IngestRun records one fetch→extract→normalize execution across all
// configured agencies.
type IngestRun struct {
	ID             int64      `json:"id" db:"id"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	FinishedAt     *time.Time `json:"finished_at" db:"finished_at"`
	Status         RunStatus  `json:"status" db:"status"`
	ListingsFound  int        `json:"listings_found" db:"listings_found"`
	Duplicates     int        `json:"duplicates" db:"duplicates"`
	OutOfBand      int        `json:"out_of_band" db:"out_of_band"`
	SyntheticCount int        `json:"synthetic_count" db:"synthetic_count"`
	AgenciesFailed int        `json:"agencies_failed" db:"agencies_failed"`
	ErrorsCount    int        `json:"errors_count" db:"errors_count"`
}

type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IngestLog is one log line attached to a run.
type IngestLog struct {
	ID        int64     `json:"id" db:"id"`
	RunID     *int64    `json:"run_id" db:"run_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Level     LogLevel  `json:"level" db:"level"`
	Message   string    `json:"message" db:"message"`
	AgencyID  string    `json:"agency_id" db:"agency_id"`
}

// AgencyStats is the per-agency rollup shown on the admin stats endpoint.
type AgencyStats struct {
	AgencyID       string     `json:"agency_id" db:"agency_id"`
	LastRunAt      *time.Time `json:"last_run_at" db:"last_run_at"`
	LastRunStatus  string     `json:"last_run_status" db:"last_run_status"`
	TotalScraped   int        `json:"total_scraped" db:"total_scraped"`
	TotalSynthetic int        `json:"total_synthetic" db:"total_synthetic"`
	FailureCount   int        `json:"failure_count" db:"failure_count"`
	SuccessRate    float64    `json:"success_rate" db:"success_rate"`
}
