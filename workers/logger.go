package workers

import "grorent/models"

// LogFunc forwards worker log lines to the ingest_logs table.
type LogFunc func(level models.LogLevel, message, agencyID string)

// NoOpLogger does nothing (default)
var NoOpLogger LogFunc = func(level models.LogLevel, message, agencyID string) {}
