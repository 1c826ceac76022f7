package models

import (
	"encoding/json"
	"time"
)

type CommandType string

const (
	CmdIngestNow      CommandType = "ingest_now"
	CmdIngestAgency   CommandType = "ingest_agency"
	CmdPause          CommandType = "pause"
	CmdResume         CommandType = "resume"
	CmdFlushCache     CommandType = "flush_cache"
	CmdRunMedia       CommandType = "run_media"
	CmdRunHealthcheck CommandType = "run_healthcheck"
)

type Command struct {
	ID          int64           `json:"id" db:"id"`
	Command     CommandType     `json:"command" db:"command"`
	Params      json.RawMessage `json:"params" db:"params"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at" db:"processed_at"`
}

type CommandParams struct {
	Agency string `json:"agency,omitempty"`
}
