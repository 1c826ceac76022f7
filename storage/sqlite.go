package storage

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"grorent/models"
)

// SQLiteStore holds operational data: runs, logs, snapshots, commands.
// Listing persistence of record lives in Postgres; this file is the
// daemon's own bookkeeping.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ingest_runs (
		id INTEGER PRIMARY KEY,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		listings_found INTEGER DEFAULT 0,
		duplicates INTEGER DEFAULT 0,
		out_of_band INTEGER DEFAULT 0,
		synthetic_count INTEGER DEFAULT 0,
		agencies_failed INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS ingest_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		agency_id TEXT
	);

	CREATE TABLE IF NOT EXISTS listing_snapshots (
		id INTEGER PRIMARY KEY,
		run_id INTEGER NOT NULL,
		listing_id TEXT NOT NULL,
		fingerprint TEXT,
		agency TEXT,
		title TEXT,
		price INTEGER,
		source_url TEXT,
		provenance TEXT,
		data JSON,
		scraped_at DATETIME,
		FOREIGN KEY (run_id) REFERENCES ingest_runs(id)
	);

	CREATE TABLE IF NOT EXISTS agency_stats (
		agency_id TEXT PRIMARY KEY,
		last_run_at DATETIME,
		last_run_status TEXT,
		total_scraped INTEGER DEFAULT 0,
		total_synthetic INTEGER DEFAULT 0,
		failure_count INTEGER DEFAULT 0,
		run_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS commands (
		id INTEGER PRIMARY KEY,
		command TEXT,
		params JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		processed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_logs_run ON ingest_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON ingest_runs(status, started_at);
	CREATE INDEX IF NOT EXISTS idx_snapshots_run ON listing_snapshots(run_id);
	CREATE INDEX IF NOT EXISTS idx_snapshots_fingerprint ON listing_snapshots(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_commands_pending ON commands(processed_at) WHERE processed_at IS NULL;
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.IngestRun) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO ingest_runs (started_at, status) VALUES (?, ?)`,
		run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.IngestRun) error {
	_, err := s.db.Exec(`
		UPDATE ingest_runs
		SET finished_at = ?, status = ?, listings_found = ?, duplicates = ?,
			out_of_band = ?, synthetic_count = ?, agencies_failed = ?, errors_count = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.ListingsFound, run.Duplicates,
		run.OutOfBand, run.SyntheticCount, run.AgenciesFailed, run.ErrorsCount,
		run.ID)
	return err
}

func (s *SQLiteStore) GetRecentRuns(limit int) ([]models.IngestRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, status, listings_found, duplicates,
			out_of_band, synthetic_count, agencies_failed, errors_count
		FROM ingest_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.IngestRun
	for rows.Next() {
		var r models.IngestRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status,
			&r.ListingsFound, &r.Duplicates, &r.OutOfBand, &r.SyntheticCount,
			&r.AgenciesFailed, &r.ErrorsCount); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, agencyID string) error {
	_, err := s.db.Exec(`
		INSERT INTO ingest_logs (run_id, timestamp, level, message, agency_id)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, agencyID)
	return err
}

// SaveSnapshots archives the normalized result set of a run.
func (s *SQLiteStore) SaveSnapshots(runID int64, listings []models.Listing) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO listing_snapshots
			(run_id, listing_id, fingerprint, agency, title, price, source_url, provenance, data, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range listings {
		data, err := json.Marshal(l)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(runID, l.ID, l.Fingerprint, l.Agency, l.Title,
			l.Price, l.SourceURL, l.Provenance, string(data), l.ScrapedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) UpdateAgencyStats(agencyID string, ok bool, scraped, synthetic int) error {
	status := "completed"
	failureInc := 0
	if !ok {
		status = "failed"
		failureInc = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO agency_stats (agency_id, last_run_at, last_run_status, total_scraped, total_synthetic, failure_count, run_count)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(agency_id) DO UPDATE SET
			last_run_at = excluded.last_run_at,
			last_run_status = excluded.last_run_status,
			total_scraped = total_scraped + excluded.total_scraped,
			total_synthetic = total_synthetic + excluded.total_synthetic,
			failure_count = failure_count + excluded.failure_count,
			run_count = run_count + 1`,
		agencyID, time.Now(), status, scraped, synthetic, failureInc)
	return err
}

func (s *SQLiteStore) GetAgencyStats() ([]models.AgencyStats, error) {
	rows, err := s.db.Query(`
		SELECT agency_id, last_run_at, last_run_status, total_scraped,
			total_synthetic, failure_count, run_count
		FROM agency_stats ORDER BY agency_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.AgencyStats
	for rows.Next() {
		var st models.AgencyStats
		var runCount int
		if err := rows.Scan(&st.AgencyID, &st.LastRunAt, &st.LastRunStatus,
			&st.TotalScraped, &st.TotalSynthetic, &st.FailureCount, &runCount); err != nil {
			return nil, err
		}
		if runCount > 0 {
			st.SuccessRate = float64(runCount-st.FailureCount) / float64(runCount)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *SQLiteStore) EnqueueCommand(cmd models.CommandType, params *models.CommandParams) error {
	var raw []byte
	if params != nil {
		var err error
		raw, err = json.Marshal(params)
		if err != nil {
			return err
		}
	}
	_, err := s.db.Exec(`INSERT INTO commands (command, params) VALUES (?, ?)`, cmd, raw)
	return err
}

func (s *SQLiteStore) GetPendingCommands() ([]models.Command, error) {
	rows, err := s.db.Query(`
		SELECT id, command, COALESCE(params, '{}'), created_at
		FROM commands WHERE processed_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cmds []models.Command
	for rows.Next() {
		var c models.Command
		var params string
		if err := rows.Scan(&c.ID, &c.Command, &params, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Params = json.RawMessage(params)
		cmds = append(cmds, c)
	}
	return cmds, rows.Err()
}

func (s *SQLiteStore) MarkCommandProcessed(id int64) error {
	_, err := s.db.Exec(`UPDATE commands SET processed_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

func (s *SQLiteStore) ParseCommandParams(cmd *models.Command) (*models.CommandParams, error) {
	params := &models.CommandParams{}
	if len(cmd.Params) == 0 || strings.TrimSpace(string(cmd.Params)) == "" {
		return params, nil
	}
	if err := json.Unmarshal(cmd.Params, params); err != nil {
		return nil, err
	}
	return params, nil
}
