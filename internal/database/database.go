package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run represents one invocation of the detector.
type Run struct {
	ID        int64     `json:"id"`
	Weights   string    `json:"weights"`
	Source    string    `json:"source"`
	StartedAt time.Time `json:"started_at"`
}

// Detection represents a logged detection within a run.
type Detection struct {
	ID         int64     `json:"id"`
	RunID      int64     `json:"run_id"`
	Frame      int       `json:"frame"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Timestamp  time.Time `json:"timestamp"`
}

// DetectionFilter contains filtering options for querying detections.
type DetectionFilter struct {
	RunID         int64
	Label         string
	MinConfidence float64
	Limit         int
	Offset        int
}

// Database handles SQLite operations for the detection log.
type Database struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates and initializes a new SQLite database.
func New(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	database := &Database{db: db}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return database, nil
}

// migrate creates the necessary tables if they don't exist.
func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		weights TEXT NOT NULL,
		source TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		frame INTEGER NOT NULL,
		label TEXT NOT NULL,
		confidence REAL NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_detections_run_id ON detections(run_id);
	CREATE INDEX IF NOT EXISTS idx_detections_label ON detections(label);
	CREATE INDEX IF NOT EXISTS idx_detections_timestamp ON detections(timestamp);
	`

	_, err := d.db.Exec(schema)
	return err
}

// InsertRun adds a new run record and returns its id.
func (d *Database) InsertRun(run *Run) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	result, err := d.db.Exec(`
		INSERT INTO runs (weights, source, started_at)
		VALUES (?, ?, ?)
	`, run.Weights, run.Source, run.StartedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return runID, nil
}

// InsertDetections adds a batch of detections in a single transaction.
func (d *Database) InsertDetections(detections []Detection) error {
	if len(detections) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO detections (run_id, frame, label, confidence, x, y, width, height, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare detection statement: %w", err)
	}
	defer stmt.Close()

	for _, det := range detections {
		_, err := stmt.Exec(det.RunID, det.Frame, det.Label, det.Confidence,
			det.X, det.Y, det.Width, det.Height, det.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to insert detection: %w", err)
		}
	}

	return tx.Commit()
}

// GetDetections retrieves detections based on filter criteria.
func (d *Database) GetDetections(filter *DetectionFilter) ([]Detection, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	query := `
		SELECT id, run_id, frame, label, confidence, x, y, width, height, timestamp
		FROM detections
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.RunID > 0 {
		query += " AND run_id = ?"
		args = append(args, filter.RunID)
	}

	if filter.Label != "" {
		query += " AND label = ?"
		args = append(args, filter.Label)
	}

	if filter.MinConfidence > 0 {
		query += " AND confidence >= ?"
		args = append(args, filter.MinConfidence)
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var detections []Detection
	for rows.Next() {
		var det Detection
		err := rows.Scan(&det.ID, &det.RunID, &det.Frame, &det.Label, &det.Confidence,
			&det.X, &det.Y, &det.Width, &det.Height, &det.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, det)
	}

	return detections, nil
}

// GetLabels returns a list of all distinct detected labels.
func (d *Database) GetLabels() ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(`SELECT DISTINCT label FROM detections ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}

	return labels, nil
}

// GetRuns returns runs in reverse chronological order.
func (d *Database) GetRuns(limit int) ([]Run, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	query := `SELECT id, weights, source, started_at FROM runs ORDER BY started_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Weights, &run.Source, &run.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// GetStats returns statistics about logged detections.
func (d *Database) GetStats() (map[string]interface{}, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := make(map[string]interface{})

	var totalRuns int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&totalRuns); err != nil {
		return nil, err
	}
	stats["total_runs"] = totalRuns

	var totalDetections int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM detections`).Scan(&totalDetections); err != nil {
		return nil, err
	}
	stats["total_detections"] = totalDetections

	rows, err := d.db.Query(`
		SELECT label, COUNT(*) as cnt
		FROM detections
		GROUP BY label
		ORDER BY cnt DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labelCounts := make(map[string]int)
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, err
		}
		labelCounts[label] = count
	}
	stats["label_counts"] = labelCounts

	return stats, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}
