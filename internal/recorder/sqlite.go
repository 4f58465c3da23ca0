package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder journals run outcomes to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so ad-hoc reads don't block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logrus.WithField("component", "recorder").WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			status         TEXT NOT NULL,
			block_number   INTEGER,
			total_burned   TEXT,
			burn_count     INTEGER,
			changed_fields TEXT,
			error          TEXT,
			duration_ms    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS regressions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			counter      TEXT NOT NULL,
			previous     TEXT,
			current      TEXT,
			block_number INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_regressions_ts ON regressions(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO runs
		(timestamp, status, block_number, total_burned, burn_count, changed_fields, error, duration_ms)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Status, rec.BlockNumber, rec.TotalBurned,
		rec.BurnCount, rec.ChangedFields, rec.Error, rec.DurationMS,
	)
	return err
}

func (r *SQLiteRecorder) RecordRegression(rec *RegressionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO regressions
		(timestamp, counter, previous, current, block_number)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), rec.Counter, rec.Previous, rec.Current, rec.BlockNumber,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
