// Package runlog persists per-run statistics so evolutionary search loops
// can query fitness data across many interpreter runs.
package runlog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Record is one interpreter run.
type Record struct {
	ID                 string
	Source             string
	Seed               int64
	Failed             bool
	Ops                uint64
	Invops             uint64
	Inputs             uint64
	Outputs            uint64
	InputsBeforeOutput uint64
	Duration           time.Duration
	Created            time.Time
}

// Store is a run log backed by database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// rebind rewrites ? placeholders to the $N form postgres expects. The
// sqlite and mysql drivers take ? as written.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var sb strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
		} else {
			sb.WriteByte(query[i])
		}
	}
	return sb.String()
}

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	source TEXT,
	seed BIGINT,
	failed INTEGER,
	ops BIGINT,
	invops BIGINT,
	inputs BIGINT,
	outputs BIGINT,
	inputs_bf_output BIGINT,
	duration_ms BIGINT,
	created_at TIMESTAMP
)`

// Open connects a run log. dbType is sqlite, postgres or mysql; the DSN is
// driver-specific (a file path for sqlite).
func Open(dbType, dsn string) (*Store, error) {
	var driverName string
	switch dbType {
	case "sqlite", "sqlite3":
		driverName = "sqlite"
	case "postgres", "postgresql":
		driverName = "postgres"
	case "mysql":
		driverName = "mysql"
	default:
		return nil, errors.Errorf("unsupported database type: %s", dbType)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s run log", dbType)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create runs table")
	}

	return &Store{db: db, driver: driverName}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append writes one record, assigning it a fresh id and timestamp when the
// caller left them empty.
func (s *Store) Append(rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Created.IsZero() {
		rec.Created = time.Now().UTC()
	}

	failed := 0
	if rec.Failed {
		failed = 1
	}

	_, err := s.db.Exec(
		s.rebind(`INSERT INTO runs (id, source, seed, failed, ops, invops, inputs, outputs, inputs_bf_output, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.Source, rec.Seed, failed,
		int64(rec.Ops), int64(rec.Invops), int64(rec.Inputs), int64(rec.Outputs),
		int64(rec.InputsBeforeOutput), rec.Duration.Milliseconds(), rec.Created,
	)
	return errors.Wrap(err, "append run record")
}

// Recent returns the newest records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	rows, err := s.db.Query(
		s.rebind(`SELECT id, source, seed, failed, ops, invops, inputs, outputs, inputs_bf_output, duration_ms, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, errors.Wrap(err, "query recent runs")
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var failed int
		var ops, invops, inputs, outputs, bfOutput, durMs int64
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Seed, &failed,
			&ops, &invops, &inputs, &outputs, &bfOutput, &durMs, &rec.Created); err != nil {
			return nil, errors.Wrap(err, "scan run record")
		}
		rec.Failed = failed != 0
		rec.Ops = uint64(ops)
		rec.Invops = uint64(invops)
		rec.Inputs = uint64(inputs)
		rec.Outputs = uint64(outputs)
		rec.InputsBeforeOutput = uint64(bfOutput)
		rec.Duration = time.Duration(durMs) * time.Millisecond
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// InvalidRatio reports the share of invalid operations across all logged
// runs, a cheap population-level fitness signal.
func (s *Store) InvalidRatio() (float64, error) {
	var ops, invops sql.NullInt64
	err := s.db.QueryRow(`SELECT SUM(ops), SUM(invops) FROM runs`).Scan(&ops, &invops)
	if err != nil {
		return 0, errors.Wrap(err, "sum run counters")
	}
	if !ops.Valid || ops.Int64 == 0 {
		return 0, nil
	}
	return float64(invops.Int64) / float64(ops.Int64), nil
}
