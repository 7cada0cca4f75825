// Package audit implements the optional durable message-history sink (A6):
// every dispatched request, whatever its outcome, is recorded to a local
// SQLite database via modernc.org/sqlite (the pack's pure-Go driver,
// avoiding a cgo dependency the rest of the build doesn't carry). Grounded
// on sample_spots.go/sample_telnet.go's pattern of a small struct wrapping
// a *sql.DB with one prepared insert statement per record kind.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at   TEXT NOT NULL,
	from_callsign TEXT NOT NULL,
	message_text  TEXT NOT NULL,
	msg_no        TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	segments      INTEGER NOT NULL
);`

// Recorder implements dispatch.AuditRecorder over a SQLite file. A zero
// value is not usable; construct with Open.
type Recorder struct {
	db  *sql.DB
	log *logrus.Logger
}

// Open creates (if needed) and opens the SQLite database at path, applying
// the schema. Callers should Close it on session shutdown.
func Open(path string, log *logrus.Logger) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: apply schema: %w", err)
	}
	return &Recorder{db: db, log: log}, nil
}

// Record implements dispatch.AuditRecorder. Failures are logged, never
// propagated — auditing must never disrupt the dispatch pipeline.
func (r *Recorder) Record(fromCallsign, messageText, msgNo, outcome string, segments int) {
	_, err := r.db.Exec(
		`INSERT INTO audit_log (recorded_at, from_callsign, message_text, msg_no, outcome, segments) VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), fromCallsign, messageText, msgNo, outcome, segments,
	)
	if err != nil && r.log != nil {
		r.log.WithError(err).Warn("audit: failed to record message")
	}
}

// Close releases the underlying database handle.
func (r *Recorder) Close() error {
	return r.db.Close()
}

// Entry is a single recorded row, returned by Recent for diagnostics (e.g.
// the status panel's history view).
type Entry struct {
	RecordedAt   string
	FromCallsign string
	MessageText  string
	MsgNo        string
	Outcome      string
	Segments     int
}

// Recent returns the most recent limit entries, newest first.
func (r *Recorder) Recent(limit int) ([]Entry, error) {
	rows, err := r.db.Query(
		`SELECT recorded_at, from_callsign, message_text, msg_no, outcome, segments FROM audit_log ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("audit: query recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RecordedAt, &e.FromCallsign, &e.MessageText, &e.MsgNo, &e.Outcome, &e.Segments); err != nil {
			return nil, fmt.Errorf("audit: scan row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
