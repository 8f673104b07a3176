package storage

import (
	"database/sql"
	"time"

	"github.com/aideng18/PyWard/internal/pysrc"
)

// ListRuns returns a lightweight list of runs with counts.
func (db *DB) ListRuns(limit, offset int) ([]RunRow, error) {
	const q = `
		SELECT r.id, r.started_at, r.source, r.version, r.status,
		       (SELECT COUNT(1) FROM findings f WHERE f.run_id = r.id) AS findings
		  FROM runs r
		 ORDER BY r.started_at DESC, r.id DESC
		 LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var rr RunRow
		var startedAtStr string
		if err := rows.Scan(&rr.ID, &startedAtStr, &rr.Source, &rr.Version, &rr.Status, &rr.Findings); err != nil {
			return nil, err
		}
		rr.StartedAt = parseTS(startedAtStr)
		out = append(out, rr)
	}
	return out, rows.Err()
}

// ListFindings returns findings for a run at or above a minimum
// severity, preserving the analysis ordering.
func (db *DB) ListFindings(runID, minSeverity string) ([]pysrc.Finding, error) {
	const q = `
		SELECT rule_id, category, severity, line, col, message, suggestion, cve
		  FROM findings
		 WHERE run_id = ?
		   AND (CASE severity WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END)
		       >= (CASE ? WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END)
		 ORDER BY seq`
	rows, err := db.conn.Query(q, runID, minSeverity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pysrc.Finding
	for rows.Next() {
		var f pysrc.Finding
		var cat string
		if err := rows.Scan(&f.RuleID, &cat, &f.Severity, &f.Line, &f.Col, &f.Message, &f.Suggestion, &f.CVE); err != nil {
			return nil, err
		}
		f.Category = pysrc.Category(cat)
		out = append(out, f)
	}
	return out, rows.Err()
}

// HasRun reports whether a run with the given id exists.
func (db *DB) HasRun(id string) (bool, error) {
	const q = `SELECT 1 FROM runs WHERE id = ? LIMIT 1`
	var one int
	err := db.conn.QueryRow(q, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// parseTS accepts either RFC3339Nano or RFC3339; a zero time means the
// stored value was unparsable.
func parseTS(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
