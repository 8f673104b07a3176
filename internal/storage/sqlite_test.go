package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aideng18/PyWard/internal/pysrc"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.CreateSchema())
	return db
}

func testReport(id string) *pysrc.Report {
	return &pysrc.Report{
		ID:        id,
		StartedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Source:    "app.py",
		Version:   pysrc.Version,
		Status:    pysrc.StatusOK,
		RulesRun:  14,
		Findings: []pysrc.Finding{
			{RuleID: "UNUSED-IMPORT", Category: pysrc.CategoryOptimization, Severity: "LOW",
				Line: 1, Message: "Imported name 'os' is never used."},
			{RuleID: "WEAK-HASH", Category: pysrc.CategorySecurity, Severity: "MEDIUM",
				Line: 4, Message: "Use of weak hash algorithm 'md5'."},
			{RuleID: "DANGEROUS-CALL", Category: pysrc.CategorySecurity, Severity: "HIGH",
				Line: 9, Message: "Use of 'eval' detected.", CVE: "CVE-2025-3248"},
		},
	}
}

func TestSaveAndLoadReport(t *testing.T) {
	db := openTestDB(t)
	rep := testReport("run-1")
	require.NoError(t, db.SaveReport(rep))

	got, err := db.LoadReport("run-1")
	require.NoError(t, err)
	assert.Equal(t, rep.ID, got.ID)
	assert.Equal(t, rep.Status, got.Status)
	assert.Equal(t, rep.RulesRun, got.RulesRun)
	require.Len(t, got.Findings, 3)
	assert.Equal(t, rep.Findings, got.Findings)
	assert.True(t, rep.StartedAt.Equal(got.StartedAt))
}

func TestSaveReportUpsert(t *testing.T) {
	db := openTestDB(t)
	rep := testReport("run-1")
	require.NoError(t, db.SaveReport(rep))

	rep.Findings = rep.Findings[:1]
	rep.Status = pysrc.StatusOK
	require.NoError(t, db.SaveReport(rep))

	fs, err := db.ListFindings("run-1", "")
	require.NoError(t, err)
	assert.Len(t, fs, 1)
}

func TestLoadReportMissing(t *testing.T) {
	db := openTestDB(t)
	_, err := db.LoadReport("absent")
	assert.Error(t, err)
}

func TestListRuns(t *testing.T) {
	db := openTestDB(t)
	a := testReport("run-a")
	b := testReport("run-b")
	b.StartedAt = a.StartedAt.Add(time.Hour)
	require.NoError(t, db.SaveReport(a))
	require.NoError(t, db.SaveReport(b))

	rows, err := db.ListRuns(10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// newest first
	assert.Equal(t, "run-b", rows[0].ID)
	assert.Equal(t, "app.py", rows[0].Source)
	assert.Equal(t, pysrc.StatusOK, rows[0].Status)
	assert.Equal(t, 3, rows[0].Findings)

	rows, err = db.ListRuns(1, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "run-a", rows[0].ID)
}

func TestHasRun(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveReport(testReport("run-1")))

	ok, err := db.HasRun("run-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.HasRun("run-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListFindingsSeverityFilter(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveReport(testReport("run-1")))

	fs, err := db.ListFindings("run-1", "")
	require.NoError(t, err)
	require.Len(t, fs, 3)
	// seq order preserves the stored finding order
	assert.Equal(t, "UNUSED-IMPORT", fs[0].RuleID)

	fs, err = db.ListFindings("run-1", "MEDIUM")
	require.NoError(t, err)
	require.Len(t, fs, 2)

	fs, err = db.ListFindings("run-1", "HIGH")
	require.NoError(t, err)
	require.Len(t, fs, 1)
	assert.Equal(t, "CVE-2025-3248", fs[0].CVE)
}

func TestWaiverLifecycle(t *testing.T) {
	db := openTestDB(t)
	exp := time.Now().Add(24 * time.Hour)

	id, err := db.CreateWaiver("WEAK-HASH", "legacy.py", "md5", "checksum only", "alice", exp)
	require.NoError(t, err)
	assert.Positive(t, id)

	ws, err := db.ListWaivers(true)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "WEAK-HASH", ws[0].RuleID)
	assert.Equal(t, "legacy.py", ws[0].Path)
	assert.Equal(t, "md5", ws[0].PatternSub)
	assert.Equal(t, "alice", ws[0].CreatedBy)
	assert.Nil(t, ws[0].RevokedAt)

	require.NoError(t, db.RevokeWaiver(id))
	ws, err = db.ListWaivers(true)
	require.NoError(t, err)
	assert.Empty(t, ws)

	ws, err = db.ListWaivers(false)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.NotNil(t, ws[0].RevokedAt)
}

func TestExpiredWaiverNotActive(t *testing.T) {
	db := openTestDB(t)
	_, err := db.CreateWaiver("PICKLE-LOAD", "", "", "short lived", "bob", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	ws, err := db.ListWaivers(true)
	require.NoError(t, err)
	assert.Empty(t, ws)
}

func TestUsersAndSessions(t *testing.T) {
	db := openTestDB(t)

	uid, err := db.CreateUser("alice", "hash-a", RoleAdmin)
	require.NoError(t, err)
	assert.Positive(t, uid)

	_, err = db.CreateUser("alice", "hash-b", RoleViewer)
	assert.Error(t, err) // username is unique

	u, hash, err := db.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, "hash-a", hash)
	assert.Equal(t, RoleAdmin, u.Role)

	require.NoError(t, db.CreateSession(uid, "tok-1", time.Now().Add(time.Hour)))
	su, err := db.GetSession("tok-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", su.Username)

	require.NoError(t, db.DeleteSession("tok-1"))
	_, err = db.GetSession("tok-1")
	assert.Error(t, err)
}

func TestExpiredSessionRejected(t *testing.T) {
	db := openTestDB(t)
	uid, err := db.CreateUser("bob", "h", RoleViewer)
	require.NoError(t, err)

	require.NoError(t, db.CreateSession(uid, "tok-old", time.Now().Add(-time.Hour)))
	_, err = db.GetSession("tok-old")
	assert.Error(t, err)
}

func TestLogAudit(t *testing.T) {
	db := openTestDB(t)
	err := db.LogAudit("alice", "waiver.create", "WEAK-HASH", map[string]any{"path": "legacy.py"})
	require.NoError(t, err)
}
