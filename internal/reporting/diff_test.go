package reporting

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aideng18/PyWard/internal/pysrc"
)

func TestWriteDiffJSON(t *testing.T) {
	base := &pysrc.Report{Findings: []pysrc.Finding{
		{RuleID: "UNUSED-IMPORT", Line: 1, Severity: "LOW", Message: "Imported name 'os' is never used."},
		{RuleID: "WEAK-HASH", Line: 7, Severity: "MEDIUM", Message: "Use of weak hash algorithm 'md5'."},
		{RuleID: "DANGEROUS-CALL", Line: 9, Severity: "HIGH", Message: "Use of 'eval' detected."},
	}}
	head := &pysrc.Report{Findings: []pysrc.Finding{
		// unchanged
		{RuleID: "UNUSED-IMPORT", Line: 1, Severity: "LOW", Message: "Imported name 'os' is never used."},
		// same site, severity bumped
		{RuleID: "WEAK-HASH", Line: 7, Severity: "HIGH", Message: "Use of weak hash algorithm 'md5'."},
		// new
		{RuleID: "PICKLE-LOAD", Line: 12, Severity: "HIGH", Message: "Call to 'pickle.load'."},
	}}

	dir := t.TempDir()
	path, err := WriteDiffJSON("run-a", "run-b", dir, base, head)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got diffPayload
	require.NoError(t, json.Unmarshal(b, &got))

	assert.Equal(t, "run-a", got.BaseID)
	assert.Equal(t, 1, got.Summary.NewCount)
	assert.Equal(t, 1, got.Summary.RemovedCount)
	assert.Equal(t, 1, got.Summary.ChangedCount)

	require.Len(t, got.New, 1)
	assert.Equal(t, "PICKLE-LOAD", got.New[0].RuleID)

	require.Len(t, got.Removed, 1)
	assert.Equal(t, "DANGEROUS-CALL", got.Removed[0].RuleID)

	require.Len(t, got.Changed, 1)
	assert.Equal(t, []string{"severity"}, got.Changed[0].Changed)
	assert.Equal(t, "MEDIUM", got.Changed[0].Base.Severity)
	assert.Equal(t, "HIGH", got.Changed[0].Head.Severity)
}

func TestDiffLineMoveReadsAsRemovedPlusNew(t *testing.T) {
	base := &pysrc.Report{Findings: []pysrc.Finding{
		{RuleID: "WEAK-HASH", Line: 3, Severity: "MEDIUM", Message: "m"},
	}}
	head := &pysrc.Report{Findings: []pysrc.Finding{
		{RuleID: "WEAK-HASH", Line: 5, Severity: "MEDIUM", Message: "m"},
	}}

	path, err := WriteDiffJSON("a", "b", t.TempDir(), base, head)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got diffPayload
	require.NoError(t, json.Unmarshal(b, &got))

	assert.Equal(t, 1, got.Summary.NewCount)
	assert.Equal(t, 1, got.Summary.RemovedCount)
	assert.Zero(t, got.Summary.ChangedCount)
}

func TestDiffSortedByLine(t *testing.T) {
	head := &pysrc.Report{Findings: []pysrc.Finding{
		{RuleID: "B", Line: 9},
		{RuleID: "A", Line: 2},
		{RuleID: "A", Line: 9, Col: 4},
	}}

	path, err := WriteDiffJSON("a", "b", t.TempDir(), &pysrc.Report{}, head)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got diffPayload
	require.NoError(t, json.Unmarshal(b, &got))

	require.Len(t, got.New, 3)
	assert.Equal(t, 2, got.New[0].Line)
	assert.Equal(t, "A", got.New[1].RuleID)
	assert.Equal(t, "B", got.New[2].RuleID)
}
