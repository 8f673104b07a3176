package reporting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aideng18/PyWard/internal/parser"
	"github.com/aideng18/PyWard/internal/pysrc"
)

func sampleReport() *pysrc.Report {
	return &pysrc.Report{
		ID:       "run-1",
		Source:   "app.py",
		Status:   pysrc.StatusOK,
		RulesRun: 14,
		Findings: []pysrc.Finding{
			{
				RuleID: "UNUSED-IMPORT", Category: pysrc.CategoryOptimization,
				Severity: "LOW", Line: 1,
				Message:    "Imported name 'os' is never used.",
				Suggestion: "Remove the import or reference the name.",
			},
			{
				RuleID: "DANGEROUS-CALL", Category: pysrc.CategorySecurity,
				Severity: "HIGH", Line: 2, CVE: "CVE-2025-3248",
				Message: "Use of 'eval' detected.",
			},
		},
	}
}

func TestWriteTextFindings(t *testing.T) {
	var buf strings.Builder
	WriteText(&buf, sampleReport(), nil, false)

	out := buf.String()
	assert.Contains(t, out, "app.py: 2 issue(s) (optimization 1, security 1)")
	assert.Contains(t, out, "[Optimization] Line 1: Imported name 'os' is never used.")
	assert.Contains(t, out, "[Security][CVE-2025-3248] Line 2: Use of 'eval' detected.")
	assert.NotContains(t, out, "hint:")
}

func TestWriteTextVerboseShowsSourceLine(t *testing.T) {
	unit, err := parser.Parse("app.py", "import os\neval(x)\n")
	require.NoError(t, err)

	var buf strings.Builder
	WriteText(&buf, sampleReport(), unit, true)

	out := buf.String()
	assert.Contains(t, out, "    1 | import os")
	assert.Contains(t, out, "    2 | eval(x)")
	assert.Contains(t, out, "    hint: Remove the import or reference the name.")
}

func TestWriteTextClean(t *testing.T) {
	rep := &pysrc.Report{Source: "clean.py", Status: pysrc.StatusOK, RulesRun: 14}
	var buf strings.Builder
	WriteText(&buf, rep, nil, false)
	assert.Equal(t, "clean.py: no issues found (14 rules)\n", buf.String())
}

func TestWriteTextNoRulesEnabled(t *testing.T) {
	rep := &pysrc.Report{Source: "any.py", Status: pysrc.StatusNoRulesEnabled}
	var buf strings.Builder
	WriteText(&buf, rep, nil, false)
	assert.Equal(t, "any.py: no rules enabled, nothing was checked\n", buf.String())
}

func TestWriteTextSkippedRules(t *testing.T) {
	rep := &pysrc.Report{
		Source: "s.py", Status: pysrc.StatusOK, RulesRun: 14,
		Skipped: []pysrc.SkippedRule{{RuleID: "UNUSED-VARIABLE", Reason: "rule panicked: boom"}},
	}
	var buf strings.Builder
	WriteText(&buf, rep, nil, false)
	assert.Contains(t, buf.String(), "warning: rule UNUSED-VARIABLE skipped: rule panicked: boom")
}
