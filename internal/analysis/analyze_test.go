package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aideng18/PyWard/internal/parser"
	"github.com/aideng18/PyWard/internal/pysrc"
	"github.com/aideng18/PyWard/internal/rules"
)

func TestAnalyzeCleanFile(t *testing.T) {
	rep, unit, err := Analyze("clean.py", "import json\nprint(json.dumps({}))\n",
		rules.Options{Optimization: true, Security: true})
	require.NoError(t, err)
	require.NotNil(t, rep)
	require.NotNil(t, unit)

	assert.Equal(t, pysrc.StatusOK, rep.Status)
	assert.Equal(t, "clean.py", rep.Source)
	assert.Equal(t, pysrc.Version, rep.Version)
	assert.NotEmpty(t, rep.ID)
	assert.False(t, rep.StartedAt.IsZero())
	assert.Positive(t, rep.RulesRun)
	assert.Empty(t, rep.Findings)
	assert.Empty(t, rep.Skipped)
}

func TestAnalyzeFindings(t *testing.T) {
	rep, unit, err := Analyze("warn.py", "import os\neval(x)\n",
		rules.Options{Optimization: true, Security: true})
	require.NoError(t, err)
	require.Len(t, rep.Findings, 2)
	assert.Equal(t, "UNUSED-IMPORT", rep.Findings[0].RuleID)
	assert.Equal(t, "DANGEROUS-CALL", rep.Findings[1].RuleID)

	line, ok := unit.Line(rep.Findings[1].Line)
	require.True(t, ok)
	assert.Equal(t, "eval(x)", line)
}

func TestAnalyzeNoRulesEnabled(t *testing.T) {
	rep, unit, err := Analyze("any.py", "this is not python at all (", rules.Options{})
	require.NoError(t, err)
	assert.Nil(t, unit)
	assert.Equal(t, pysrc.StatusNoRulesEnabled, rep.Status)
	assert.Zero(t, rep.RulesRun)
	assert.Empty(t, rep.Findings)
}

func TestAnalyzeSyntaxError(t *testing.T) {
	rep, unit, err := Analyze("bad.py", "def f(:\n", rules.Options{Security: true})
	require.Error(t, err)
	assert.Nil(t, rep)
	assert.Nil(t, unit)

	var se *parser.SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Line)
}

func TestAnalyzeReportCounts(t *testing.T) {
	rep, _, err := Analyze("mix.py", "import os\npassword = \"pw123\"\neval(password)\n",
		rules.Options{Optimization: true, Security: true})
	require.NoError(t, err)

	opt, sec := rep.Counts()
	assert.Equal(t, 1, opt)
	assert.Equal(t, 2, sec)
}
