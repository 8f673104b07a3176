package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aideng18/PyWard/internal/parser"
	"github.com/aideng18/PyWard/internal/pysrc"
)

func parseUnit(t *testing.T, src string) *pysrc.SourceUnit {
	t.Helper()
	unit, err := parser.Parse("case.py", src)
	require.NoError(t, err)
	return unit
}

// evalAll runs every registered rule over the source with default
// settings and both categories enabled.
func evalAll(t *testing.T, src string) []pysrc.Finding {
	t.Helper()
	fs, skipped, _ := Evaluate(parseUnit(t, src), Options{Optimization: true, Security: true})
	require.Empty(t, skipped)
	return fs
}

func byRule(fs []pysrc.Finding, id string) []pysrc.Finding {
	var out []pysrc.Finding
	for _, f := range fs {
		if f.RuleID == id {
			out = append(out, f)
		}
	}
	return out
}

// swapRegistry replaces the global registry for the duration of a test.
func swapRegistry(t *testing.T, rs []Rule) {
	t.Helper()
	savedReg, savedIdx := registry, ruleIndex
	registry, ruleIndex = nil, map[string]int{}
	for _, r := range rs {
		Register(r)
	}
	t.Cleanup(func() {
		registry, ruleIndex = savedReg, savedIdx
	})
}

func TestRegisterRejectsDuplicateID(t *testing.T) {
	swapRegistry(t, nil)
	Register(Rule{ID: "DEMO", Category: pysrc.CategoryOptimization})
	assert.Panics(t, func() {
		Register(Rule{ID: "demo", Category: pysrc.CategorySecurity})
	})
}

func TestOptionsFilterCategories(t *testing.T) {
	src := "import unused_mod\neval(x)\n"
	unit := parseUnit(t, src)

	fs, _, _ := Evaluate(unit, Options{Optimization: true})
	for _, f := range fs {
		assert.Equal(t, pysrc.CategoryOptimization, f.Category)
	}
	assert.NotEmpty(t, byRule(fs, "UNUSED-IMPORT"))
	assert.Empty(t, byRule(fs, "DANGEROUS-CALL"))

	fs, _, _ = Evaluate(unit, Options{Security: true})
	for _, f := range fs {
		assert.Equal(t, pysrc.CategorySecurity, f.Category)
	}
	assert.NotEmpty(t, byRule(fs, "DANGEROUS-CALL"))
}

func TestEvaluateNeitherCategoryRunsNothing(t *testing.T) {
	fs, skipped, n := Evaluate(parseUnit(t, "eval(x)\n"), Options{})
	assert.Empty(t, fs)
	assert.Empty(t, skipped)
	assert.Zero(t, n)
}

func TestFindingOrderDeterministic(t *testing.T) {
	// line 1 security, line 2 both categories on one line
	src := "eval(a)\nimport unused_mod; exec(b)\n"
	fs := evalAll(t, src)
	require.GreaterOrEqual(t, len(fs), 3)

	for i := 1; i < len(fs); i++ {
		assert.LessOrEqual(t, fs[i-1].Line, fs[i].Line)
	}
	// on line 2 the optimization finding precedes the security one
	var onTwo []pysrc.Finding
	for _, f := range fs {
		if f.Line == 2 {
			onTwo = append(onTwo, f)
		}
	}
	require.Len(t, onTwo, 2)
	assert.Equal(t, pysrc.CategoryOptimization, onTwo[0].Category)
	assert.Equal(t, pysrc.CategorySecurity, onTwo[1].Category)

	// repeated evaluation returns identical results
	again := evalAll(t, src)
	assert.Equal(t, fs, again)
}

func TestSameLineSameCategoryUsesRegistrationOrder(t *testing.T) {
	swapRegistry(t, []Rule{
		{
			ID: "B-SECOND", Category: pysrc.CategorySecurity, Severity: "LOW",
			Eval: func(*pysrc.SourceUnit) []pysrc.Finding {
				return []pysrc.Finding{{Line: 1, Message: "second"}}
			},
		},
		{
			ID: "A-FIRST", Category: pysrc.CategorySecurity, Severity: "LOW",
			Eval: func(*pysrc.SourceUnit) []pysrc.Finding {
				return []pysrc.Finding{{Line: 1, Message: "first"}}
			},
		},
	})
	fs, _, _ := Evaluate(parseUnit(t, "x = 1\n"), Options{Security: true})
	require.Len(t, fs, 2)
	assert.Equal(t, "B-SECOND", fs[0].RuleID)
	assert.Equal(t, "A-FIRST", fs[1].RuleID)
}

func TestPanickingRuleIsSkippedNotFatal(t *testing.T) {
	swapRegistry(t, []Rule{
		{
			ID: "BOOM", Category: pysrc.CategorySecurity, Severity: "LOW",
			Eval: func(*pysrc.SourceUnit) []pysrc.Finding {
				panic("bad tree shape")
			},
		},
		{
			ID: "OK", Category: pysrc.CategorySecurity, Severity: "LOW",
			Eval: func(*pysrc.SourceUnit) []pysrc.Finding {
				return []pysrc.Finding{{Line: 1, Message: "fine"}}
			},
		},
	})
	fs, skipped, n := Evaluate(parseUnit(t, "x = 1\n"), Options{Security: true})
	assert.Equal(t, 2, n)
	require.Len(t, skipped, 1)
	assert.Equal(t, "BOOM", skipped[0].RuleID)
	assert.Contains(t, skipped[0].Reason, "bad tree shape")
	require.Len(t, fs, 1)
	assert.Equal(t, "OK", fs[0].RuleID)
}

func TestDefaultsFilledFromRule(t *testing.T) {
	swapRegistry(t, []Rule{{
		ID: "FILL", Category: pysrc.CategorySecurity, Severity: "HIGH",
		Eval: func(*pysrc.SourceUnit) []pysrc.Finding {
			return []pysrc.Finding{{Line: 3, Message: "m"}}
		},
	}})
	fs, _, _ := Evaluate(parseUnit(t, "x = 1\n"), Options{Security: true})
	require.Len(t, fs, 1)
	assert.Equal(t, "FILL", fs[0].RuleID)
	assert.Equal(t, pysrc.CategorySecurity, fs[0].Category)
	assert.Equal(t, "HIGH", fs[0].Severity)
}

func TestDisabledRuleDoesNotRun(t *testing.T) {
	defer SetSettings(Settings{})
	SetSettings(Settings{Disabled: map[string]bool{"DANGEROUS-CALL": true}})

	fs, _, _ := Evaluate(parseUnit(t, "eval(x)\n"), Options{Security: true})
	assert.Empty(t, byRule(fs, "DANGEROUS-CALL"))
}

func TestSeverityThreshold(t *testing.T) {
	defer SetSettings(Settings{})
	SetSettings(Settings{SeverityThreshold: "HIGH"})

	src := "import unused_mod\neval(x)\n"
	fs, _, _ := Evaluate(parseUnit(t, src), Options{Optimization: true, Security: true})
	assert.Empty(t, byRule(fs, "UNUSED-IMPORT")) // LOW, filtered
	assert.NotEmpty(t, byRule(fs, "DANGEROUS-CALL"))
	for _, f := range fs {
		assert.Equal(t, "HIGH", f.Severity)
	}
}

func TestCleanFileYieldsNoFindings(t *testing.T) {
	src := `
import json

def load(path):
    with open(path) as fh:
        return json.load(fh)
`
	assert.Empty(t, evalAll(t, src))
}
