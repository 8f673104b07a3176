package rulesdsl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aideng18/PyWard/internal/parser"
	"github.com/aideng18/PyWard/internal/pysrc"
	"github.com/aideng18/PyWard/internal/rules"
)

func writePack(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func parseSrc(t *testing.T, src string) *pysrc.SourceUnit {
	t.Helper()
	unit, err := parser.Parse("dsl.py", src)
	require.NoError(t, err)
	return unit
}

func TestLoadAndRegisterCallRule(t *testing.T) {
	path := writePack(t, `
rules:
  - id: PACK-NO-INPUT
    summary: input() reads from stdin
    category: security
    severity: MEDIUM
    message: Call to input() in non-interactive code.
    where:
      call: ^input$
`)
	n, err := LoadAndRegister(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	r, ok := rules.Get("PACK-NO-INPUT")
	require.True(t, ok)
	assert.Equal(t, pysrc.CategorySecurity, r.Category)
	assert.Equal(t, "MEDIUM", r.Severity)

	fs := r.Eval(parseSrc(t, "name = input()\nprint(name)\ninputs = gather()\n"))
	require.Len(t, fs, 1)
	assert.Equal(t, 1, fs[0].Line)
	assert.Equal(t, "Call to input() in non-interactive code.", fs[0].Message)
}

func TestLoadAndRegisterImportRule(t *testing.T) {
	path := writePack(t, `
rules:
  - id: PACK-NO-TELNET
    category: SECURITY
    severity: HIGH
    cve: CVE-1999-0619
    message: telnetlib transmits credentials in cleartext.
    where:
      import: ^telnetlib$
`)
	_, err := LoadAndRegister(path)
	require.NoError(t, err)

	r, _ := rules.Get("PACK-NO-TELNET")
	fs := r.Eval(parseSrc(t, "import telnetlib\nfrom telnetlib import Telnet\nimport telnetlib3\n"))
	require.Len(t, fs, 2)
	assert.Equal(t, "CVE-1999-0619", fs[0].CVE)
}

func TestLoadAndRegisterAssignRule(t *testing.T) {
	path := writePack(t, `
rules:
  - id: PACK-NO-DEBUG-FLAG
    category: optimization
    severity: LOW
    message: Debug flag committed to source.
    where:
      assign_name: ^DEBUG$
`)
	_, err := LoadAndRegister(path)
	require.NoError(t, err)

	r, _ := rules.Get("PACK-NO-DEBUG-FLAG")
	fs := r.Eval(parseSrc(t, "DEBUG = True\ndebug = False\ndebugging = True\n"))
	// the match is case-insensitive but still anchored
	require.Len(t, fs, 2)
	assert.Equal(t, 1, fs[0].Line)
	assert.Equal(t, 2, fs[1].Line)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadAndRegister(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsMissingFields(t *testing.T) {
	path := writePack(t, `
rules:
  - id: PACK-BAD-1
    category: security
    where:
      call: x
`)
	_, err := LoadAndRegister(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required fields")
}

func TestLoadRejectsUnknownCategory(t *testing.T) {
	path := writePack(t, `
rules:
  - id: PACK-BAD-2
    category: style
    severity: LOW
    message: m
    where:
      call: x
`)
	_, err := LoadAndRegister(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestLoadRejectsEmptyWhere(t *testing.T) {
	path := writePack(t, `
rules:
  - id: PACK-BAD-3
    category: security
    severity: LOW
    message: m
`)
	_, err := LoadAndRegister(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one")
}

func TestLoadRejectsBadRegex(t *testing.T) {
	path := writePack(t, `
rules:
  - id: PACK-BAD-4
    category: security
    severity: LOW
    message: m
    where:
      call: "("
`)
	_, err := LoadAndRegister(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call regex")
}
