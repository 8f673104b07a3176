package rules

import (
	"fmt"
	"sync/atomic"

	"github.com/aideng18/PyWard/internal/pysrc"
	"github.com/aideng18/PyWard/internal/vulndb"
	"github.com/aideng18/PyWard/internal/walker"
)

// vulnTable is the signature table consulted by the registered rule.
// It defaults to the embedded table; SetVulnTable swaps in a fresher
// advisory feed before a run.
var vulnTable atomic.Pointer[vulndb.Table]

func SetVulnTable(t *vulndb.Table) { vulnTable.Store(t) }

func currentVulnTable() *vulndb.Table {
	if t := vulnTable.Load(); t != nil {
		return t
	}
	return vulndb.Builtin()
}

func init() {
	Register(Rule{
		ID:       "VULNERABLE-IMPORT",
		Category: pysrc.CategorySecurity,
		Severity: pysrc.SeverityHigh,
		Summary:  "Import of a package with a known security advisory.",
		Eval: func(unit *pysrc.SourceUnit) []pysrc.Finding {
			return evalVulnerableImports(unit, currentVulnTable())
		},
	})
}

// NewVulnerableImportRule builds the rule against a specific table,
// bypassing the process-wide default. Tests use this to pin fixtures.
func NewVulnerableImportRule(table *vulndb.Table) Rule {
	return Rule{
		ID:       "VULNERABLE-IMPORT",
		Category: pysrc.CategorySecurity,
		Severity: pysrc.SeverityHigh,
		Summary:  "Import of a package with a known security advisory.",
		Eval: func(unit *pysrc.SourceUnit) []pysrc.Finding {
			return evalVulnerableImports(unit, table)
		},
	}
}

func evalVulnerableImports(unit *pysrc.SourceUnit, table *vulndb.Table) []pysrc.Finding {
	var out []pysrc.Finding
	report := func(module string, line, col int) {
		sig, ok := table.Lookup(module)
		if !ok {
			return
		}
		out = append(out, pysrc.Finding{
			Line:       line,
			Col:        col,
			CVE:        sig.CVE,
			Message:    fmt.Sprintf("Import of vulnerable package '%s' detected (%s). %s", module, sig.CVE, sig.Advisory),
			Suggestion: "Upgrade or replace the package per the advisory.",
		})
	}
	walker.Walk(unit.Root, func(n *pysrc.Node, _ *walker.Context) {
		switch n.Kind {
		case pysrc.KindImport:
			for _, a := range n.Aliases {
				report(a.Name, a.Line, a.Col)
			}
		case pysrc.KindImportFrom:
			report(n.Module, n.Line, n.Col)
		}
	})
	return out
}
