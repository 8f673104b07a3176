package rules

import (
	"fmt"

	"github.com/aideng18/PyWard/internal/pysrc"
	"github.com/aideng18/PyWard/internal/walker"
)

func init() {
	Register(Rule{
		ID:       "DANGEROUS-CALL",
		Category: pysrc.CategorySecurity,
		Severity: pysrc.SeverityHigh,
		Summary:  "Use of eval() or exec(), which execute arbitrary code (CVE-2025-3248).",
		Eval:     evalDangerousCalls,
	})
}

func evalDangerousCalls(unit *pysrc.SourceUnit) []pysrc.Finding {
	var out []pysrc.Finding
	walker.Walk(unit.Root, func(n *pysrc.Node, _ *walker.Context) {
		if n.Kind != pysrc.KindCall {
			return
		}
		name := dottedName(n.Func)
		if name != "eval" && name != "exec" {
			return
		}
		out = append(out, pysrc.Finding{
			Line:       n.Line,
			Col:        n.Col,
			CVE:        "CVE-2025-3248",
			Message:    fmt.Sprintf("Use of '%s' detected. Dynamic code execution of attacker-controlled input leads to remote code execution.", name),
			Suggestion: "Avoid dynamic code execution. Parse the input with ast.literal_eval or a dedicated format instead.",
		})
	})
	return out
}
