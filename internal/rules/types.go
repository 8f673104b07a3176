package rules

import "github.com/aideng18/PyWard/internal/pysrc"

// Rule represents a single analysis rule executed over a parsed file.
type Rule struct {
	ID       string
	Category pysrc.Category
	Severity string // default severity for the rule's findings
	Summary  string
	// Eval walks the unit and returns findings. A panic inside Eval is
	// recovered by the registry and reported as a skipped rule.
	Eval func(unit *pysrc.SourceUnit) []pysrc.Finding
}
