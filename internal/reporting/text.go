package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/aideng18/PyWard/internal/pysrc"
)

// WriteText renders the report in the console format. When unit is
// non-nil and verbose is set, each finding is followed by its source
// line for context.
func WriteText(w io.Writer, rep *pysrc.Report, unit *pysrc.SourceUnit, verbose bool) {
	if rep.Status == pysrc.StatusNoRulesEnabled {
		fmt.Fprintf(w, "%s: no rules enabled, nothing was checked\n", rep.Source)
		return
	}

	for _, s := range rep.Skipped {
		fmt.Fprintf(w, "warning: rule %s skipped: %s\n", s.RuleID, s.Reason)
	}

	if len(rep.Findings) == 0 {
		fmt.Fprintf(w, "%s: no issues found (%d rules)\n", rep.Source, rep.RulesRun)
		return
	}

	opt, sec := rep.Counts()
	fmt.Fprintf(w, "%s: %d issue(s) (optimization %d, security %d)\n",
		rep.Source, len(rep.Findings), opt, sec)

	for _, f := range rep.Findings {
		var tag strings.Builder
		tag.WriteString("[")
		tag.WriteString(titleCategory(f.Category))
		tag.WriteString("]")
		if f.CVE != "" {
			tag.WriteString("[")
			tag.WriteString(f.CVE)
			tag.WriteString("]")
		}
		fmt.Fprintf(w, "%s Line %d: %s\n", tag.String(), f.Line, f.Message)
		if verbose {
			if unit != nil {
				if src, ok := unit.Line(f.Line); ok {
					fmt.Fprintf(w, "    %d | %s\n", f.Line, strings.TrimRight(src, " \t"))
				}
			}
			if f.Suggestion != "" {
				fmt.Fprintf(w, "    hint: %s\n", f.Suggestion)
			}
		}
	}
}

func titleCategory(c pysrc.Category) string {
	switch c {
	case pysrc.CategorySecurity:
		return "Security"
	case pysrc.CategoryOptimization:
		return "Optimization"
	}
	return string(c)
}
