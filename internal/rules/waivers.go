package rules

import (
	"strings"

	"github.com/aideng18/PyWard/internal/pysrc"
	"github.com/aideng18/PyWard/internal/storage"
)

// ApplyWaivers filters out findings that match any active waiver.
// Returns (kept, waivedCount). A waiver matches on rule ID, optionally
// narrowed to a source path and a message substring.
func ApplyWaivers(in []pysrc.Finding, path string, waivers []storage.Waiver) ([]pysrc.Finding, int) {
	if len(waivers) == 0 || len(in) == 0 {
		return in, 0
	}
	var out []pysrc.Finding
	waived := 0
nextFinding:
	for _, f := range in {
		for _, w := range waivers {
			if !eqCI(f.RuleID, w.RuleID) {
				continue
			}
			if w.Path != "" && !eqCI(path, w.Path) {
				continue
			}
			if w.PatternSub != "" {
				ps := strings.ToUpper(w.PatternSub)
				if !strings.Contains(strings.ToUpper(f.Message), ps) {
					continue
				}
			}
			waived++
			continue nextFinding
		}
		out = append(out, f)
	}
	return out, waived
}

func eqCI(a, b string) bool { return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) }
