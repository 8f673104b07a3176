package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aideng18/PyWard/internal/pysrc"
)

var (
	registry  []Rule
	ruleIndex = map[string]int{} // UPPER(ruleID) -> registration index
)

// Register adds a rule to the static registry. Registration order is
// significant: it is the final tiebreak when ordering findings.
func Register(r Rule) {
	key := strings.ToUpper(strings.TrimSpace(r.ID))
	if _, dup := ruleIndex[key]; dup {
		panic(fmt.Sprintf("rules: duplicate rule id %q", r.ID))
	}
	ruleIndex[key] = len(registry)
	registry = append(registry, r)
}

// Options selects which rule categories run. Both enabled is the
// default; neither enabled is a no-op, not an error.
type Options struct {
	Optimization bool
	Security     bool
}

// Enabled reports whether the options admit the given category.
func (o Options) Enabled(c pysrc.Category) bool {
	switch c {
	case pysrc.CategoryOptimization:
		return o.Optimization
	case pysrc.CategorySecurity:
		return o.Security
	}
	return false
}

// List returns the enabled, non-disabled rules in registration order.
func List(opts Options) []Rule {
	out := make([]Rule, 0, len(registry))
	for _, r := range registry {
		if !opts.Enabled(r.Category) {
			continue
		}
		if rsettings.Disabled[strings.ToUpper(r.ID)] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// All returns every registered rule regardless of options, for
// inventory surfaces (CLI, API).
func All() []Rule {
	out := make([]Rule, len(registry))
	copy(out, registry)
	return out
}

// Get returns a rule by ID if registered.
func Get(id string) (Rule, bool) {
	idx, ok := ruleIndex[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return Rule{}, false
	}
	return registry[idx], true
}

// Evaluate runs every enabled rule over the unit and returns the
// merged finding stream plus the rules that were skipped after a
// panic. Ordering is deterministic and independent of rule timing:
// line ascending, then Optimization before Security on the same line,
// then registration order.
func Evaluate(unit *pysrc.SourceUnit, opts Options) ([]pysrc.Finding, []pysrc.SkippedRule, int) {
	rs := List(opts)

	type ordered struct {
		f   pysrc.Finding
		reg int
	}
	var all []ordered
	var skipped []pysrc.SkippedRule

	for _, rule := range rs {
		fs, err := evalOne(rule, unit)
		if err != nil {
			skipped = append(skipped, pysrc.SkippedRule{RuleID: rule.ID, Reason: err.Error()})
			continue
		}
		reg := ruleIndex[strings.ToUpper(rule.ID)]
		for _, f := range fs {
			if f.RuleID == "" {
				f.RuleID = rule.ID
			}
			if f.Category == "" {
				f.Category = rule.Category
			}
			if f.Severity == "" {
				f.Severity = rule.Severity
			}
			if !severityOK(f.Severity) {
				continue
			}
			all = append(all, ordered{f: f, reg: reg})
		}
	}

	catRank := func(c pysrc.Category) int {
		if c == pysrc.CategorySecurity {
			return 1
		}
		return 0
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.f.Line != b.f.Line {
			return a.f.Line < b.f.Line
		}
		if catRank(a.f.Category) != catRank(b.f.Category) {
			return catRank(a.f.Category) < catRank(b.f.Category)
		}
		return a.reg < b.reg
	})

	out := make([]pysrc.Finding, 0, len(all))
	for _, o := range all {
		out = append(out, o.f)
	}
	return out, skipped, len(rs)
}

// evalOne isolates a single rule invocation so an unexpected tree
// shape degrades that rule instead of crashing the run.
func evalOne(rule Rule, unit *pysrc.SourceUnit) (fs []pysrc.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			fs = nil
			err = fmt.Errorf("rule panicked: %v", r)
		}
	}()
	return rule.Eval(unit), nil
}
