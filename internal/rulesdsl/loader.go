// Package rulesdsl loads user-defined rule packs from YAML and
// registers them alongside the built-in rules. A pack rule matches
// syntactic shapes by regex: called names, imported module paths, or
// assigned variable names.
package rulesdsl

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aideng18/PyWard/internal/pysrc"
	"github.com/aideng18/PyWard/internal/rules"
	"github.com/aideng18/PyWard/internal/walker"
)

type dslPack struct {
	Rules []dslRule `yaml:"rules"`
}

type dslRule struct {
	ID       string `yaml:"id"`
	Summary  string `yaml:"summary"`
	Category string `yaml:"category"` // OPTIMIZATION|SECURITY
	Severity string `yaml:"severity"` // LOW|MEDIUM|HIGH
	Message  string `yaml:"message"`
	CVE      string `yaml:"cve"`

	Where struct {
		Call       string `yaml:"call"`        // regex on the dotted call name
		Import     string `yaml:"import"`      // regex on the dotted module path
		AssignName string `yaml:"assign_name"` // regex on a simple assignment target
	} `yaml:"where"`
}

type compiled struct {
	rule     dslRule
	reCall   *regexp.Regexp
	reImport *regexp.Regexp
	reAssign *regexp.Regexp
}

// LoadAndRegister reads a YAML pack from disk and registers every rule
// in it. Returns the number of rules registered.
func LoadAndRegister(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rules pack: %w", err)
	}
	var pack dslPack
	if err := yaml.Unmarshal(b, &pack); err != nil {
		return 0, fmt.Errorf("parse yaml: %w", err)
	}
	var n int
	for _, r := range pack.Rules {
		cr, err := compile(r)
		if err != nil {
			return n, fmt.Errorf("compile rule %q: %w", r.ID, err)
		}
		rules.Register(cr.build())
		n++
	}
	return n, nil
}

func compile(r dslRule) (*compiled, error) {
	if r.ID == "" || r.Category == "" || r.Severity == "" || r.Message == "" {
		return nil, fmt.Errorf("missing required fields (id/category/severity/message)")
	}
	switch strings.ToUpper(r.Category) {
	case string(pysrc.CategoryOptimization), string(pysrc.CategorySecurity):
	default:
		return nil, fmt.Errorf("unknown category %q", r.Category)
	}
	c := &compiled{rule: r}
	var err error
	if r.Where.Call != "" {
		if c.reCall, err = regexp.Compile("(?i)" + r.Where.Call); err != nil {
			return nil, fmt.Errorf("call regex: %w", err)
		}
	}
	if r.Where.Import != "" {
		if c.reImport, err = regexp.Compile("(?i)" + r.Where.Import); err != nil {
			return nil, fmt.Errorf("import regex: %w", err)
		}
	}
	if r.Where.AssignName != "" {
		if c.reAssign, err = regexp.Compile("(?i)" + r.Where.AssignName); err != nil {
			return nil, fmt.Errorf("assign_name regex: %w", err)
		}
	}
	if c.reCall == nil && c.reImport == nil && c.reAssign == nil {
		return nil, fmt.Errorf("where clause needs at least one of call/import/assign_name")
	}
	return c, nil
}

func (c *compiled) build() rules.Rule {
	return rules.Rule{
		ID:       c.rule.ID,
		Category: pysrc.Category(strings.ToUpper(c.rule.Category)),
		Severity: strings.ToUpper(c.rule.Severity),
		Summary:  c.rule.Summary,
		Eval: func(unit *pysrc.SourceUnit) []pysrc.Finding {
			var out []pysrc.Finding
			emit := func(line, col int) {
				out = append(out, pysrc.Finding{
					Line:    line,
					Col:     col,
					CVE:     c.rule.CVE,
					Message: c.rule.Message,
				})
			}
			walker.Walk(unit.Root, func(n *pysrc.Node, _ *walker.Context) {
				switch n.Kind {
				case pysrc.KindCall:
					if c.reCall != nil {
						if name := callName(n); name != "" && c.reCall.MatchString(name) {
							emit(n.Line, n.Col)
						}
					}
				case pysrc.KindImport:
					if c.reImport != nil {
						for _, a := range n.Aliases {
							if c.reImport.MatchString(a.Name) {
								emit(a.Line, a.Col)
							}
						}
					}
				case pysrc.KindImportFrom:
					if c.reImport != nil && c.reImport.MatchString(n.Module) {
						emit(n.Line, n.Col)
					}
				case pysrc.KindAssign:
					if c.reAssign != nil {
						for _, t := range n.Targets {
							if t.Kind == pysrc.KindName && c.reAssign.MatchString(t.Name) {
								emit(n.Line, n.Col)
							}
						}
					}
				}
			})
			return out
		},
	}
}

// callName renders the called expression as a dotted path, or "" for
// anything more dynamic than name.attr chains.
func callName(call *pysrc.Node) string {
	var render func(n *pysrc.Node) string
	render = func(n *pysrc.Node) string {
		switch {
		case n == nil:
			return ""
		case n.Kind == pysrc.KindName:
			return n.Name
		case n.Kind == pysrc.KindAttribute:
			base := render(n.Value)
			if base == "" {
				return ""
			}
			return base + "." + n.Name
		}
		return ""
	}
	return render(call.Func)
}
