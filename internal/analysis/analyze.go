// Package analysis ties the parser and the rule registry into the
// single-file analysis pipeline.
package analysis

import (
	"fmt"
	"time"

	"github.com/aideng18/PyWard/internal/parser"
	"github.com/aideng18/PyWard/internal/pysrc"
	"github.com/aideng18/PyWard/internal/rules"
)

// Analyze parses one Python source file and evaluates the enabled
// rules over it. A syntax error aborts the run and is returned as a
// *parser.SyntaxError; no findings are produced for unparseable input.
// When neither category is enabled the report carries
// StatusNoRulesEnabled so an empty finding list cannot be mistaken for
// a clean file. The parsed unit is returned for renderers that want
// source context; it is nil when no rules were enabled.
func Analyze(filename, source string, opts rules.Options) (*pysrc.Report, *pysrc.SourceUnit, error) {
	rep := &pysrc.Report{
		ID:        fmt.Sprintf("run-%d", time.Now().UnixNano()),
		StartedAt: time.Now().UTC(),
		Source:    filename,
		Version:   pysrc.Version,
	}

	if !opts.Optimization && !opts.Security {
		rep.Status = pysrc.StatusNoRulesEnabled
		return rep, nil, nil
	}

	unit, err := parser.Parse(filename, source)
	if err != nil {
		return nil, nil, err
	}

	findings, skipped, rulesRun := rules.Evaluate(unit, opts)
	rep.Status = pysrc.StatusOK
	rep.RulesRun = rulesRun
	rep.Skipped = skipped
	rep.Findings = findings
	return rep, unit, nil
}
