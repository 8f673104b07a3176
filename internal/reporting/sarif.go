package reporting

import (
	"os"
	"path/filepath"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/aideng18/PyWard/internal/pysrc"
)

// WriteSARIF renders the report as SARIF 2.1.0 for code-scanning
// integrations.
func WriteSARIF(runID, outDir string, rep *pysrc.Report) (string, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return "", err
	}

	run := sarif.NewRunWithInformationURI("pyward", "https://github.com/aideng18/PyWard")
	seen := map[string]bool{}
	for _, f := range rep.Findings {
		if !seen[f.RuleID] {
			rule := run.AddRule(f.RuleID)
			rule.WithDescription(f.Message)
			if f.CVE != "" {
				rule.WithHelpURI("https://nvd.nist.gov/vuln/detail/" + f.CVE)
			}
			seen[f.RuleID] = true
		}
		loc := sarif.NewLocationWithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewSimpleArtifactLocation(rep.Source)).
				WithRegion(sarif.NewSimpleRegion(f.Line, f.Line)),
		)
		run.CreateResultForRule(f.RuleID).
			WithLevel(toSarifErrorLevel(f.Severity)).
			WithMessage(sarif.NewTextMessage(f.Message)).
			AddLocation(loc)
	}
	report.AddRun(run)

	path := filepath.Join(outDir, runID+".sarif")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := report.PrettyWrite(f); err != nil {
		return "", err
	}
	return path, nil
}

func toSarifErrorLevel(severity string) string {
	switch severity {
	case pysrc.SeverityHigh:
		return "error"
	case pysrc.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
