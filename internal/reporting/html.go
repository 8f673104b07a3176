package reporting

import (
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/aideng18/PyWard/internal/pysrc"
)

func WriteHTML(runID, outDir string, rep *pysrc.Report) (string, error) {
	path := filepath.Join(outDir, runID+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	opt, sec := rep.Counts()

	// Head + styles
	fmt.Fprintf(f, "<!doctype html><html><head><meta charset='utf-8'><title>%s</title>", html.EscapeString(runID))
	fmt.Fprint(f, "<style>body{font-family:system-ui,Arial,sans-serif;padding:20px;line-height:1.4} table{border-collapse:collapse;margin:8px 0} td,th{border:1px solid #ddd;padding:6px} h1,h2{margin:6px 0 4px} .dim{color:#666} .mono{font-family:ui-monospace,Menlo,Consolas,monospace} .sev-HIGH{color:#b00} .sev-MEDIUM{color:#b60} .sev-LOW{color:#067}</style>")
	fmt.Fprint(f, "</head><body>")

	// Title + summary
	fmt.Fprintf(f, "<h1>pyward report &ndash; <span class='mono'>%s</span></h1>", html.EscapeString(runID))
	fmt.Fprintf(f, "<p class='mono'>%s</p>", html.EscapeString(rep.Source))
	fmt.Fprintf(f, "<p>Rules run: %d &nbsp; Findings: %d (optimization %d, security %d)</p>",
		rep.RulesRun, len(rep.Findings), opt, sec)

	if rep.Status == pysrc.StatusNoRulesEnabled {
		fmt.Fprint(f, "<p class='dim'>No rules were enabled for this run; an empty finding list is not a clean bill.</p>")
		fmt.Fprint(f, "</body></html>")
		return path, nil
	}

	if len(rep.Skipped) > 0 {
		fmt.Fprint(f, "<h2>Skipped Rules</h2><table><tr><th>Rule</th><th>Reason</th></tr>")
		for _, s := range rep.Skipped {
			fmt.Fprintf(f, "<tr><td>%s</td><td>%s</td></tr>",
				html.EscapeString(s.RuleID), html.EscapeString(s.Reason))
		}
		fmt.Fprint(f, "</table>")
	}

	if len(rep.Findings) > 0 {
		fmt.Fprint(f, "<h2>Findings</h2><table><tr><th>Line</th><th>Severity</th><th>Category</th><th>Rule</th><th>CVE</th><th>Message</th><th>Suggestion</th></tr>")
		for _, fd := range rep.Findings {
			fmt.Fprintf(f, "<tr><td>%d</td><td class='sev-%s'>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td class='dim'>%s</td></tr>",
				fd.Line,
				html.EscapeString(fd.Severity),
				html.EscapeString(fd.Severity),
				html.EscapeString(string(fd.Category)),
				html.EscapeString(fd.RuleID),
				html.EscapeString(fd.CVE),
				html.EscapeString(fd.Message),
				html.EscapeString(fd.Suggestion),
			)
		}
		fmt.Fprint(f, "</table>")
	} else {
		fmt.Fprint(f, "<h2>Findings</h2><p class='dim'>No issues found.</p>")
	}

	fmt.Fprint(f, "</body></html>")
	return path, nil
}
