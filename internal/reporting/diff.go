package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aideng18/PyWard/internal/pysrc"
)

type diffPayload struct {
	BaseID  string        `json:"base_id"`
	HeadID  string        `json:"head_id"`
	Summary diffSummary   `json:"summary"`
	New     []diffFinding `json:"new"`
	Removed []diffFinding `json:"removed"`
	Changed []diffChanged `json:"changed"`
}

type diffSummary struct {
	NewCount     int `json:"new"`
	RemovedCount int `json:"removed"`
	ChangedCount int `json:"changed"`
}

type diffFinding struct {
	RuleID   string `json:"rule_id"`
	Line     int    `json:"line"`
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message,omitempty"`
	CVE      string `json:"cve,omitempty"`
}

type diffChanged struct {
	Key     string      `json:"key"`
	Base    diffFinding `json:"base"`
	Head    diffFinding `json:"head"`
	Changed []string    `json:"fields_changed"`
}

// WriteDiffJSON compares the findings of two runs of the same source
// and writes a JSON summary of new, removed and changed findings.
func WriteDiffJSON(baseID, headID, outDir string, base, head *pysrc.Report) (string, error) {
	path := filepath.Join(outDir, "diff_"+baseID+"__"+headID+".json")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	// index findings
	bm := map[string]pysrc.Finding{}
	hm := map[string]pysrc.Finding{}
	for _, f := range base.Findings {
		bm[keyOf(f)] = f
	}
	for _, f := range head.Findings {
		hm[keyOf(f)] = f
	}

	var added []diffFinding
	var removed []diffFinding
	var changed []diffChanged

	// additions & changes
	for k, hf := range hm {
		bf, ok := bm[k]
		if !ok {
			added = append(added, asDiff(hf))
			continue
		}
		var fields []string
		if norm(bf.Severity) != norm(hf.Severity) {
			fields = append(fields, "severity")
		}
		if strings.TrimSpace(bf.Message) != strings.TrimSpace(hf.Message) {
			fields = append(fields, "message")
		}
		if bf.CVE != hf.CVE {
			fields = append(fields, "cve")
		}
		if len(fields) > 0 {
			changed = append(changed, diffChanged{
				Key:     k,
				Base:    asDiff(bf),
				Head:    asDiff(hf),
				Changed: fields,
			})
		}
	}
	// removals
	for k, bf := range bm {
		if _, ok := hm[k]; !ok {
			removed = append(removed, asDiff(bf))
		}
	}

	// stable sort
	sort.Slice(added, func(i, j int) bool { return lessDiff(added[i], added[j]) })
	sort.Slice(removed, func(i, j int) bool { return lessDiff(removed[i], removed[j]) })
	sort.Slice(changed, func(i, j int) bool { return changed[i].Key < changed[j].Key })

	payload := diffPayload{
		BaseID: baseID, HeadID: headID,
		Summary: diffSummary{
			NewCount:     len(added),
			RemovedCount: len(removed),
			ChangedCount: len(changed),
		},
		New:     added,
		Removed: removed,
		Changed: changed,
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, b, 0o644)
}

// keyOf identifies a finding across runs. The line number is part of
// the identity; a finding that moves lines reads as removed plus new.
func keyOf(f pysrc.Finding) string {
	return fmt.Sprintf("%s|%d|%d", norm(f.RuleID), f.Line, f.Col)
}

func lessDiff(a, b diffFinding) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.RuleID < b.RuleID
}

func asDiff(f pysrc.Finding) diffFinding {
	return diffFinding{
		RuleID:   f.RuleID,
		Line:     f.Line,
		Severity: f.Severity,
		Message:  f.Message,
		CVE:      f.CVE,
	}
}

func norm(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
