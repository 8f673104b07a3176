package rules

import "strings"

type Settings struct {
	SeverityThreshold string
	Disabled          map[string]bool
}

var rsettings = Settings{
	SeverityThreshold: "LOW",
	Disabled:          map[string]bool{},
}

func SetSettings(s Settings) {
	// fill defaults
	if s.SeverityThreshold == "" {
		s.SeverityThreshold = "LOW"
	}
	if s.Disabled == nil {
		s.Disabled = map[string]bool{}
	}
	rsettings = s
}

func severityRank(sev string) int {
	switch strings.ToUpper(strings.TrimSpace(sev)) {
	case "HIGH":
		return 3
	case "MEDIUM":
		return 2
	default:
		return 1 // LOW or unknown
	}
}

func severityOK(sev string) bool {
	return severityRank(sev) >= severityRank(rsettings.SeverityThreshold)
}
