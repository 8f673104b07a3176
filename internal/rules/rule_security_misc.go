package rules

import (
	"fmt"
	"strings"

	"github.com/aideng18/PyWard/internal/pysrc"
	"github.com/aideng18/PyWard/internal/walker"
)

func init() {
	Register(Rule{
		ID:       "SUBPROCESS-SHELL-TRUE",
		Category: pysrc.CategorySecurity,
		Severity: pysrc.SeverityHigh,
		Summary:  "subprocess invoked with shell=True, enabling shell injection.",
		Eval:     evalSubprocessShell,
	})
	Register(Rule{
		ID:       "PICKLE-LOAD",
		Category: pysrc.CategorySecurity,
		Severity: pysrc.SeverityHigh,
		Summary:  "Deserialization of untrusted data with pickle.",
		Eval:     evalPickleLoad,
	})
	Register(Rule{
		ID:       "YAML-UNSAFE-LOAD",
		Category: pysrc.CategorySecurity,
		Severity: pysrc.SeverityMedium,
		Summary:  "yaml.load without an explicit safe loader.",
		Eval:     evalYAMLUnsafeLoad,
	})
	Register(Rule{
		ID:       "HARDCODED-SECRET",
		Category: pysrc.CategorySecurity,
		Severity: pysrc.SeverityMedium,
		Summary:  "Credential material assigned as a string literal.",
		Eval:     evalHardcodedSecret,
	})
	Register(Rule{
		ID:       "WEAK-HASH",
		Category: pysrc.CategorySecurity,
		Severity: pysrc.SeverityMedium,
		Summary:  "Use of a cryptographically broken hash function.",
		Eval:     evalWeakHash,
	})
}

var subprocessFuncs = map[string]bool{
	"subprocess.call":         true,
	"subprocess.run":          true,
	"subprocess.Popen":        true,
	"subprocess.check_call":   true,
	"subprocess.check_output": true,
}

func evalSubprocessShell(unit *pysrc.SourceUnit) []pysrc.Finding {
	var out []pysrc.Finding
	walker.Walk(unit.Root, func(n *pysrc.Node, _ *walker.Context) {
		if n.Kind != pysrc.KindCall || !subprocessFuncs[dottedName(n.Func)] {
			return
		}
		for _, kw := range n.Keywords {
			if kw.Name != "shell" {
				continue
			}
			if isTrueConstant(kw.Value) {
				out = append(out, pysrc.Finding{
					Line:       n.Line,
					Col:        n.Col,
					Message:    fmt.Sprintf("Call to '%s' with shell=True. The command line is interpreted by the shell.", dottedName(n.Func)),
					Suggestion: "Pass the command as an argument list and drop shell=True.",
				})
			}
		}
	})
	return out
}

var pickleFuncs = map[string]bool{
	"pickle.load":      true,
	"pickle.loads":     true,
	"pickle.Unpickler": true,
}

func evalPickleLoad(unit *pysrc.SourceUnit) []pysrc.Finding {
	var out []pysrc.Finding
	walker.Walk(unit.Root, func(n *pysrc.Node, _ *walker.Context) {
		if n.Kind != pysrc.KindCall || !pickleFuncs[dottedName(n.Func)] {
			return
		}
		out = append(out, pysrc.Finding{
			Line:       n.Line,
			Col:        n.Col,
			Message:    fmt.Sprintf("Call to '%s'. Unpickling untrusted data executes arbitrary code.", dottedName(n.Func)),
			Suggestion: "Use json or another data-only format for untrusted input.",
		})
	})
	return out
}

func evalYAMLUnsafeLoad(unit *pysrc.SourceUnit) []pysrc.Finding {
	var out []pysrc.Finding
	walker.Walk(unit.Root, func(n *pysrc.Node, _ *walker.Context) {
		if n.Kind != pysrc.KindCall || dottedName(n.Func) != "yaml.load" {
			return
		}
		for _, kw := range n.Keywords {
			if kw.Name == "Loader" && isSafeLoader(kw.Value) {
				return
			}
		}
		// positional Loader argument
		if len(n.Args) >= 2 && isSafeLoader(n.Args[1]) {
			return
		}
		out = append(out, pysrc.Finding{
			Line:       n.Line,
			Col:        n.Col,
			Message:    "Call to 'yaml.load' without a safe loader. Arbitrary Python objects can be constructed from the document.",
			Suggestion: "Use yaml.safe_load, or pass Loader=yaml.SafeLoader.",
		})
	})
	return out
}

func isSafeLoader(n *pysrc.Node) bool {
	switch dottedName(n) {
	case "yaml.SafeLoader", "yaml.CSafeLoader", "SafeLoader", "CSafeLoader":
		return true
	}
	return false
}

var secretNameParts = []string{"password", "passwd", "secret", "token", "api_key", "apikey", "key"}

func evalHardcodedSecret(unit *pysrc.SourceUnit) []pysrc.Finding {
	var out []pysrc.Finding
	walker.Walk(unit.Root, func(n *pysrc.Node, _ *walker.Context) {
		if n.Kind != pysrc.KindAssign {
			return
		}
		v := n.Value
		if v == nil || v.Kind != pysrc.KindConstant || !v.IsStr || v.Literal == "" {
			return
		}
		for _, t := range n.Targets {
			if t.Kind != pysrc.KindName || !looksSecret(t.Name) {
				continue
			}
			out = append(out, pysrc.Finding{
				Line:       n.Line,
				Col:        n.Col,
				Message:    fmt.Sprintf("Variable '%s' is assigned a string literal that looks like a credential.", t.Name),
				Suggestion: "Load secrets from the environment or a secret manager instead of source code.",
			})
		}
	})
	return out
}

func looksSecret(name string) bool {
	lower := strings.ToLower(name)
	for _, part := range secretNameParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

var weakHashFuncs = map[string]string{
	"hashlib.md5":  "md5",
	"hashlib.sha1": "sha1",
}

func evalWeakHash(unit *pysrc.SourceUnit) []pysrc.Finding {
	var out []pysrc.Finding
	walker.Walk(unit.Root, func(n *pysrc.Node, _ *walker.Context) {
		if n.Kind != pysrc.KindCall {
			return
		}
		name := dottedName(n.Func)
		algo, weak := weakHashFuncs[name]
		if !weak && name == "hashlib.new" && len(n.Args) >= 1 {
			arg := n.Args[0]
			if arg.Kind == pysrc.KindConstant && arg.IsStr {
				switch strings.ToLower(arg.Literal) {
				case "md5", "sha1":
					algo, weak = strings.ToLower(arg.Literal), true
				}
			}
		}
		if !weak {
			return
		}
		out = append(out, pysrc.Finding{
			Line:       n.Line,
			Col:        n.Col,
			Message:    fmt.Sprintf("Use of weak hash algorithm '%s'.", algo),
			Suggestion: "Use hashlib.sha256 or stronger for security-sensitive hashing.",
		})
	})
	return out
}
