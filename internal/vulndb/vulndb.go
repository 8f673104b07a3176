// Package vulndb holds the static table of known-vulnerable import
// signatures. The table is loaded once and frozen; rules receive it by
// injection so they stay independently testable.
package vulndb

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed signatures.yaml
var builtinYAML []byte

// MatchExactModulePath is the only match policy this table supports:
// the signature pattern must equal the full dotted module path of the
// import.
const MatchExactModulePath = "exact-module-path"

// Signature is one table entry.
type Signature struct {
	Pattern  string `yaml:"pattern" json:"pattern"`
	Match    string `yaml:"match" json:"match"`
	CVE      string `yaml:"cve" json:"cve"`
	Advisory string `yaml:"advisory" json:"advisory"`
}

// Table is an immutable signature table.
type Table struct {
	sigs  []Signature
	index map[string]int
}

type tableFile struct {
	Signatures []Signature `yaml:"signatures"`
}

// New builds a table from entries, validating the match policy.
func New(sigs []Signature) (*Table, error) {
	t := &Table{index: make(map[string]int, len(sigs))}
	for _, s := range sigs {
		if s.Pattern == "" || s.CVE == "" {
			return nil, fmt.Errorf("vulndb: signature missing pattern or cve")
		}
		if s.Match != "" && s.Match != MatchExactModulePath {
			return nil, fmt.Errorf("vulndb: unsupported match policy %q for %q", s.Match, s.Pattern)
		}
		if _, dup := t.index[s.Pattern]; dup {
			continue
		}
		t.index[s.Pattern] = len(t.sigs)
		t.sigs = append(t.sigs, s)
	}
	return t, nil
}

// Parse reads a YAML signature file.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("vulndb: parse signatures: %w", err)
	}
	return New(f.Signatures)
}

// LoadFile reads a signature table from disk, for deployments that
// track advisories newer than the embedded copy.
func LoadFile(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vulndb: read %s: %w", path, err)
	}
	return Parse(b)
}

var (
	builtinOnce sync.Once
	builtin     *Table
)

// Builtin returns the embedded table, loaded once per process. The
// embedded copy is part of the build; a parse failure here is a
// programming error.
func Builtin() *Table {
	builtinOnce.Do(func() {
		t, err := Parse(builtinYAML)
		if err != nil {
			panic(err)
		}
		builtin = t
	})
	return builtin
}

// Lookup matches a dotted module path against the table.
func (t *Table) Lookup(module string) (Signature, bool) {
	i, ok := t.index[module]
	if !ok {
		return Signature{}, false
	}
	return t.sigs[i], true
}

// Signatures returns the table entries in load order.
func (t *Table) Signatures() []Signature {
	out := make([]Signature, len(t.sigs))
	copy(out, t.sigs)
	return out
}

// Len reports the number of entries.
func (t *Table) Len() int { return len(t.sigs) }
