package fuzz

import (
	"testing"

	"github.com/aideng18/PyWard/internal/parser"
)

// Fuzz the parser with arbitrary content to ensure we never panic.
// Syntax errors are the expected outcome for most inputs; the only
// contract here is "error or tree, never a crash".
func FuzzParseNoPanic(f *testing.F) {
	seeds := []string{
		"import os\nprint(os.sep)\n",
		"def f(a, b=1):\n    return a + b\n",
		"while True:\n    break\n",
		"x = [v for v in data if v]\n",
		"s = 'unterminated\n",
		"'",
		"x = \"",
		"b'",
		"if x:\n  a = 1\n     b = 2\n",
		"\t\tgarbage ((( but should not panic\n",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, src string) {
		unit, err := parser.Parse("fuzz.py", src)
		if err == nil && unit == nil {
			t.Fatal("nil unit without error")
		}
	})
}
