package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aideng18/PyWard/internal/vulndb"
)

func TestDangerousCall(t *testing.T) {
	src := `
eval(user_input)
exec(code)
result = eval("1+1")
safe.eval(x)
`
	fs := byRule(evalAll(t, src), "DANGEROUS-CALL")
	require.Len(t, fs, 3)
	assert.Equal(t, 2, fs[0].Line)
	assert.Equal(t, 3, fs[1].Line)
	assert.Equal(t, 4, fs[2].Line)
	assert.Contains(t, fs[0].Message, "'eval'")
	assert.Contains(t, fs[1].Message, "'exec'")
	for _, f := range fs {
		assert.Equal(t, "CVE-2025-3248", f.CVE)
		assert.Equal(t, "HIGH", f.Severity)
	}
}

func TestVulnerableImportBuiltinTable(t *testing.T) {
	src := `
import ctx
import requests
from python_json_logger import jsonlogger
`
	fs := byRule(evalAll(t, src), "VULNERABLE-IMPORT")
	require.Len(t, fs, 2)
	assert.Equal(t, "CVE-2022-30877", fs[0].CVE)
	assert.Contains(t, fs[0].Message, "'ctx'")
	assert.Equal(t, "CVE-2025-27607", fs[1].CVE)
	assert.Contains(t, fs[1].Message, "'python_json_logger'")
}

func TestVulnerableImportInjectedTable(t *testing.T) {
	table, err := vulndb.New([]vulndb.Signature{
		{Pattern: "leftpad", CVE: "CVE-2099-0001", Advisory: "Do not use."},
	})
	require.NoError(t, err)
	rule := NewVulnerableImportRule(table)

	fs := rule.Eval(parseUnit(t, "import leftpad\nimport ctx\n"))
	require.Len(t, fs, 1)
	assert.Equal(t, 1, fs[0].Line)
	assert.Contains(t, fs[0].Message, "CVE-2099-0001")
}

func TestSubprocessShellTrue(t *testing.T) {
	src := `
import subprocess
subprocess.run(cmd, shell=True)
subprocess.call(cmd, shell=False)
subprocess.Popen(cmd)
subprocess.check_output(cmd, shell=True)
`
	fs := byRule(evalAll(t, src), "SUBPROCESS-SHELL-TRUE")
	require.Len(t, fs, 2)
	assert.Equal(t, 3, fs[0].Line)
	assert.Equal(t, 6, fs[1].Line)
	assert.Contains(t, fs[0].Message, "'subprocess.run'")
}

func TestPickleLoad(t *testing.T) {
	src := `
import pickle
data = pickle.load(fh)
data = pickle.loads(blob)
p = pickle.Unpickler(fh)
pickle.dumps(obj)
`
	fs := byRule(evalAll(t, src), "PICKLE-LOAD")
	require.Len(t, fs, 3)
	assert.Equal(t, []int{3, 4, 5}, []int{fs[0].Line, fs[1].Line, fs[2].Line})
}

func TestYAMLUnsafeLoad(t *testing.T) {
	src := `
import yaml
a = yaml.load(doc)
b = yaml.load(doc, Loader=yaml.SafeLoader)
c = yaml.load(doc, yaml.CSafeLoader)
d = yaml.load(doc, Loader=yaml.FullLoader)
e = yaml.safe_load(doc)
`
	fs := byRule(evalAll(t, src), "YAML-UNSAFE-LOAD")
	require.Len(t, fs, 2)
	assert.Equal(t, 3, fs[0].Line)
	assert.Equal(t, 6, fs[1].Line)
}

func TestHardcodedSecret(t *testing.T) {
	src := `
password = "hunter2"
api_key = "sk-123456"
db_passwd = "x"
token = ""
timeout = "30s"
secret = fetch_secret()
`
	fs := byRule(evalAll(t, src), "HARDCODED-SECRET")
	require.Len(t, fs, 3)
	assert.Equal(t, 2, fs[0].Line)
	assert.Equal(t, 3, fs[1].Line)
	assert.Equal(t, 4, fs[2].Line)
	assert.Contains(t, fs[0].Message, "'password'")
}

func TestWeakHash(t *testing.T) {
	src := `
import hashlib
h1 = hashlib.md5(data)
h2 = hashlib.sha1(data)
h3 = hashlib.sha256(data)
h4 = hashlib.new("MD5")
h5 = hashlib.new("sha512")
`
	fs := byRule(evalAll(t, src), "WEAK-HASH")
	require.Len(t, fs, 3)
	assert.Contains(t, fs[0].Message, "'md5'")
	assert.Contains(t, fs[1].Message, "'sha1'")
	assert.Equal(t, 6, fs[2].Line)
	for _, f := range fs {
		assert.Equal(t, "MEDIUM", f.Severity)
	}
}
