package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiff-cloud/skiff/pkg/config"
)

func writeArtifact(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("PK"), 0o644))
	return path
}

func functionDoc(name, role, zip string) config.FunctionDocument {
	return config.FunctionDocument{Service: config.FunctionService{
		FunctionName: name,
		RoleName:     role,
		Handler:      "handler.main",
		Runtime:      "python3.13",
		ZipFile:      zip,
	}}
}

func TestResolveFunctionsBindsDeclaredRole(t *testing.T) {
	dir := t.TempDir()
	zip := writeArtifact(t, dir, "code.zip")

	roles := map[string]*Role{"api-role": {Name: "api-role"}}
	diags := NewDiagnostics()
	functions := ResolveFunctions([]config.FunctionDocument{functionDoc("create-coffee", "api-role", zip)}, roles, "", diags)

	require.Contains(t, functions, "create-coffee")
	fn := functions["create-coffee"]
	assert.Same(t, roles["api-role"], fn.Role)
	assert.Equal(t, "api-role", fn.RoleName)
	assert.Equal(t, 30, fn.Timeout)
	assert.Equal(t, 128, fn.MemorySize)
	assert.Equal(t, "Lambda function create-coffee", fn.Description)
}

func TestResolveFunctionsSynthesizesDefaultRole(t *testing.T) {
	dir := t.TempDir()
	zip := writeArtifact(t, dir, "code.zip")

	diags := NewDiagnostics()
	functions := ResolveFunctions([]config.FunctionDocument{functionDoc("orphan", "ghost-role", zip)}, map[string]*Role{}, "", diags)

	require.Contains(t, functions, "orphan")
	role := functions["orphan"].Role
	assert.Equal(t, "orphan-default-role", role.Name)
	assert.True(t, role.Synthesized)
	require.Len(t, role.ManagedPolicies, 1)
	assert.Equal(t, "AWSLambdaBasicExecutionRole", role.ManagedPolicies[0].Name)
	assert.NotEmpty(t, diags.Warnings())
}

func TestResolveFunctionsRuntimeFallback(t *testing.T) {
	dir := t.TempDir()
	zip := writeArtifact(t, dir, "code.zip")

	doc := functionDoc("legacy", "", zip)
	doc.Service.Runtime = "python2.7"
	diags := NewDiagnostics()
	functions := ResolveFunctions([]config.FunctionDocument{doc}, map[string]*Role{}, "", diags)

	assert.Equal(t, "python3.13", functions["legacy"].Runtime)
}

func TestResolveFunctionsNormalizesRuntimeCase(t *testing.T) {
	dir := t.TempDir()
	zip := writeArtifact(t, dir, "code.zip")

	doc := functionDoc("cased", "", zip)
	doc.Service.Runtime = "Python3.9"
	functions := ResolveFunctions([]config.FunctionDocument{doc}, map[string]*Role{}, "", NewDiagnostics())

	assert.Equal(t, "python3.9", functions["cased"].Runtime)
}

func TestResolveFunctionsSkipsMissingArtifact(t *testing.T) {
	diags := NewDiagnostics()
	functions := ResolveFunctions([]config.FunctionDocument{functionDoc("no-code", "", "/nonexistent/code.zip")}, map[string]*Role{}, "", diags)

	assert.Empty(t, functions)
	require.NotEmpty(t, diags.Warnings())
	assert.Contains(t, diags.Warnings()[len(diags.Warnings())-1].Message, "does not exist")
}

func TestResolveFunctionsSkipsIncompleteDocument(t *testing.T) {
	doc := config.FunctionDocument{Service: config.FunctionService{FunctionName: "partial", Runtime: "python3.13"}}
	diags := NewDiagnostics()
	functions := ResolveFunctions([]config.FunctionDocument{doc}, map[string]*Role{}, "", diags)

	assert.Empty(t, functions)
	assert.NotEmpty(t, diags.Warnings())
}

func TestResolveFunctionsResolvesRelativeArtifactAgainstRoot(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "code.zip")

	functions := ResolveFunctions([]config.FunctionDocument{functionDoc("relative", "", "code.zip")}, map[string]*Role{}, dir, NewDiagnostics())

	require.Contains(t, functions, "relative")
	assert.Equal(t, filepath.Join(dir, "code.zip"), functions["relative"].CodePath)
}

func TestResolveFunctionsHonorsDeclaredSizing(t *testing.T) {
	dir := t.TempDir()
	zip := writeArtifact(t, dir, "code.zip")

	timeout, memory := 90, 512
	doc := functionDoc("sized", "", zip)
	doc.Service.Timeout = &timeout
	doc.Service.MemorySize = &memory
	doc.Service.Description = "Creates coffee records"
	functions := ResolveFunctions([]config.FunctionDocument{doc}, map[string]*Role{}, "", NewDiagnostics())

	fn := functions["sized"]
	assert.Equal(t, 90, fn.Timeout)
	assert.Equal(t, 512, fn.MemorySize)
	assert.Equal(t, "Creates coffee records", fn.Description)
}
