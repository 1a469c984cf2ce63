package plan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiff-cloud/skiff/pkg/config"
	"github.com/skiff-cloud/skiff/pkg/resolve"
)

func writeProjectFile(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
}

// testProject lays out a small but complete project on disk: one role, two
// functions, one REST group and one simple-routing group.
func testProject(t *testing.T) *config.Project {
	t.Helper()
	root := t.TempDir()

	writeProjectFile(t, root, "code.zip", "PK")
	writeProjectFile(t, root, "role.json", `{
		"role_name": "coffee-role",
		"managed_policies": {"basic": "arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"}
	}`)
	writeProjectFile(t, root, "create.json", `{
		"service": {
			"function_name": "create-coffee",
			"role_name": "coffee-role",
			"handler": "create.handler",
			"runtime": "python3.13",
			"zip_file": "code.zip"
		}
	}`)
	writeProjectFile(t, root, "get.json", `{
		"service": {
			"function_name": "get-coffee",
			"handler": "get.handler",
			"runtime": "python3.13",
			"zip_file": "code.zip",
			"environment_variables": {"tableName": "CoffeeShop"}
		}
	}`)
	writeProjectFile(t, root, "rest.json", `{
		"name": "coffee-rest",
		"resources": {
			"list": {"resource_path": "/coffees/list", "methods": ["GET"], "function_name": "get-coffee"},
			"add": {"resource_path": "/coffees/add", "methods": ["POST"], "function_name": "create-coffee"}
		}
	}`)
	writeProjectFile(t, root, "http.json", `{
		"name": "coffee-http",
		"routes": {
			"get-coffee": {"resource_path": "/coffees", "methods": ["GET"]}
		}
	}`)

	return &config.Project{
		Name: "coffee-shop",
		Root: root,
		Documents: config.Documents{
			Roles:     []string{"role.json"},
			Functions: []string{"create.json", "get.json"},
			RestAPIs:  []string{"rest.json"},
			HTTPAPIs:  []string{"http.json"},
		},
		Stage: config.StageContext{
			Name:      "dev",
			Region:    "eu-west-1",
			AccountID: "123456789012",
		},
	}
}

func TestSynthesizeFullProject(t *testing.T) {
	p, err := Synthesize(testProject(t))
	require.NoError(t, err)

	assert.Equal(t, "coffee-shop", p.Project)
	require.Contains(t, p.Roles, "coffee-role")
	require.Len(t, p.Functions, 2)

	create := p.Functions["create-coffee"]
	assert.Equal(t, "coffee-role", create.RoleName)
	assert.False(t, create.Role.Synthesized)

	get := p.Functions["get-coffee"]
	assert.Equal(t, "get-coffee-default-role", get.RoleName)
	assert.True(t, get.Role.Synthesized)

	require.Len(t, p.RestAPIs, 1)
	rest := p.RestAPIs[0]
	require.Len(t, rest.Roots, 1, "shared /coffees prefix collapses to one root")
	assert.NotNil(t, rest.Node("/coffees/list"))
	assert.NotNil(t, rest.Node("/coffees/add"))

	require.Len(t, p.HTTPAPIs, 1)
	route := p.HTTPAPIs[0].Route("get-coffee")
	require.NotNil(t, route)
	assert.Equal(t, resolve.IntegrationLambda, route.Bindings[0].Integration.Kind)
	assert.Equal(t, "get-coffee", route.Bindings[0].Integration.FunctionName)
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	project := testProject(t)

	first, err := Synthesize(project)
	require.NoError(t, err)
	second, err := Synthesize(project)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestSynthesizeAppliesStageVariables(t *testing.T) {
	project := testProject(t)
	project.Stage.Variables = map[string]string{
		"tableName": "OverrideTable",
		"logLevel":  "debug",
	}

	p, err := Synthesize(project)
	require.NoError(t, err)

	get := p.Functions["get-coffee"]
	assert.Equal(t, "CoffeeShop", get.Environment["tableName"], "document value wins over stage variable")
	assert.Equal(t, "debug", get.Environment["logLevel"])

	create := p.Functions["create-coffee"]
	assert.Equal(t, "OverrideTable", create.Environment["tableName"])
}

func TestSynthesizeAbortsOnLoadFailure(t *testing.T) {
	project := testProject(t)
	project.Documents.Functions = append(project.Documents.Functions, "missing.json")

	p, err := Synthesize(project)
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "configuration loading failed")
	assert.Contains(t, err.Error(), "missing.json")
}

func TestSynthesizeSurvivesUnnamedFunctionDocs(t *testing.T) {
	project := testProject(t)
	unnamed := `{"service": {"handler": "x.main", "runtime": "python3.13", "zip_file": "code.zip"}}`
	writeProjectFile(t, project.Root, "unnamed-a.json", unnamed)
	writeProjectFile(t, project.Root, "unnamed-b.json", unnamed)
	project.Documents.Functions = append(project.Documents.Functions, "unnamed-a.json", "unnamed-b.json")

	p, err := Synthesize(project)
	require.NoError(t, err, "unnamed function documents must not abort the run")
	assert.Len(t, p.Functions, 2, "only the named functions resolve")

	var skips int
	for _, d := range p.Diagnostics {
		if d.Severity == resolve.SeverityWarning && strings.Contains(d.Message, "missing required fields") {
			skips++
		}
	}
	assert.Equal(t, 2, skips, "each unnamed document leaves its own skip diagnostic")
}

func TestSynthesizeRecordsDiagnostics(t *testing.T) {
	p, err := Synthesize(testProject(t))
	require.NoError(t, err)

	require.NotEmpty(t, p.Diagnostics)
	var warned bool
	for _, d := range p.Diagnostics {
		if d.Severity == resolve.SeverityWarning && d.Entity == "get-coffee" {
			warned = true
		}
	}
	assert.True(t, warned, "the synthesized default role leaves a warning behind")
}
