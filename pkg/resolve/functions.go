package resolve

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/skiff-cloud/skiff/pkg/config"
)

const (
	defaultTimeoutSeconds = 30
	defaultMemorySizeMB   = 128

	basicExecutionPolicyName = "AWSLambdaBasicExecutionRole"
	basicExecutionPolicyArn  = "arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"
)

// supportedRuntimes is ordered newest first; unknown runtime identifiers
// fall back to the first entry.
var supportedRuntimes = []string{
	"python3.13",
	"python3.10",
	"python3.9",
	"python3.8",
	"python3.7",
}

// ResolveFunctions turns loaded function documents into a name-to-entity
// mapping, binding each function to a resolved role. Records with missing
// required fields or a nonexistent code artifact are skipped; an unresolved
// role name falls back to a synthesized basic-execution role.
func ResolveFunctions(docs []config.FunctionDocument, roles map[string]*Role, projectRoot string, diags *Diagnostics) map[string]*Function {
	functions := make(map[string]*Function, len(docs))

	for _, doc := range docs {
		service := doc.Service
		name := service.FunctionName

		if name == "" || service.Handler == "" || service.Runtime == "" || service.ZipFile == "" {
			diags.Warnf("functions", name, "Skipping function config %q due to missing required fields", name)
			continue
		}

		role := resolveFunctionRole(name, service.RoleName, roles, diags)
		runtime := resolveRuntime(name, service.Runtime, diags)

		codePath := service.ZipFile
		if projectRoot != "" && !filepath.IsAbs(codePath) {
			codePath = filepath.Join(projectRoot, codePath)
		}
		if _, err := os.Stat(codePath); err != nil {
			diags.Warnf("functions", name, "Code path %q does not exist for function %q, skipping", codePath, name)
			continue
		}

		timeout := defaultTimeoutSeconds
		if service.Timeout != nil {
			timeout = *service.Timeout
		}
		memory := defaultMemorySizeMB
		if service.MemorySize != nil {
			memory = *service.MemorySize
		}

		description := service.Description
		if description == "" {
			description = "Lambda function " + name
		}

		functions[name] = &Function{
			Name:        name,
			Handler:     service.Handler,
			Runtime:     runtime,
			CodePath:    codePath,
			Role:        role,
			RoleName:    role.Name,
			Timeout:     timeout,
			MemorySize:  memory,
			Environment: service.EnvironmentVariables,
			Description: description,
		}
		diags.Infof("functions", name, "Created Lambda function %q", name)
	}

	diags.Infof("functions", "", "Total Lambda functions created: %d", len(functions))
	return functions
}

func resolveFunctionRole(functionName, roleName string, roles map[string]*Role, diags *Diagnostics) *Role {
	if roleName != "" {
		if role, ok := roles[roleName]; ok {
			diags.Infof("functions", functionName, "Found role %q for function %q", roleName, functionName)
			return role
		}
		diags.Warnf("functions", functionName, "Role %q not found for function %q (available: %s), creating default role", roleName, functionName, strings.Join(sortedRoleNames(roles), ", "))
	} else {
		diags.Warnf("functions", functionName, "No role name declared for function %q, creating default role", functionName)
	}

	return &Role{
		Name:        functionName + "-default-role",
		TrustPolicy: DefaultTrustPolicy(),
		ManagedPolicies: []ManagedPolicy{
			{Name: basicExecutionPolicyName, Arn: basicExecutionPolicyArn},
		},
		Synthesized: true,
	}
}

func resolveRuntime(functionName, runtime string, diags *Diagnostics) string {
	normalized := strings.ToLower(runtime)
	for _, supported := range supportedRuntimes {
		if normalized == supported {
			return supported
		}
	}
	diags.Warnf("functions", functionName, "Unsupported runtime %q for function %q, using %s", runtime, functionName, supportedRuntimes[0])
	return supportedRuntimes[0]
}

func sortedRoleNames(roles map[string]*Role) []string {
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
