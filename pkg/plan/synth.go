package plan

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/skiff-cloud/skiff/pkg/config"
	"github.com/skiff-cloud/skiff/pkg/resolve"
)

// Plan is the resolved output of a full synthesis run: the name-to-entity
// mappings plus per-group route hierarchies, ready for a provisioner.
type Plan struct {
	Project     string                       `json:"project"`
	Stage       config.StageContext          `json:"stage"`
	Roles       map[string]*resolve.Role     `json:"roles"`
	Functions   map[string]*resolve.Function `json:"functions"`
	RestAPIs    []*resolve.RestAPI           `json:"rest_apis,omitempty"`
	HTTPAPIs    []*resolve.HTTPAPI           `json:"http_apis,omitempty"`
	Diagnostics []resolve.Diagnostic         `json:"diagnostics,omitempty"`
}

// Synthesize runs the resolution pipeline over a project. Stages run
// strictly in order: the loader first (any file failure aborts the whole
// run), then roles, then functions, then each route group against the
// finalized function mapping.
func Synthesize(project *config.Project) (*Plan, error) {
	loader := config.NewLoader(project.Root)
	diags := resolve.NewDiagnostics()

	var errs *multierror.Error

	roleDocs, err := loader.LoadRoleDocuments(project.Documents.Roles)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	functionDocs, err := loader.LoadFunctionDocuments(project.Documents.Functions)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	restDocs, err := loader.LoadRestAPIDocuments(project.Documents.RestAPIs)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	httpDocs, err := loader.LoadHTTPAPIDocuments(project.Documents.HTTPAPIs)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("configuration loading failed: %w", err)
	}

	roles := resolve.ResolveRoles(roleDocs, diags)
	functions := resolve.ResolveFunctions(functionDocs, roles, project.Root, diags)
	applyStageVariables(functions, project.Stage)

	p := &Plan{
		Project:   project.Name,
		Stage:     project.Stage,
		Roles:     roles,
		Functions: functions,
	}
	for _, doc := range restDocs {
		p.RestAPIs = append(p.RestAPIs, resolve.ResolveRestAPI(doc, functions, diags))
	}
	for _, doc := range httpDocs {
		p.HTTPAPIs = append(p.HTTPAPIs, resolve.ResolveHTTPAPI(doc, functions, project.Stage, diags))
	}

	p.Diagnostics = diags.Entries()
	return p, nil
}

// applyStageVariables fills stage variables into each function's
// environment without overriding values the function document sets itself.
func applyStageVariables(functions map[string]*resolve.Function, stage config.StageContext) {
	if len(stage.Variables) == 0 {
		return
	}
	for _, fn := range functions {
		if fn.Environment == nil {
			fn.Environment = make(map[string]string, len(stage.Variables))
		}
		for key, value := range stage.Variables {
			if _, ok := fn.Environment[key]; !ok {
				fn.Environment[key] = value
			}
		}
	}
}
