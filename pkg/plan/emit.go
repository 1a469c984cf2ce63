package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/skiff-cloud/skiff/pkg/io/logging"
	"github.com/skiff-cloud/skiff/pkg/resolve"
	"github.com/skiff-cloud/skiff/tools/filesystem/files"
	"github.com/skiff-cloud/skiff/tools/filesystem/zip"
	"github.com/sourcegraph/conc/iter"
)

// Sections splits the plan into the per-concern documents an output format
// writes separately.
func (p *Plan) Sections() map[string]interface{} {
	return map[string]interface{}{
		"Stage":       p.Stage,
		"Roles":       p.Roles,
		"Functions":   p.Functions,
		"RestAPIs":    p.RestAPIs,
		"HTTPAPIs":    p.HTTPAPIs,
		"Diagnostics": p.Diagnostics,
	}
}

// WriteJSON writes one pretty JSON file per plan section plus the combined
// plan.json. Sections are independent files, so they are written in
// parallel; resolution itself finished before any writer starts.
func (p *Plan) WriteJSON(outputDir string) {
	if outputDir == "" {
		outputDir = "."
	}
	today := time.Now().Format("20060102")
	sections := p.Sections()

	keys := make([]string, 0, len(sections))
	for key := range sections {
		keys = append(keys, key)
	}
	iter.ForEach(keys, func(key *string) {
		files.PrettyJSONToFile(outputDir, fmt.Sprintf("%s_%s.json", *key, today), sections[*key])
	})
	files.PrettyJSONToFile(outputDir, "plan.json", p)
}

// WriteZip writes all plan sections into one dated archive.
func (p *Plan) WriteZip(outputDir string) {
	if outputDir == "" {
		outputDir = "."
	}
	sections := p.Sections()
	zip.Zip(outputDir, p.Project, &sections)
}

type functionRow struct {
	Name       string `csv:"function_name"`
	Runtime    string `csv:"runtime"`
	Handler    string `csv:"handler"`
	Role       string `csv:"role"`
	Timeout    int    `csv:"timeout"`
	MemorySize int    `csv:"memory_size"`
	CodePath   string `csv:"code_path"`
}

type routeRow struct {
	API            string `csv:"api"`
	Kind           string `csv:"kind"`
	Method         string `csv:"method"`
	Path           string `csv:"path"`
	Target         string `csv:"target"`
	Authorization  string `csv:"authorization"`
	APIKeyRequired bool   `csv:"api_key_required"`
}

// WriteCSV writes flat function and route summaries.
func (p *Plan) WriteCSV(outputDir string) error {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, os.FileMode(0775)); err != nil {
		return err
	}

	functionRows := make([]functionRow, 0, len(p.Functions))
	for _, name := range sortedNames(p.Functions) {
		fn := p.Functions[name]
		functionRows = append(functionRows, functionRow{
			Name:       fn.Name,
			Runtime:    fn.Runtime,
			Handler:    fn.Handler,
			Role:       fn.RoleName,
			Timeout:    fn.Timeout,
			MemorySize: fn.MemorySize,
			CodePath:   fn.CodePath,
		})
	}

	var routeRows []routeRow
	for _, api := range p.RestAPIs {
		for _, root := range api.Roots {
			routeRows = append(routeRows, restRouteRows(api.Name, root)...)
		}
	}
	for _, api := range p.HTTPAPIs {
		for _, route := range api.Routes {
			for _, binding := range route.Bindings {
				routeRows = append(routeRows, routeRow{
					API:           api.Name,
					Kind:          "http",
					Method:        binding.Method,
					Path:          route.Path,
					Target:        integrationTarget(binding.Integration),
					Authorization: string(binding.AuthorizationType),
				})
			}
		}
	}

	if err := writeCSVFile(filepath.Join(outputDir, "functions.csv"), &functionRows); err != nil {
		return err
	}
	return writeCSVFile(filepath.Join(outputDir, "routes.csv"), &routeRows)
}

func restRouteRows(apiName string, node *resolve.PathNode) []routeRow {
	var rows []routeRow
	for _, binding := range node.Methods {
		rows = append(rows, routeRow{
			API:            apiName,
			Kind:           "rest",
			Method:         binding.Method,
			Path:           node.FullPath,
			Target:         integrationTarget(binding.Integration),
			Authorization:  string(binding.AuthorizationType),
			APIKeyRequired: binding.APIKeyRequired,
		})
	}
	for _, child := range node.Children {
		rows = append(rows, restRouteRows(apiName, child)...)
	}
	return rows
}

func integrationTarget(integration resolve.Integration) string {
	if integration.Kind == resolve.IntegrationHTTP {
		return integration.URL
	}
	return integration.FunctionName
}

func writeCSVFile(path string, rows interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.HandleError(err, "Plan - WriteCSV", "Error closing file", false)
		}
	}()
	return gocsv.MarshalFile(rows, file)
}

func sortedNames(functions map[string]*resolve.Function) []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
