package cmd

import (
	"fmt"
	"time"

	req "github.com/imroc/req/v3"
	"github.com/skiff-cloud/skiff/pkg/config"
	"github.com/skiff-cloud/skiff/pkg/plan"
	"github.com/skiff-cloud/skiff/pkg/resolve"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Resolve the project's configuration without emitting a plan",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevels(cmd)

		project, err := config.LoadProject(projectFile, stageName)
		if err != nil {
			logger.Error("Could not load project manifest", "err", err)
		}

		p, err := plan.Synthesize(project)
		if err != nil {
			logger.Error("Validation failed", "err", err)
		}

		warnings := 0
		for _, entry := range p.Diagnostics {
			if entry.Severity == resolve.SeverityWarning {
				warnings++
				logger.PrintRed(fmt.Sprintf("[%s] %s", entry.Stage, entry.Message))
			}
		}

		if checkURLs {
			probeExternalTargets(p)
		}

		if warnings == 0 {
			logger.PrintGreen(fmt.Sprintf("Project %q resolved cleanly: %d roles, %d functions, %d REST APIs, %d HTTP APIs",
				p.Project, len(p.Roles), len(p.Functions), len(p.RestAPIs), len(p.HTTPAPIs)))
		} else {
			logger.PrintRed(fmt.Sprintf("Project %q resolved with %d warnings", p.Project, warnings))
		}
	},
}

// probeExternalTargets checks that every external URL integration target
// answers at all. Lambda targets are not probed.
func probeExternalTargets(p *plan.Plan) {
	client := req.C().SetTimeout(10 * time.Second)

	seen := make(map[string]bool)
	for _, api := range p.HTTPAPIs {
		for _, route := range api.Routes {
			for _, binding := range route.Bindings {
				if binding.Integration.Kind != resolve.IntegrationHTTP || seen[binding.Integration.URL] {
					continue
				}
				seen[binding.Integration.URL] = true

				response := client.Get(binding.Integration.URL).Do()
				if response.Err != nil {
					logger.PrintRed(fmt.Sprintf("Integration target %s is unreachable: %v", binding.Integration.URL, response.Err))
					continue
				}
				logger.PrintGreen(fmt.Sprintf("Integration target %s answered with %s", binding.Integration.URL, response.Status))
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
