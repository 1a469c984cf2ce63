package cmd

import (
	"strings"
	"time"

	"github.com/skiff-cloud/skiff/pkg/config"
	awsconfig "github.com/skiff-cloud/skiff/pkg/config/aws"
	"github.com/skiff-cloud/skiff/pkg/connector"
	"github.com/skiff-cloud/skiff/pkg/plan"
	"github.com/spf13/cobra"
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Resolve the project's configuration documents into a provisioning plan",
	Run: func(cmd *cobra.Command, args []string) {
		startTime := time.Now()
		setLogLevels(cmd)

		project, err := config.LoadProject(projectFile, stageName)
		if err != nil {
			logger.Error("Could not load project manifest", "err", err)
		}

		if project.Stage.AccountID == "" && awsProfile != "" {
			awsCfg := awsconfig.InitAWSConfiguration(awsProfile)
			project.Stage.AccountID = awsCfg.AccountID()
		}

		p, err := plan.Synthesize(project)
		if err != nil {
			logger.Error("Synthesis aborted", "err", err)
		}

		saveResults(p, outputDir, outputFormat)

		if storeGraph {
			storageConnector := connector.NewStorageConnector().FlushAll()
			storageConnector.ImportPlan(p)
		}

		logger.Info("Execution Time", "seconds", time.Since(startTime))
	},
}

func saveResults(p *plan.Plan, outputDir string, outputFormat string) {
	switch strings.ToLower(outputFormat) {
	case "zip":
		p.WriteZip(outputDir)
	case "csv":
		if err := p.WriteCSV(outputDir); err != nil {
			logger.Error("Could not write CSV summary", "err", err)
		}
	default:
		p.WriteJSON(outputDir)
	}

	for _, entry := range p.Diagnostics {
		logger.Info(entry.Message, "stage", entry.Stage, "entity", entry.Entity)
	}
}

func init() {
	rootCmd.AddCommand(synthCmd)
}
