package cmd

import (
	"github.com/skiff-cloud/skiff/pkg/io/logging"
	"github.com/spf13/cobra"
)

const (
	flagVerbose      = "verbose"
	flagDebug        = "debug"
	flagProject      = "config"
	flagStage        = "stage"
	flagAWSProfile   = "aws-profile"
	flagOutputDir    = "output-dir"
	flagOutputFormat = "output-format"
	flagStore        = "store"
	flagCheckURLs    = "check-urls"
	flagInput        = "input"
	flagQuery        = "query"
)

var (
	logger       logging.LogManager
	projectFile  string
	stageName    string
	awsProfile   string
	outputDir    string
	outputFormat string
	storeGraph   bool
	checkURLs    bool
	inputFile    string
	queryExpr    string
	rootCmd      = &cobra.Command{
		Use:   "skiff",
		Short: "Declare serverless AWS infrastructure from JSON configuration documents",
	}
)

func init() {
	logger = logging.GetLogManager()
	rootCmd.PersistentFlags().BoolP(flagVerbose, "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolP(flagDebug, "d", false, "Debug output")

	synthCmd.PersistentFlags().StringVarP(&projectFile, flagProject, "c", "skiff.json", "Project manifest file")
	synthCmd.PersistentFlags().StringVarP(&stageName, flagStage, "s", "", "Deployment stage (default: STAGE env or \"dev\")")
	synthCmd.PersistentFlags().StringVarP(&awsProfile, flagAWSProfile, "p", "", "AWS profile used to fill a missing stage account id")
	synthCmd.PersistentFlags().StringVarP(&outputDir, flagOutputDir, "o", "", "Output folder where the plan will be saved (default: \".\")")
	synthCmd.PersistentFlags().StringVarP(&outputFormat, flagOutputFormat, "f", "json", "Output format: json, zip or csv")
	synthCmd.PersistentFlags().BoolVarP(&storeGraph, flagStore, "", false, "Import the resolved graph into Neo4j")

	validateCmd.PersistentFlags().StringVarP(&projectFile, flagProject, "c", "skiff.json", "Project manifest file")
	validateCmd.PersistentFlags().StringVarP(&stageName, flagStage, "s", "", "Deployment stage (default: STAGE env or \"dev\")")
	validateCmd.PersistentFlags().BoolVarP(&checkURLs, flagCheckURLs, "", false, "Probe external URL integration targets")

	inspectCmd.PersistentFlags().StringVarP(&inputFile, flagInput, "i", "plan.json", "Plan file to query")
	inspectCmd.PersistentFlags().StringVarP(&queryExpr, flagQuery, "q", ".", "gojq expression to run over the plan")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Error executing command", "err", err)
	}
}

func setLogLevels(cmd *cobra.Command) {
	if cmd.Flags().Changed(flagVerbose) {
		logger.SetVerboseLevel()
	}
	if cmd.Flags().Changed(flagDebug) {
		logger.SetDebugLevel()
	}
}
