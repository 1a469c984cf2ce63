package cmd

import (
	"fmt"
	"os"

	"github.com/itchyny/gojq"
	"github.com/ohler55/ojg/oj"
	"github.com/skiff-cloud/skiff/pkg/io/logging"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Run a gojq expression over an emitted plan file",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevels(cmd)

		data, err := os.ReadFile(inputFile)
		if err != nil {
			logger.Error("Could not read plan file", "path", inputFile, "err", err)
		}

		obj, err := oj.Parse(data)
		if err != nil {
			logger.Error("Could not parse plan file", "path", inputFile, "err", err)
		}

		query, err := gojq.Parse(queryExpr)
		if err != nil {
			logger.Error("Invalid query expression", "query", queryExpr, "err", err)
		}

		iter := query.Run(obj)
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, ok := v.(error); ok {
				logger.Error("Query failed", "err", err)
			}
			fmt.Println(string(logging.PrettyJSON(v)))
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
