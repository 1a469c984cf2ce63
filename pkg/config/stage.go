package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const defaultStage = "dev"

// Project is the parsed project manifest: the lists of configuration
// documents to load plus the selected stage context.
type Project struct {
	Name      string
	Root      string
	Documents Documents
	Stage     StageContext
}

type Documents struct {
	Roles     []string
	Functions []string
	RestAPIs  []string
	HTTPAPIs  []string
}

// StageContext carries the per-stage settings merged with the stage's
// variable map, the way the deployment context file declares them.
type StageContext struct {
	Name      string            `json:"stage_name"`
	Region    string            `json:"region,omitempty"`
	AccountID string            `json:"account_id,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
}

// LoadProject reads a project manifest (skiff.json or skiff.yaml) and
// selects a stage. Stage precedence: explicit argument, STAGE environment
// variable, the manifest's own "stage" key, then "dev".
func LoadProject(manifestPath, stageName string) (*Project, error) {
	v := viper.New()
	v.SetConfigFile(manifestPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read project manifest: %w", err)
	}

	if stageName == "" {
		stageName = os.Getenv("STAGE")
	}
	if stageName == "" {
		stageName = v.GetString("stage")
	}
	if stageName == "" {
		stageName = defaultStage
	}

	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, err
	}
	root := filepath.Dir(abs)

	name := v.GetString("name")
	if name == "" {
		name = filepath.Base(root)
	}

	stageKey := "stages." + stageName
	project := &Project{
		Name: name,
		Root: root,
		Documents: Documents{
			Roles:     v.GetStringSlice("documents.roles"),
			Functions: v.GetStringSlice("documents.functions"),
			RestAPIs:  v.GetStringSlice("documents.rest_apis"),
			HTTPAPIs:  v.GetStringSlice("documents.http_apis"),
		},
		Stage: StageContext{
			Name:      stageName,
			Region:    v.GetString(stageKey + ".region"),
			AccountID: v.GetString(stageKey + ".account_id"),
			Variables: v.GetStringMapString("variables." + stageName),
		},
	}

	if !v.IsSet(stageKey) && stageName != defaultStage {
		return nil, fmt.Errorf("stage %q not declared in %s (known: %s)", stageName, manifestPath, strings.Join(knownStages(v), ", "))
	}

	return project, nil
}

func knownStages(v *viper.Viper) []string {
	stages := v.GetStringMap("stages")
	names := make([]string, 0, len(stages))
	for name := range stages {
		names = append(names, name)
	}
	return names
}
