package connector

import (
	"os"

	neo4jconnector "github.com/skiff-cloud/skiff/pkg/connector/services/neo4j"
	"github.com/skiff-cloud/skiff/pkg/io/logging"
	"github.com/skiff-cloud/skiff/pkg/plan"
)

type StorageConnector struct {
	Client neo4jconnector.Neo4jClient
}

func NewStorageConnector() *StorageConnector {
	neo4jURL := os.Getenv("NEO4J_URL")
	neo4jUsername := "neo4j"
	neo4jPassword := os.Getenv("PASSWORD")
	client, err := neo4jconnector.Connect(neo4jURL, neo4jUsername, neo4jPassword)
	if err != nil {
		logging.HandleError(err, "NewStorageConnector", "Error connecting to database")
	}
	connector := &StorageConnector{
		Client: *client,
	}
	return connector
}

func (sc *StorageConnector) FlushAll() *StorageConnector {
	sc.Client.DeleteAll()
	return sc
}

// ImportPlan stores a resolved plan as a role -> function -> route graph.
// Entities go in dependency order so links always find their target.
func (sc *StorageConnector) ImportPlan(p *plan.Plan) {
	logger := logging.GetLogManager()
	logger.Info("Importing plan", "project", p.Project, "stage", p.Stage.Name)

	sc.Client.AddRoles(p.Roles)
	sc.Client.AddFunctions(p.Functions)
	sc.Client.AddRestAPIs(p.RestAPIs)
	sc.Client.AddHTTPAPIs(p.HTTPAPIs)

	logger.Info("Imported plan", "project", p.Project)
}

func (sc *StorageConnector) Query(query string, arguments map[string]interface{}) []map[string]interface{} {
	return sc.Client.Query(query, arguments)
}
