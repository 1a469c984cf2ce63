package neo4j_connector

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/skiff-cloud/skiff/pkg/io/logging"
)

type Neo4jClient struct {
	Driver neo4j.DriverWithContext
	logger logging.LogManager
}

func Connect(url, username, password string) (*Neo4jClient, error) {
	driver, err := neo4j.NewDriverWithContext(url, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(context.TODO()); err != nil {
		return nil, err
	}
	return &Neo4jClient{Driver: driver, logger: logging.GetLogManager()}, nil
}

func (nc *Neo4jClient) NewSession() neo4j.SessionWithContext {
	return nc.Driver.NewSession(context.TODO(), neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
}

func (nc *Neo4jClient) DeleteAll() {
	session := nc.NewSession()
	defer session.Close(context.TODO())
	_, err := session.ExecuteWrite(context.TODO(), func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(context.TODO(), `MATCH (n) DETACH DELETE n`, nil)
		if err != nil {
			return nil, err
		}
		return result.Consume(context.TODO())
	})
	if err != nil {
		logging.HandleError(err, "Neo4j - DeleteAll", "Error on executing query")
	}
}

func (nc *Neo4jClient) Query(query string, arguments map[string]interface{}) []map[string]interface{} {
	session := nc.NewSession()
	defer session.Close(context.TODO())

	records, err := session.ExecuteRead(context.TODO(), func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(context.TODO(), query, arguments)
		if err != nil {
			return nil, err
		}
		var rows []map[string]interface{}
		for result.Next(context.TODO()) {
			rows = append(rows, result.Record().AsMap())
		}
		return rows, result.Err()
	})
	if err != nil {
		logging.HandleError(err, "Neo4j - Query", "Error on executing query", false)
		return nil
	}
	return records.([]map[string]interface{})
}
