package neo4j_connector

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/notdodo/goflat/v2"
	"github.com/ohler55/ojg/oj"
	"github.com/skiff-cloud/skiff/pkg/io/logging"
	"github.com/skiff-cloud/skiff/pkg/resolve"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AddRoles stores role entities with their managed and inline policies.
func (nc *Neo4jClient) AddRoles(roles map[string]*resolve.Role) {
	for _, role := range roles {
		idRole := nc.mergeNode("Role", "RoleName", role.Name, flatObject(role))
		for _, managed := range role.ManagedPolicies {
			nc.attachPolicy(idRole, managed.Name, managed.Arn, "attached")
		}
		for name := range role.InlinePolicies {
			nc.attachPolicy(idRole, name, "", "inline")
		}
	}
}

// AddFunctions stores function entities and links each to its role.
func (nc *Neo4jClient) AddFunctions(functions map[string]*resolve.Function) {
	for _, fn := range functions {
		idFunction := nc.mergeNode("Function", "FunctionName", fn.Name, flatObject(fn))
		if fn.Role != nil && fn.Role.Synthesized {
			// Synthesized default roles exist only through their function.
			nc.mergeNode("Role", "RoleName", fn.Role.Name, flatObject(fn.Role))
		}
		nc.link(idFunction, "Role", "RoleName", fn.RoleName, "ASSUMES")
	}
}

// AddRestAPIs stores each REST group's path tree, method bindings and
// authorizers.
func (nc *Neo4jClient) AddRestAPIs(apis []*resolve.RestAPI) {
	for _, api := range apis {
		idAPI := nc.mergeNode("RestAPI", "Name", api.Name, map[string]interface{}{
			"Description": api.Description,
			"StageName":   api.StageName,
		})
		for _, authorizer := range api.Authorizers {
			idAuthorizer := nc.mergeNode("Authorizer", "Name", authorizer.Name, flatObject(authorizer))
			nc.link(idAuthorizer, "Function", "FunctionName", authorizer.FunctionName, "BACKED_BY")
			nc.linkByID(idAPI, idAuthorizer, "DECLARES")
		}
		for _, root := range api.Roots {
			nc.addPathNode(idAPI, api.Name, root)
		}
	}
}

// AddHTTPAPIs stores each simple-routing group's routes and authorizers.
func (nc *Neo4jClient) AddHTTPAPIs(apis []*resolve.HTTPAPI) {
	titler := cases.Title(language.English)
	for _, api := range apis {
		idAPI := nc.mergeNode("HttpAPI", "Name", api.Name, map[string]interface{}{"StageName": api.StageName})
		for _, authorizer := range api.Authorizers {
			idAuthorizer := nc.mergeNode("Authorizer", "Name", authorizer.Name, flatObject(authorizer))
			nc.link(idAuthorizer, "Function", "FunctionName", authorizer.FunctionName, "BACKED_BY")
			nc.linkByID(idAPI, idAuthorizer, "DECLARES")
		}
		for _, route := range api.Routes {
			for _, binding := range route.Bindings {
				key := fmt.Sprintf("%s %s", binding.Method, route.Path)
				idRoute := nc.mergeNode("Route", "RouteKey", key, map[string]interface{}{
					"Name":              route.Name,
					"Path":              route.Path,
					"Method":            binding.Method,
					"AuthorizationType": string(binding.AuthorizationType),
					"IntegrationKind":   titler.String(string(binding.Integration.Kind)),
				})
				nc.linkByID(idAPI, idRoute, "EXPOSES")
				if binding.Integration.Kind == resolve.IntegrationLambda {
					nc.link(idRoute, "Function", "FunctionName", binding.Integration.FunctionName, "INTEGRATES")
				}
				if binding.AuthorizerName != "" {
					nc.link(idRoute, "Authorizer", "Name", binding.AuthorizerName, "AUTHORIZED_BY")
				}
			}
		}
	}
}

func (nc *Neo4jClient) addPathNode(idParent int64, apiName string, node *resolve.PathNode) {
	idNode := nc.mergeNode("Resource", "FullPath", apiName+node.FullPath, map[string]interface{}{
		"API":     apiName,
		"Segment": node.Segment,
		"Path":    node.FullPath,
	})
	nc.linkByID(idParent, idNode, "PARENT_OF")
	for _, binding := range node.Methods {
		key := fmt.Sprintf("%s %s", binding.Method, node.FullPath)
		idMethod := nc.mergeNode("Method", "RouteKey", apiName+" "+key, map[string]interface{}{
			"Method":            binding.Method,
			"Path":              node.FullPath,
			"AuthorizationType": string(binding.AuthorizationType),
			"APIKeyRequired":    binding.APIKeyRequired,
		})
		nc.linkByID(idNode, idMethod, "HAS_METHOD")
		nc.link(idMethod, "Function", "FunctionName", binding.Integration.FunctionName, "INTEGRATES")
		if binding.AuthorizerName != "" {
			nc.link(idMethod, "Authorizer", "Name", binding.AuthorizerName, "AUTHORIZED_BY")
		}
	}
	for _, child := range node.Children {
		nc.addPathNode(idNode, apiName, child)
	}
}

func (nc *Neo4jClient) attachPolicy(idRole int64, name, arn, policyType string) {
	session := nc.NewSession()
	defer session.Close(context.TODO())
	query := `MERGE (p:Policy {Name: $Name, Type: $Type, Arn: $Arn})
		WITH p
		MATCH (r:Role) WHERE id(r) = $idRole
		MERGE (r)-[:HAS_POLICY]->(p)`

	_, err := session.ExecuteWrite(context.TODO(), func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(context.TODO(), query, map[string]interface{}{
			"idRole": idRole,
			"Name":   name,
			"Type":   policyType,
			"Arn":    arn,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(context.TODO())
	})
	if err != nil {
		logging.HandleError(err, "Neo4j - attachPolicy", fmt.Sprintf("Error on executing query %s", query))
	}
}

func (nc *Neo4jClient) mergeNode(label, keyProperty, keyValue string, properties map[string]interface{}) int64 {
	session := nc.NewSession()
	defer session.Close(context.TODO())
	query := fmt.Sprintf(`MERGE (n:%s {%s: $key}) SET n += $props RETURN id(n)`, label, keyProperty)

	idNode, err := session.ExecuteWrite(context.TODO(), func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(context.TODO(), query, map[string]interface{}{
			"key":   keyValue,
			"props": properties,
		})
		if err != nil {
			return nil, err
		}
		result.Next(context.TODO())
		return result.Record().Values[0].(int64), result.Err()
	})
	if err != nil {
		logging.HandleError(err, "Neo4j - mergeNode", fmt.Sprintf("Error on executing query %s", query))
	}
	return idNode.(int64)
}

func (nc *Neo4jClient) link(idFrom int64, label, keyProperty, keyValue, relation string) {
	session := nc.NewSession()
	defer session.Close(context.TODO())
	query := fmt.Sprintf(`MATCH (from) WHERE id(from) = $idFrom
		MATCH (to:%s {%s: $key})
		MERGE (from)-[:%s]->(to)`, label, keyProperty, relation)

	_, err := session.ExecuteWrite(context.TODO(), func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(context.TODO(), query, map[string]interface{}{
			"idFrom": idFrom,
			"key":    keyValue,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(context.TODO())
	})
	if err != nil {
		logging.HandleError(err, "Neo4j - link", fmt.Sprintf("Error on executing query %s", query))
	}
}

func (nc *Neo4jClient) linkByID(idFrom, idTo int64, relation string) {
	session := nc.NewSession()
	defer session.Close(context.TODO())
	query := fmt.Sprintf(`MATCH (from) WHERE id(from) = $idFrom
		MATCH (to) WHERE id(to) = $idTo
		MERGE (from)-[:%s]->(to)`, relation)

	_, err := session.ExecuteWrite(context.TODO(), func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(context.TODO(), query, map[string]interface{}{
			"idFrom": idFrom,
			"idTo":   idTo,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(context.TODO())
	})
	if err != nil {
		logging.HandleError(err, "Neo4j - linkByID", fmt.Sprintf("Error on executing query %s", query))
	}
}

// flatObject flattens an entity into primitive node properties.
func flatObject(o interface{}) map[string]interface{} {
	jsonString, _ := oj.Marshal(o)
	flat, _ := goflat.FlatJSON(string(jsonString), goflat.FlattenerConfig{
		Prefix:    "",
		Separator: "_",
		OmitNil:   true,
		OmitEmpty: true,
	})
	flatObject := make(map[string]interface{})
	_ = oj.Unmarshal([]byte(flat), &flatObject)
	return flatObject
}
