package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiff-cloud/skiff/pkg/config"
)

func testFunctions(names ...string) map[string]*Function {
	functions := make(map[string]*Function, len(names))
	for _, name := range names {
		functions[name] = &Function{Name: name, Runtime: "python3.13"}
	}
	return functions
}

func TestResolveRestAPIDeduplicatesSharedPathPrefixes(t *testing.T) {
	doc := config.RestAPIDocument{
		Name: "coffee-api",
		Resources: map[string]config.ResourceDocument{
			"list": {ResourcePath: "/coffees/list", Methods: []string{"GET"}, FunctionName: "get-coffee"},
			"add":  {ResourcePath: "/coffees/add", Methods: []string{"POST"}, FunctionName: "create-coffee"},
		},
	}

	api := ResolveRestAPI(doc, testFunctions("get-coffee", "create-coffee"), NewDiagnostics())

	require.Len(t, api.Roots, 1, "shared prefix must produce one root")
	root := api.Roots[0]
	assert.Equal(t, "coffees", root.Segment)
	assert.Equal(t, "/coffees", root.FullPath)
	assert.Len(t, root.Children, 2)

	list := api.Node("/coffees/list")
	require.NotNil(t, list)
	require.Len(t, list.Methods, 1)
	assert.Equal(t, "GET", list.Methods[0].Method)
	assert.Equal(t, "get-coffee", list.Methods[0].Integration.FunctionName)
}

func TestResolveRestAPIOptionsBecomesCORSPreflight(t *testing.T) {
	doc := config.RestAPIDocument{
		Name: "coffee-api",
		Resources: map[string]config.ResourceDocument{
			"coffees": {
				ResourcePath: "/coffees",
				Methods:      []string{"GET", "OPTIONS"},
				FunctionName: "get-coffee",
				CORSEnabled:  true,
			},
		},
	}

	api := ResolveRestAPI(doc, testFunctions("get-coffee"), NewDiagnostics())

	node := api.Node("/coffees")
	require.NotNil(t, node)
	require.Len(t, node.Methods, 1, "OPTIONS must not produce a method binding")
	assert.Equal(t, "GET", node.Methods[0].Method)
	require.NotNil(t, node.CORS)
	assert.Equal(t, []string{"*"}, node.CORS.AllowOrigins)
	assert.Contains(t, node.CORS.AllowHeaders, "Authorization")
}

func TestResolveRestAPIAuthorizerBinding(t *testing.T) {
	doc := config.RestAPIDocument{
		Name: "coffee-api",
		Authorizers: map[string]config.AuthorizerDocument{
			"tokenAuth": {FunctionName: "auth-fn"},
		},
		Resources: map[string]config.ResourceDocument{
			"coffees": {
				ResourcePath:  "/coffees",
				Methods:       []string{"GET", "POST"},
				Authorization: map[string]string{"POST": "tokenAuth"},
				FunctionName:  "get-coffee",
			},
		},
	}

	api := ResolveRestAPI(doc, testFunctions("get-coffee", "auth-fn"), NewDiagnostics())

	authorizer := api.Authorizers["tokenAuth"]
	require.NotNil(t, authorizer)
	assert.Equal(t, AuthorizerToken, authorizer.Kind)
	assert.Equal(t, 300, authorizer.ResultTTL)
	require.Len(t, authorizer.IdentitySources, 1)
	assert.Equal(t, IdentityHeader, authorizer.IdentitySources[0].Location)
	assert.Equal(t, "Authorization", authorizer.IdentitySources[0].Name)

	node := api.Node("/coffees")
	require.Len(t, node.Methods, 2)
	for _, binding := range node.Methods {
		switch binding.Method {
		case "POST":
			assert.Equal(t, AuthorizationCustom, binding.AuthorizationType)
			assert.Same(t, authorizer, binding.Authorizer)
		case "GET":
			assert.Equal(t, AuthorizationNone, binding.AuthorizationType)
			assert.Nil(t, binding.Authorizer)
		}
	}
}

func TestResolveRestAPIUnknownAuthorizerFailsOpen(t *testing.T) {
	doc := config.RestAPIDocument{
		Name: "coffee-api",
		Resources: map[string]config.ResourceDocument{
			"coffees": {
				ResourcePath:  "/coffees",
				Methods:       []string{"GET"},
				Authorization: map[string]string{"GET": "ghost"},
				FunctionName:  "get-coffee",
			},
		},
	}

	diags := NewDiagnostics()
	api := ResolveRestAPI(doc, testFunctions("get-coffee"), diags)

	node := api.Node("/coffees")
	require.Len(t, node.Methods, 1)
	assert.Equal(t, AuthorizationNone, node.Methods[0].AuthorizationType)
	assert.NotEmpty(t, diags.Warnings())
}

func TestResolveRestAPIRequestAuthorizerSources(t *testing.T) {
	doc := config.RestAPIDocument{
		Name: "coffee-api",
		Authorizers: map[string]config.AuthorizerDocument{
			"reqAuth": {
				FunctionName: "auth-fn",
				Type:         "request",
				IdentitySource: config.StringOrSlice{
					"method.request.header.X-Api-Key",
					"method.request.querystring.token",
				},
			},
		},
	}

	api := ResolveRestAPI(doc, testFunctions("auth-fn"), NewDiagnostics())

	authorizer := api.Authorizers["reqAuth"]
	require.NotNil(t, authorizer)
	assert.Equal(t, AuthorizerRequest, authorizer.Kind)
	require.Len(t, authorizer.IdentitySources, 2)
	assert.Equal(t, IdentityHeader, authorizer.IdentitySources[0].Location)
	assert.Equal(t, "X-Api-Key", authorizer.IdentitySources[0].Name)
	assert.Equal(t, IdentityQueryString, authorizer.IdentitySources[1].Location)
	assert.Equal(t, "token", authorizer.IdentitySources[1].Name)
}

func TestResolveRestAPIUsagePlanDefaults(t *testing.T) {
	burst := 50
	doc := config.RestAPIDocument{
		Name:      "coffee-api",
		UsagePlan: &config.UsagePlanDocument{BurstLimit: &burst},
	}

	api := ResolveRestAPI(doc, testFunctions(), NewDiagnostics())

	require.NotNil(t, api.UsagePlan)
	assert.Equal(t, "coffee-api-usage-plan", api.UsagePlan.Name)
	assert.Equal(t, float64(100), api.UsagePlan.RateLimit)
	assert.Equal(t, 50, api.UsagePlan.BurstLimit)
	assert.Equal(t, 1000, api.UsagePlan.QuotaLimit)
	assert.Equal(t, "MONTH", api.UsagePlan.QuotaPeriod)
	assert.Equal(t, "dev", api.UsagePlan.Stage)
}

func TestResolveRestAPIEmptyUsagePlanIsAbsent(t *testing.T) {
	doc := config.RestAPIDocument{
		Name:      "coffee-api",
		UsagePlan: &config.UsagePlanDocument{},
	}

	api := ResolveRestAPI(doc, testFunctions(), NewDiagnostics())

	assert.Nil(t, api.UsagePlan, "a plan declaring no limits stays absent")
}

func TestResolveRestAPIUsagePlanInvalidPeriod(t *testing.T) {
	rate := 10.0
	doc := config.RestAPIDocument{
		Name:      "coffee-api",
		StageName: "prod",
		UsagePlan: &config.UsagePlanDocument{RateLimit: &rate, Period: "FORTNIGHT"},
	}

	diags := NewDiagnostics()
	api := ResolveRestAPI(doc, testFunctions(), diags)

	assert.Equal(t, float64(10), api.UsagePlan.RateLimit)
	assert.Equal(t, "MONTH", api.UsagePlan.QuotaPeriod)
	assert.Equal(t, "prod", api.UsagePlan.Stage)
	assert.NotEmpty(t, diags.Warnings())
}

func TestResolveRestAPIMissingFunctionSkipsMethods(t *testing.T) {
	doc := config.RestAPIDocument{
		Name: "coffee-api",
		Resources: map[string]config.ResourceDocument{
			"coffees": {ResourcePath: "/coffees", Methods: []string{"GET"}, FunctionName: "ghost"},
		},
	}

	diags := NewDiagnostics()
	api := ResolveRestAPI(doc, testFunctions("get-coffee"), diags)

	node := api.Node("/coffees")
	require.NotNil(t, node, "the path node is still created")
	assert.Empty(t, node.Methods)
	assert.NotEmpty(t, diags.Warnings())
}

func TestResolveRestAPIRequireAPIKeyPerMethod(t *testing.T) {
	doc := config.RestAPIDocument{
		Name: "coffee-api",
		Resources: map[string]config.ResourceDocument{
			"coffees": {
				ResourcePath:  "/coffees",
				Methods:       []string{"GET", "POST"},
				RequireAPIKey: []string{"post"},
				FunctionName:  "get-coffee",
			},
		},
	}

	api := ResolveRestAPI(doc, testFunctions("get-coffee"), NewDiagnostics())

	node := api.Node("/coffees")
	for _, binding := range node.Methods {
		assert.Equal(t, binding.Method == "POST", binding.APIKeyRequired)
	}
}
