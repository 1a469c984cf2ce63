package resolve

import (
	"fmt"

	"github.com/skiff-cloud/skiff/pkg/config"
)

// Role is a resolved IAM role entity.
type Role struct {
	Name            string                           `json:"role_name"`
	TrustPolicy     config.PolicyDocument            `json:"trust_policy"`
	ManagedPolicies []ManagedPolicy                  `json:"managed_policies,omitempty"`
	InlinePolicies  map[string]config.PolicyDocument `json:"inline_policies,omitempty"`
	Synthesized     bool                             `json:"synthesized,omitempty"`
}

type ManagedPolicy struct {
	Name string `json:"name"`
	Arn  string `json:"arn"`
}

// Function is a resolved Lambda function entity, bound to its role, runtime
// and code artifact.
type Function struct {
	Name        string            `json:"function_name"`
	Handler     string            `json:"handler"`
	Runtime     string            `json:"runtime"`
	CodePath    string            `json:"code_path"`
	Role        *Role             `json:"-"`
	RoleName    string            `json:"role_name"`
	Timeout     int               `json:"timeout"`
	MemorySize  int               `json:"memory_size"`
	Environment map[string]string `json:"environment,omitempty"`
	Description string            `json:"description,omitempty"`
}

// ARN returns the function ARN for a stage, empty when the stage carries no
// region or account.
func (f *Function) ARN(stage config.StageContext) string {
	if stage.Region == "" || stage.AccountID == "" {
		return ""
	}
	return fmt.Sprintf("arn:aws:lambda:%s:%s:function:%s", stage.Region, stage.AccountID, f.Name)
}

type AuthorizerKind string

const (
	AuthorizerToken   AuthorizerKind = "TOKEN"
	AuthorizerRequest AuthorizerKind = "REQUEST"
)

type IdentitySourceLocation string

const (
	IdentityHeader      IdentitySourceLocation = "header"
	IdentityQueryString IdentitySourceLocation = "querystring"
)

type IdentitySource struct {
	Location IdentitySourceLocation `json:"location"`
	Name     string                 `json:"name"`
	Source   string                 `json:"source"`
}

// Authorizer is a resolved gateway authorizer backed by a function.
type Authorizer struct {
	Name            string           `json:"name"`
	Kind            AuthorizerKind   `json:"kind"`
	Function        *Function        `json:"-"`
	FunctionName    string           `json:"function_name"`
	IdentitySources []IdentitySource `json:"identity_sources"`
	ResultTTL       int              `json:"ttl_seconds"`
	// URI is the authorizer's invocation ARN, empty when the stage lacks a
	// region or account.
	URI string `json:"uri,omitempty"`
	// PayloadFormatVersion is set for HTTP API authorizers only.
	PayloadFormatVersion string `json:"payload_format_version,omitempty"`
}

type IntegrationKind string

const (
	IntegrationLambda IntegrationKind = "lambda"
	IntegrationHTTP   IntegrationKind = "http"
)

// Integration is the tagged target a method binding forwards to: either a
// resolved function or a raw external URL.
type Integration struct {
	Kind         IntegrationKind `json:"kind"`
	Function     *Function       `json:"-"`
	FunctionName string          `json:"function_name,omitempty"`
	URL          string          `json:"url,omitempty"`
	// Method is the upstream HTTP method for http-proxy integrations.
	Method string `json:"method,omitempty"`
	URI    string `json:"uri,omitempty"`
}

type AuthorizationType string

const (
	AuthorizationNone   AuthorizationType = "NONE"
	AuthorizationCustom AuthorizationType = "CUSTOM"
)

// MethodBinding binds one HTTP method of a resource or route to an
// integration, with at most one authorizer.
type MethodBinding struct {
	Method            string            `json:"method"`
	Integration       Integration       `json:"integration"`
	Authorizer        *Authorizer       `json:"-"`
	AuthorizerName    string            `json:"authorizer,omitempty"`
	AuthorizationType AuthorizationType `json:"authorization_type"`
	APIKeyRequired    bool              `json:"api_key_required,omitempty"`
}

// PathNode is one segment in a REST API's deduplicated resource tree.
// Resources that share a path prefix share the nodes for that prefix.
type PathNode struct {
	Segment  string           `json:"segment"`
	FullPath string           `json:"full_path"`
	Children []*PathNode      `json:"children,omitempty"`
	Methods  []*MethodBinding `json:"methods,omitempty"`
	CORS     *CORSPreflight   `json:"cors,omitempty"`
}

// CORSPreflight is the OPTIONS handling attached to a CORS-enabled resource
// in place of an explicit OPTIONS method binding.
type CORSPreflight struct {
	AllowOrigins []string `json:"allow_origins"`
	AllowMethods []string `json:"allow_methods"`
	AllowHeaders []string `json:"allow_headers"`
}

type UsagePlan struct {
	Name        string  `json:"name"`
	RateLimit   float64 `json:"rate_limit"`
	BurstLimit  int     `json:"burst_limit"`
	QuotaLimit  int     `json:"quota_limit"`
	QuotaPeriod string  `json:"quota_period"`
	Stage       string  `json:"stage"`
}

// RestAPI is a resolved REST-style gateway: a deduplicated path tree with
// bound methods, the group's authorizers and an optional usage plan.
type RestAPI struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	StageName   string                 `json:"stage_name"`
	Roots       []*PathNode            `json:"resources,omitempty"`
	Authorizers map[string]*Authorizer `json:"authorizers,omitempty"`
	UsagePlan   *UsagePlan             `json:"usage_plan,omitempty"`
}

// Node returns the path node for a normalized path, or nil.
func (api *RestAPI) Node(fullPath string) *PathNode {
	var find func(nodes []*PathNode) *PathNode
	find = func(nodes []*PathNode) *PathNode {
		for _, node := range nodes {
			if node.FullPath == fullPath {
				return node
			}
			if found := find(node.Children); found != nil {
				return found
			}
		}
		return nil
	}
	return find(api.Roots)
}

// Route is one resolved simple-routing entry: independent, flat and keyed
// per method as "METHOD /path".
type Route struct {
	Name     string           `json:"name"`
	Path     string           `json:"path"`
	Bindings []*MethodBinding `json:"bindings"`
}

// HTTPAPI is a resolved simple-routing gateway.
type HTTPAPI struct {
	Name        string                 `json:"name"`
	CORS        map[string]interface{} `json:"cors,omitempty"`
	StageName   string                 `json:"stage_name"`
	AutoDeploy  bool                   `json:"auto_deploy"`
	Authorizers map[string]*Authorizer `json:"authorizers,omitempty"`
	Routes      []*Route               `json:"routes,omitempty"`
}

// Route returns the named route, or nil.
func (api *HTTPAPI) Route(name string) *Route {
	for _, route := range api.Routes {
		if route.Name == name {
			return route
		}
	}
	return nil
}
