package resolve

import (
	"sort"
	"strings"

	"github.com/skiff-cloud/skiff/pkg/config"
)

const (
	defaultRestStageName   = "dev"
	defaultRestDescription = "Generated REST API"
	defaultAuthorizerTTL   = 300

	tokenIdentitySource = "method.request.header.Authorization"

	defaultUsagePlanRate   = 100
	defaultUsagePlanBurst  = 20
	defaultUsagePlanQuota  = 1000
	defaultUsagePlanPeriod = "MONTH"
)

var corsAllowHeaders = []string{
	"Content-Type",
	"X-Amz-Date",
	"Authorization",
	"X-Api-Key",
	"X-Amz-Security-Token",
	"authorizationToken",
}

var usagePlanPeriods = map[string]bool{"DAY": true, "WEEK": true, "MONTH": true}

// ResolveRestAPI resolves one REST route-group document against the shared
// function mapping: authorizers, a deduplicated path-node tree with bound
// methods, and an optional usage plan.
func ResolveRestAPI(doc config.RestAPIDocument, functions map[string]*Function, diags *Diagnostics) *RestAPI {
	description := doc.Description
	if description == "" {
		description = defaultRestDescription
	}
	stageName := doc.StageName
	if stageName == "" {
		stageName = defaultRestStageName
	}

	api := &RestAPI{
		Name:        doc.Name,
		Description: description,
		StageName:   stageName,
		Authorizers: resolveRestAuthorizers(doc.Name, doc.Authorizers, functions, diags),
	}

	builder := treeBuilder{created: make(map[string]*PathNode)}

	for _, resourceName := range sortedKeys(doc.Resources) {
		cfg := doc.Resources[resourceName]

		path := cfg.ResourcePath
		if path == "" {
			path = "/" + resourceName
		}
		node := builder.walk(api, path)
		if node == nil {
			diags.Warnf("rest", resourceName, "Resource %q has an empty resource path, skipping", resourceName)
			continue
		}

		if cfg.CORSEnabled {
			node.CORS = &CORSPreflight{
				AllowOrigins: []string{"*"},
				AllowMethods: []string{"*"},
				AllowHeaders: corsAllowHeaders,
			}
		}

		fn, ok := functions[cfg.FunctionName]
		if !ok {
			diags.Warnf("rest", resourceName, "Function %q not found for resource %q (available: %s), skipping methods", cfg.FunctionName, resourceName, strings.Join(sortedFunctionNames(functions), ", "))
			continue
		}

		requireAPIKey := make(map[string]bool, len(cfg.RequireAPIKey))
		for _, method := range cfg.RequireAPIKey {
			requireAPIKey[strings.ToUpper(method)] = true
		}

		for _, method := range cfg.Methods {
			methodUpper := strings.ToUpper(method)
			if methodUpper == "OPTIONS" {
				// Served by the CORS preflight configuration instead.
				continue
			}

			binding := &MethodBinding{
				Method: methodUpper,
				Integration: Integration{
					Kind:         IntegrationLambda,
					Function:     fn,
					FunctionName: fn.Name,
				},
				AuthorizationType: AuthorizationNone,
				APIKeyRequired:    requireAPIKey[methodUpper],
			}

			if authName := cfg.Authorization[methodUpper]; authName != "" {
				if authorizer, ok := api.Authorizers[authName]; ok {
					binding.Authorizer = authorizer
					binding.AuthorizerName = authName
					binding.AuthorizationType = AuthorizationCustom
				} else {
					diags.Warnf("rest", resourceName, "Authorizer %q not found for %s %s, method created without authorization", authName, methodUpper, node.FullPath)
				}
			}

			node.Methods = append(node.Methods, binding)
		}
	}

	api.UsagePlan = resolveUsagePlan(doc, stageName, diags)
	diags.Infof("rest", doc.Name, "REST API %q created with %d resources", doc.Name, len(doc.Resources))
	return api
}

func resolveRestAuthorizers(apiName string, docs map[string]config.AuthorizerDocument, functions map[string]*Function, diags *Diagnostics) map[string]*Authorizer {
	authorizers := make(map[string]*Authorizer, len(docs))

	for _, name := range sortedKeys(docs) {
		cfg := docs[name]

		fn, ok := functions[cfg.FunctionName]
		if !ok {
			diags.Warnf("rest", name, "Authorizer function %q not found for %q, skipping", cfg.FunctionName, name)
			continue
		}

		kind := AuthorizerKind(strings.ToUpper(cfg.Type))
		if kind == "" {
			kind = AuthorizerToken
		}

		ttl := defaultAuthorizerTTL
		if cfg.TTLSeconds != nil {
			ttl = *cfg.TTLSeconds
		}

		authorizer := &Authorizer{
			Name:         name,
			Kind:         kind,
			Function:     fn,
			FunctionName: fn.Name,
			ResultTTL:    ttl,
		}

		switch kind {
		case AuthorizerToken:
			source := tokenIdentitySource
			if len(cfg.IdentitySource) > 0 {
				source = cfg.IdentitySource[0]
			}
			authorizer.IdentitySources = []IdentitySource{classifyIdentitySource(source)}
		case AuthorizerRequest:
			sources := cfg.IdentitySource
			if len(sources) == 0 {
				sources = []string{tokenIdentitySource}
			}
			for _, source := range sources {
				authorizer.IdentitySources = append(authorizer.IdentitySources, classifyIdentitySource(source))
			}
		default:
			diags.Warnf("rest", name, "Unknown authorizer type %q for %q, skipping", cfg.Type, name)
			continue
		}

		authorizers[name] = authorizer
		diags.Infof("rest", name, "Created authorizer %q for API %q", name, apiName)
	}

	return authorizers
}

// classifyIdentitySource maps an identity-source string onto header or
// querystring extraction; anything unrecognizable defaults to the
// Authorization header.
func classifyIdentitySource(source string) IdentitySource {
	parts := strings.Split(source, ".")
	name := parts[len(parts)-1]

	switch {
	case strings.Contains(source, "header"):
		return IdentitySource{Location: IdentityHeader, Name: name, Source: source}
	case strings.Contains(source, "querystring"):
		return IdentitySource{Location: IdentityQueryString, Name: name, Source: source}
	default:
		return IdentitySource{Location: IdentityHeader, Name: "Authorization", Source: source}
	}
}

func resolveUsagePlan(doc config.RestAPIDocument, stageName string, diags *Diagnostics) *UsagePlan {
	cfg := doc.UsagePlan
	if cfg == nil {
		return nil
	}
	// An empty object declares nothing; only a plan with at least one field
	// set gets the defaults filled in.
	if cfg.RateLimit == nil && cfg.BurstLimit == nil && cfg.Limit == nil && cfg.Period == "" {
		diags.Infof("rest", doc.Name, "Usage plan for %q declares no limits, skipping", doc.Name)
		return nil
	}

	plan := &UsagePlan{
		Name:        doc.Name + "-usage-plan",
		RateLimit:   defaultUsagePlanRate,
		BurstLimit:  defaultUsagePlanBurst,
		QuotaLimit:  defaultUsagePlanQuota,
		QuotaPeriod: defaultUsagePlanPeriod,
		Stage:       stageName,
	}
	if cfg.RateLimit != nil {
		plan.RateLimit = *cfg.RateLimit
	}
	if cfg.BurstLimit != nil {
		plan.BurstLimit = *cfg.BurstLimit
	}
	if cfg.Limit != nil {
		plan.QuotaLimit = *cfg.Limit
	}
	if cfg.Period != "" {
		period := strings.ToUpper(cfg.Period)
		if !usagePlanPeriods[period] {
			diags.Warnf("rest", doc.Name, "Unknown usage plan period %q, using %s", cfg.Period, defaultUsagePlanPeriod)
			period = defaultUsagePlanPeriod
		}
		plan.QuotaPeriod = period
	}
	return plan
}

type treeBuilder struct {
	created map[string]*PathNode
}

// walk descends the declared path left to right, reusing existing nodes for
// shared prefixes, and returns the node for the final segment.
func (b *treeBuilder) walk(api *RestAPI, path string) *PathNode {
	var (
		parent      *PathNode
		currentPath string
		node        *PathNode
	)

	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		if currentPath == "" {
			currentPath = part
		} else {
			currentPath = currentPath + "/" + part
		}

		if existing, ok := b.created[currentPath]; ok {
			node = existing
		} else {
			node = &PathNode{Segment: part, FullPath: "/" + currentPath}
			b.created[currentPath] = node
			if parent == nil {
				api.Roots = append(api.Roots, node)
			} else {
				parent.Children = append(parent.Children, node)
			}
		}
		parent = node
	}

	return node
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedFunctionNames(functions map[string]*Function) []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
