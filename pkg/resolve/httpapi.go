package resolve

import (
	"fmt"
	"strings"

	"github.com/skiff-cloud/skiff/pkg/config"
)

const (
	httpIdentitySource     = "$request.header.Authorization"
	httpPayloadFormat      = "2.0"
	httpIntegrationTarget  = "HTTP URI"
	defaultHTTPStageName   = "$default"
	defaultHTTPProxyMethod = "GET"
)

// ResolveHTTPAPI resolves one simple-routing group against the shared
// function mapping. Routes are flat and independent; each produces one
// binding per declared method with an authorizer resolved per method,
// failing open to no authorization.
func ResolveHTTPAPI(doc config.HTTPAPIDocument, functions map[string]*Function, stage config.StageContext, diags *Diagnostics) *HTTPAPI {
	api := &HTTPAPI{
		Name:        doc.Name,
		CORS:        doc.CORS,
		StageName:   defaultHTTPStageName,
		AutoDeploy:  true,
		Authorizers: resolveHTTPAuthorizers(doc.Authorizers, functions, stage, diags),
	}

	for _, routeName := range sortedKeys(doc.Routes) {
		cfg := doc.Routes[routeName]

		path := cfg.ResourcePath
		if path == "" {
			path = "/" + routeName
		}
		methods := cfg.Methods
		if len(methods) == 0 {
			methods = []string{"GET"}
		}

		integration, ok := determineIntegrationTarget(doc, routeName, cfg, functions, stage, diags)
		if !ok {
			diags.Warnf("http", routeName, "No valid integration target found for route %q (available functions: %s), skipping", routeName, strings.Join(sortedFunctionNames(functions), ", "))
			continue
		}

		route := &Route{Name: routeName, Path: path}
		for _, method := range methods {
			methodUpper := strings.ToUpper(method)
			binding := &MethodBinding{
				Method:            methodUpper,
				Integration:       integration,
				AuthorizationType: AuthorizationNone,
			}

			if authName := cfg.Authorization[methodUpper]; authName != "" {
				if authorizer, ok := api.Authorizers[authName]; ok {
					binding.Authorizer = authorizer
					binding.AuthorizerName = authName
					binding.AuthorizationType = AuthorizationCustom
				} else {
					diags.Warnf("http", routeName, "Authorizer %q was not created, route %s %s falls back to no authorization", authName, methodUpper, path)
				}
			}

			route.Bindings = append(route.Bindings, binding)
			diags.Infof("http", routeName, "Created route %s %s", methodUpper, path)
		}
		api.Routes = append(api.Routes, route)
	}

	return api
}

// determineIntegrationTarget applies the documented precedence order:
// route-name match, explicit function_name, nested lambda field, the
// group-level HTTP URI target, then a route-level URL.
func determineIntegrationTarget(doc config.HTTPAPIDocument, routeName string, cfg config.RouteDocument, functions map[string]*Function, stage config.StageContext, diags *Diagnostics) (Integration, bool) {
	if fn, ok := functions[routeName]; ok {
		return lambdaIntegration(fn, stage), true
	}

	if cfg.FunctionName != "" {
		if fn, ok := functions[cfg.FunctionName]; ok {
			return lambdaIntegration(fn, stage), true
		}
	}

	if cfg.Lambda != nil && cfg.Lambda.FunctionName != "" {
		if fn, ok := functions[cfg.Lambda.FunctionName]; ok {
			return lambdaIntegration(fn, stage), true
		}
	}

	if doc.IntegrationTarget == httpIntegrationTarget && doc.URL != "" {
		return httpIntegration(doc.URL, doc.HTTPMethod), true
	}

	if cfg.URL != "" {
		return httpIntegration(cfg.URL, doc.HTTPMethod), true
	}

	return Integration{}, false
}

func lambdaIntegration(fn *Function, stage config.StageContext) Integration {
	return Integration{
		Kind:         IntegrationLambda,
		Function:     fn,
		FunctionName: fn.Name,
		Method:       "POST",
		URI:          invocationURI(fn, stage),
	}
}

func httpIntegration(url, method string) Integration {
	if method == "" {
		method = defaultHTTPProxyMethod
	}
	return Integration{
		Kind:   IntegrationHTTP,
		URL:    url,
		Method: strings.ToUpper(method),
		URI:    url,
	}
}

func resolveHTTPAuthorizers(docs map[string]config.AuthorizerDocument, functions map[string]*Function, stage config.StageContext, diags *Diagnostics) map[string]*Authorizer {
	authorizers := make(map[string]*Authorizer, len(docs))

	for _, name := range sortedKeys(docs) {
		cfg := docs[name]

		fn, ok := functions[cfg.FunctionName]
		if !ok {
			diags.Warnf("http", name, "Function %q not found for authorizer %q, skipping", cfg.FunctionName, name)
			continue
		}

		source := httpIdentitySource
		if len(cfg.IdentitySource) > 0 {
			source = cfg.IdentitySource[0]
		}
		ttl := defaultAuthorizerTTL
		if cfg.TTLSeconds != nil {
			ttl = *cfg.TTLSeconds
		}

		authorizers[name] = &Authorizer{
			Name:         name,
			Kind:         AuthorizerRequest,
			Function:     fn,
			FunctionName: fn.Name,
			IdentitySources: []IdentitySource{
				{Location: IdentityHeader, Name: lastSegment(source), Source: source},
			},
			ResultTTL:            ttl,
			URI:                  invocationURI(fn, stage),
			PayloadFormatVersion: httpPayloadFormat,
		}
		diags.Infof("http", name, "Created authorizer %q", name)
	}

	return authorizers
}

// invocationURI builds the API Gateway invocation ARN for a function, empty
// when the stage lacks a region or account.
func invocationURI(fn *Function, stage config.StageContext) string {
	arn := fn.ARN(stage)
	if arn == "" {
		return ""
	}
	return fmt.Sprintf("arn:aws:apigateway:%s:lambda:path/2015-03-31/functions/%s/invocations", stage.Region, arn)
}

func lastSegment(source string) string {
	parts := strings.Split(source, ".")
	return parts[len(parts)-1]
}
