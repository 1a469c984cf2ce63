package resolve

import (
	"fmt"

	"github.com/notdodo/arner"
	"github.com/skiff-cloud/skiff/pkg/config"
)

const lambdaServicePrincipal = "lambda.amazonaws.com"

// DefaultTrustPolicy is the trust document applied to roles that declare no
// trust policy of their own: assumable by the function runtime service.
func DefaultTrustPolicy() config.PolicyDocument {
	return config.PolicyDocument{
		Version: "2012-10-17",
		Statement: []config.Statement{
			{
				Effect:    "Allow",
				Principal: &config.Principal{Service: lambdaServicePrincipal},
				Action:    "sts:AssumeRole",
			},
		},
	}
}

// ResolveRoles turns loaded role documents into a name-to-entity mapping.
// A record that cannot be built is skipped with a diagnostic; the batch
// continues.
func ResolveRoles(docs []config.RoleDocument, diags *Diagnostics) map[string]*Role {
	roles := make(map[string]*Role, len(docs))

	for _, doc := range docs {
		role, err := buildRole(doc, diags)
		if err != nil {
			diags.Warnf("roles", doc.RoleName, "Failed to create role: %v", err)
			continue
		}
		roles[role.Name] = role
		diags.Infof("roles", role.Name, "Created IAM role %q", role.Name)
	}

	diags.Infof("roles", "", "Total IAM roles created: %d", len(roles))
	return roles
}

func buildRole(doc config.RoleDocument, diags *Diagnostics) (*Role, error) {
	if doc.RoleName == "" {
		return nil, fmt.Errorf("role document has no role_name")
	}

	trust := DefaultTrustPolicy()
	if doc.TrustPolicy != nil {
		trust = *doc.TrustPolicy
	}

	managed := make([]ManagedPolicy, 0, doc.ManagedPolicies.Len())
	for _, name := range doc.ManagedPolicies.Keys {
		arn := doc.ManagedPolicies.Values[name]
		if _, err := arner.ParseARN(arn); err != nil {
			diags.Warnf("roles", doc.RoleName, "Managed policy %q has a malformed ARN %q: %v", name, arn, err)
		}
		managed = append(managed, ManagedPolicy{Name: name, Arn: arn})
	}

	var inline map[string]config.PolicyDocument
	if len(doc.InlinePolicies) > 0 {
		inline = make(map[string]config.PolicyDocument, len(doc.InlinePolicies))
		for name, policy := range doc.InlinePolicies {
			inline[name] = policy
		}
	}

	return &Role{
		Name:            doc.RoleName,
		TrustPolicy:     trust,
		ManagedPolicies: managed,
		InlinePolicies:  inline,
	}, nil
}
