package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v2"
)

// RoleDocument is one IAM role declaration. TrustPolicy and InlinePolicies
// are filled by the loader from trust_policy_path and inline_policy_files.
type RoleDocument struct {
	RoleName          string                    `json:"role_name" yaml:"role_name"`
	TrustPolicyPath   string                    `json:"trust_policy_path,omitempty" yaml:"trust_policy_path,omitempty"`
	InlinePolicyFiles []string                  `json:"inline_policy_files,omitempty" yaml:"inline_policy_files,omitempty"`
	ManagedPolicies   OrderedMap                `json:"managed_policies,omitempty" yaml:"managed_policies,omitempty"`
	TrustPolicy       *PolicyDocument           `json:"trust_policy,omitempty" yaml:"trust_policy,omitempty"`
	InlinePolicies    map[string]PolicyDocument `json:"inline_policies,omitempty" yaml:"inline_policies,omitempty"`
}

type FunctionDocument struct {
	Service FunctionService `json:"service" yaml:"service"`
}

type FunctionService struct {
	FunctionName         string            `json:"function_name" yaml:"function_name"`
	RoleName             string            `json:"role_name,omitempty" yaml:"role_name,omitempty"`
	Handler              string            `json:"handler" yaml:"handler"`
	Runtime              string            `json:"runtime" yaml:"runtime"`
	ZipFile              string            `json:"zip_file" yaml:"zip_file"`
	Timeout              *int              `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MemorySize           *int              `json:"memory_size,omitempty" yaml:"memory_size,omitempty"`
	EnvironmentVariables map[string]string `json:"environment_variables,omitempty" yaml:"environment_variables,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
}

type RestAPIDocument struct {
	Name        string                        `json:"name" yaml:"name"`
	Description string                        `json:"description,omitempty" yaml:"description,omitempty"`
	StageName   string                        `json:"stage_name,omitempty" yaml:"stage_name,omitempty"`
	Authorizers map[string]AuthorizerDocument `json:"authorizers,omitempty" yaml:"authorizers,omitempty"`
	Resources   map[string]ResourceDocument   `json:"resources,omitempty" yaml:"resources,omitempty"`
	UsagePlan   *UsagePlanDocument            `json:"usage_plan,omitempty" yaml:"usage_plan,omitempty"`
}

type AuthorizerDocument struct {
	FunctionName   string        `json:"function_name" yaml:"function_name"`
	Type           string        `json:"type,omitempty" yaml:"type,omitempty"`
	IdentitySource StringOrSlice `json:"identity_source,omitempty" yaml:"identity_source,omitempty"`
	TTLSeconds     *int          `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
}

type ResourceDocument struct {
	ResourcePath  string            `json:"resource_path,omitempty" yaml:"resource_path,omitempty"`
	Methods       []string          `json:"methods,omitempty" yaml:"methods,omitempty"`
	Authorization map[string]string `json:"authorization,omitempty" yaml:"authorization,omitempty"`
	RequireAPIKey []string          `json:"require_api_key,omitempty" yaml:"require_api_key,omitempty"`
	CORSEnabled   bool              `json:"cors_enabled,omitempty" yaml:"cors_enabled,omitempty"`
	FunctionName  string            `json:"function_name,omitempty" yaml:"function_name,omitempty"`
}

type UsagePlanDocument struct {
	RateLimit  *float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	BurstLimit *int     `json:"burst_limit,omitempty" yaml:"burst_limit,omitempty"`
	Limit      *int     `json:"limit,omitempty" yaml:"limit,omitempty"`
	Period     string   `json:"period,omitempty" yaml:"period,omitempty"`
}

type HTTPAPIDocument struct {
	Name              string                        `json:"name" yaml:"name"`
	CORS              map[string]interface{}        `json:"cors,omitempty" yaml:"cors,omitempty"`
	Authorizers       map[string]AuthorizerDocument `json:"authorizers,omitempty" yaml:"authorizers,omitempty"`
	Routes            map[string]RouteDocument      `json:"routes,omitempty" yaml:"routes,omitempty"`
	IntegrationTarget string                        `json:"integration_target,omitempty" yaml:"integration_target,omitempty"`
	URL               string                        `json:"url,omitempty" yaml:"url,omitempty"`
	HTTPMethod        string                        `json:"http_method,omitempty" yaml:"http_method,omitempty"`
}

type RouteDocument struct {
	ResourcePath  string            `json:"resource_path,omitempty" yaml:"resource_path,omitempty"`
	Methods       []string          `json:"methods,omitempty" yaml:"methods,omitempty"`
	Authorization map[string]string `json:"authorization,omitempty" yaml:"authorization,omitempty"`
	FunctionName  string            `json:"function_name,omitempty" yaml:"function_name,omitempty"`
	Lambda        *LambdaRef        `json:"lambda,omitempty" yaml:"lambda,omitempty"`
	URL           string            `json:"url,omitempty" yaml:"url,omitempty"`
}

// OrderedMap is a string-to-string mapping that remembers declaration order.
// Managed policy identifiers keep the order they have in the document.
type OrderedMap struct {
	Keys   []string
	Values map[string]string
}

func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	m.Keys = nil
	m.Values = make(map[string]string)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if _, seen := m.Values[key]; !seen {
			m.Keys = append(m.Keys, key)
		}
		m.Values[key] = value
	}
	_, err = dec.Token()
	return err
}

func (m OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.Values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *OrderedMap) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var slice yaml.MapSlice
	if err := unmarshal(&slice); err != nil {
		return err
	}
	m.Keys = nil
	m.Values = make(map[string]string)
	for _, item := range slice {
		key := fmt.Sprint(item.Key)
		if _, seen := m.Values[key]; !seen {
			m.Keys = append(m.Keys, key)
		}
		m.Values[key] = fmt.Sprint(item.Value)
	}
	return nil
}

func (m OrderedMap) Len() int {
	return len(m.Keys)
}

// StringOrSlice accepts both "x" and ["x", "y"] document forms.
type StringOrSlice []string

func (s *StringOrSlice) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

func (s *StringOrSlice) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}
	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}
	*s = many
	return nil
}

// LambdaRef accepts both the bare function-name string and the
// {"function_name": ...} object form of a route's lambda field.
type LambdaRef struct {
	FunctionName string `json:"function_name" yaml:"function_name"`
}

func (l *LambdaRef) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		l.FunctionName = name
		return nil
	}
	type alias LambdaRef
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	l.FunctionName = obj.FunctionName
	return nil
}

func (l *LambdaRef) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err == nil {
		l.FunctionName = name
		return nil
	}
	type alias LambdaRef
	var obj alias
	if err := unmarshal(&obj); err != nil {
		return err
	}
	l.FunctionName = obj.FunctionName
	return nil
}
