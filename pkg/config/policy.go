package config

// Struct for Policy structured output instead of a raw JSON string
type PolicyDocument struct {
	PolicyName string      `json:"PolicyName,omitempty" yaml:"PolicyName,omitempty"`
	Version    string      `json:"Version,omitempty" yaml:"Version,omitempty"`
	Statement  []Statement `json:"Statement,omitempty" yaml:"Statement,omitempty"`
	Id         string      `json:"Id,omitempty" yaml:"Id,omitempty"`
}

type Principal struct {
	Service   interface{} `json:"Service,omitempty" yaml:"Service,omitempty"`
	AWS       interface{} `json:"AWS,omitempty" yaml:"AWS,omitempty"`
	Federated interface{} `json:"Federated,omitempty" yaml:"Federated,omitempty"`
}

type Statement struct {
	Sid       string      `json:"Sid,omitempty" yaml:"Sid,omitempty"`
	Effect    string      `json:"Effect" yaml:"Effect"`
	Principal *Principal  `json:"Principal,omitempty" yaml:"Principal,omitempty"`
	Action    interface{} `json:"Action" yaml:"Action"`
	Resource  interface{} `json:"Resource,omitempty" yaml:"Resource,omitempty"`
	Condition interface{} `json:"Condition,omitempty" yaml:"Condition,omitempty"`
}
