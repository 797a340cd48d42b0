// Copyright 2025 Mongobox Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tools

import (
	"encoding/json"
	"fmt"
)

const (
	typeString  = "string"
	typeInt     = "integer"
	typeFloat   = "float"
	typeBool    = "boolean"
	typeArray   = "array"
	typeDefault = typeString
)

// Parameter is the interface for a tool's input parameter.
type Parameter interface {
	GetName() string
	GetType() string
	GetDescription() string
	GetRequired() bool
	GetDefault() any
	Parse(any) (any, error)
	Manifest() ParameterManifest
	McpManifest() ParameterMcpManifest
}

// ParameterManifest represents parameters when served as part of a
// ToolManifest.
type ParameterManifest struct {
	Name        string             `json:"name"`
	Type        string             `json:"type"`
	Required    bool               `json:"required"`
	Description string             `json:"description"`
	Items       *ParameterManifest `json:"items,omitempty"`
}

// ParameterMcpManifest represents properties of the MCP tool input schema.
type ParameterMcpManifest struct {
	Type        string                `json:"type"`
	Description string                `json:"description"`
	Items       *ParameterMcpManifest `json:"items,omitempty"`
}

// McpToolsSchema is a JSON Schema object defining the expected parameters for
// a tool.
type McpToolsSchema struct {
	Type       string                          `json:"type"`
	Properties map[string]ParameterMcpManifest `json:"properties"`
	Required   []string                        `json:"required"`
}

// CommonParameter holds the fields shared by all parameter types.
type CommonParameter struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Desc     string `yaml:"description"`
	Required *bool  `yaml:"required"`
}

func (p *CommonParameter) GetName() string        { return p.Name }
func (p *CommonParameter) GetType() string        { return p.Type }
func (p *CommonParameter) GetDescription() string { return p.Desc }

func (p *CommonParameter) setRequired(required *bool) { p.Required = required }

// manifest returns the manifest shared by all parameter types; GetRequired
// and GetDefault depend on the concrete type.
func (p *CommonParameter) manifest(required bool) ParameterManifest {
	return ParameterManifest{
		Name:        p.Name,
		Type:        p.Type,
		Required:    required,
		Description: p.Desc,
	}
}

func (p *CommonParameter) McpManifest() ParameterMcpManifest {
	return ParameterMcpManifest{
		Type:        p.Type,
		Description: p.Desc,
	}
}

// requiredOrDefault reports whether a parameter is required: an explicit
// `required` field wins, otherwise parameters without a default are required.
func requiredOrDefault(required *bool, def any) bool {
	if required != nil {
		return *required
	}
	return def == nil
}

// StringParameter is a string parameter.
type StringParameter struct {
	CommonParameter `yaml:",inline"`
	Default         *string `yaml:"default"`
}

// NewStringParameter is a convenience function for initializing a
// StringParameter.
func NewStringParameter(name, desc string) *StringParameter {
	return &StringParameter{CommonParameter: CommonParameter{Name: name, Type: typeString, Desc: desc}}
}

// NewStringParameterWithDefault is a convenience function for initializing a
// StringParameter with a default value.
func NewStringParameterWithDefault(name, def, desc string) *StringParameter {
	return &StringParameter{CommonParameter: CommonParameter{Name: name, Type: typeString, Desc: desc}, Default: &def}
}

func (p *StringParameter) GetDefault() any {
	if p.Default == nil {
		return nil
	}
	return *p.Default
}

func (p *StringParameter) GetRequired() bool {
	return requiredOrDefault(p.Required, p.GetDefault())
}

func (p *StringParameter) Parse(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("parameter %q should be a string, got %T", p.Name, v)
	}
	return s, nil
}

func (p *StringParameter) Manifest() ParameterManifest {
	return p.manifest(p.GetRequired())
}

// IntParameter is an integer parameter.
type IntParameter struct {
	CommonParameter `yaml:",inline"`
	Default         *int `yaml:"default"`
}

// NewIntParameter is a convenience function for initializing an IntParameter.
func NewIntParameter(name, desc string) *IntParameter {
	return &IntParameter{CommonParameter: CommonParameter{Name: name, Type: typeInt, Desc: desc}}
}

// NewIntParameterWithDefault is a convenience function for initializing an
// IntParameter with a default value.
func NewIntParameterWithDefault(name string, def int, desc string) *IntParameter {
	return &IntParameter{CommonParameter: CommonParameter{Name: name, Type: typeInt, Desc: desc}, Default: &def}
}

func (p *IntParameter) GetDefault() any {
	if p.Default == nil {
		return nil
	}
	return *p.Default
}

func (p *IntParameter) GetRequired() bool {
	return requiredOrDefault(p.Required, p.GetDefault())
}

func (p *IntParameter) Parse(v any) (any, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return nil, fmt.Errorf("parameter %q should be an integer, got %q", p.Name, t.String())
		}
		return int(i), nil
	default:
		return nil, fmt.Errorf("parameter %q should be an integer, got %T", p.Name, v)
	}
}

func (p *IntParameter) Manifest() ParameterManifest {
	return p.manifest(p.GetRequired())
}

// FloatParameter is a float parameter.
type FloatParameter struct {
	CommonParameter `yaml:",inline"`
	Default         *float64 `yaml:"default"`
}

// NewFloatParameter is a convenience function for initializing a
// FloatParameter.
func NewFloatParameter(name, desc string) *FloatParameter {
	return &FloatParameter{CommonParameter: CommonParameter{Name: name, Type: typeFloat, Desc: desc}}
}

// NewFloatParameterWithDefault is a convenience function for initializing a
// FloatParameter with a default value.
func NewFloatParameterWithDefault(name string, def float64, desc string) *FloatParameter {
	return &FloatParameter{CommonParameter: CommonParameter{Name: name, Type: typeFloat, Desc: desc}, Default: &def}
}

func (p *FloatParameter) GetDefault() any {
	if p.Default == nil {
		return nil
	}
	return *p.Default
}

func (p *FloatParameter) GetRequired() bool {
	return requiredOrDefault(p.Required, p.GetDefault())
}

func (p *FloatParameter) Parse(v any) (any, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("parameter %q should be a float, got %q", p.Name, t.String())
		}
		return f, nil
	default:
		return nil, fmt.Errorf("parameter %q should be a float, got %T", p.Name, v)
	}
}

func (p *FloatParameter) Manifest() ParameterManifest {
	return p.manifest(p.GetRequired())
}

// BooleanParameter is a boolean parameter.
type BooleanParameter struct {
	CommonParameter `yaml:",inline"`
	Default         *bool `yaml:"default"`
}

// NewBooleanParameter is a convenience function for initializing a
// BooleanParameter.
func NewBooleanParameter(name, desc string) *BooleanParameter {
	return &BooleanParameter{CommonParameter: CommonParameter{Name: name, Type: typeBool, Desc: desc}}
}

// NewBooleanParameterWithDefault is a convenience function for initializing a
// BooleanParameter with a default value.
func NewBooleanParameterWithDefault(name string, def bool, desc string) *BooleanParameter {
	return &BooleanParameter{CommonParameter: CommonParameter{Name: name, Type: typeBool, Desc: desc}, Default: &def}
}

func (p *BooleanParameter) GetDefault() any {
	if p.Default == nil {
		return nil
	}
	return *p.Default
}

func (p *BooleanParameter) GetRequired() bool {
	return requiredOrDefault(p.Required, p.GetDefault())
}

func (p *BooleanParameter) Parse(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("parameter %q should be a boolean, got %T", p.Name, v)
	}
	return b, nil
}

func (p *BooleanParameter) Manifest() ParameterManifest {
	return p.manifest(p.GetRequired())
}

// ArrayParameter is an array parameter with typed items.
type ArrayParameter struct {
	CommonParameter `yaml:",inline"`
	Items           Parameter `yaml:"-"`
}

// NewArrayParameter is a convenience function for initializing an
// ArrayParameter.
func NewArrayParameter(name, desc string, items Parameter) *ArrayParameter {
	return &ArrayParameter{CommonParameter: CommonParameter{Name: name, Type: typeArray, Desc: desc}, Items: items}
}

func (p *ArrayParameter) GetDefault() any { return nil }

func (p *ArrayParameter) GetRequired() bool {
	return requiredOrDefault(p.Required, nil)
}

func (p *ArrayParameter) Parse(v any) (any, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("parameter %q should be an array, got %T", p.Name, v)
	}
	out := make([]any, 0, len(arr))
	for i, item := range arr {
		parsed, err := p.Items.Parse(item)
		if err != nil {
			return nil, fmt.Errorf("parameter %q item %d: %w", p.Name, i, err)
		}
		out = append(out, parsed)
	}
	return out, nil
}

func (p *ArrayParameter) Manifest() ParameterManifest {
	m := p.manifest(p.GetRequired())
	items := p.Items.Manifest()
	m.Items = &items
	return m
}

func (p *ArrayParameter) McpManifest() ParameterMcpManifest {
	items := p.Items.McpManifest()
	return ParameterMcpManifest{
		Type:        p.Type,
		Description: p.Desc,
		Items:       &items,
	}
}

// Parameters is an ordered list of tool parameters.
type Parameters []Parameter

// Manifest returns the list of parameter manifests.
func (ps Parameters) Manifest() []ParameterManifest {
	manifests := make([]ParameterManifest, 0, len(ps))
	for _, p := range ps {
		manifests = append(manifests, p.Manifest())
	}
	return manifests
}

// McpManifest returns the JSON Schema object for the parameters.
func (ps Parameters) McpManifest() McpToolsSchema {
	properties := make(map[string]ParameterMcpManifest)
	required := make([]string, 0)

	for _, p := range ps {
		properties[p.GetName()] = p.McpManifest()
		if p.GetRequired() {
			required = append(required, p.GetName())
		}
	}

	return McpToolsSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// UnmarshalYAML decodes a parameter list, dispatching on each parameter's
// `type` field. The single-argument form keeps this compatible with both
// goccy/go-yaml and yaml.v3 decoding.
func (ps *Parameters) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*ps = Parameters{}
	var raw []map[string]any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	for _, r := range raw {
		p, err := parseFromMap(r)
		if err != nil {
			return err
		}
		*ps = append(*ps, p)
	}
	return nil
}

// parseFromMap builds a concrete Parameter from its untyped YAML mapping.
func parseFromMap(r map[string]any) (Parameter, error) {
	name, _ := r["name"].(string)
	desc, _ := r["description"].(string)
	t, ok := r["type"].(string)
	if !ok {
		t = typeDefault
	}

	var required *bool
	if v, ok := r["required"].(bool); ok {
		required = &v
	}

	var p Parameter
	switch t {
	case typeString:
		if d, ok := r["default"]; ok {
			s, ok := d.(string)
			if !ok {
				return nil, fmt.Errorf("default for parameter %q should be a string, got %T", name, d)
			}
			p = NewStringParameterWithDefault(name, s, desc)
		} else {
			p = NewStringParameter(name, desc)
		}
	case typeInt:
		if d, ok := r["default"]; ok {
			i, err := asInt(d)
			if err != nil {
				return nil, fmt.Errorf("default for parameter %q: %w", name, err)
			}
			p = NewIntParameterWithDefault(name, i, desc)
		} else {
			p = NewIntParameter(name, desc)
		}
	case typeFloat:
		if d, ok := r["default"]; ok {
			f, err := asFloat(d)
			if err != nil {
				return nil, fmt.Errorf("default for parameter %q: %w", name, err)
			}
			p = NewFloatParameterWithDefault(name, f, desc)
		} else {
			p = NewFloatParameter(name, desc)
		}
	case typeBool:
		if d, ok := r["default"]; ok {
			b, ok := d.(bool)
			if !ok {
				return nil, fmt.Errorf("default for parameter %q should be a boolean, got %T", name, d)
			}
			p = NewBooleanParameterWithDefault(name, b, desc)
		} else {
			p = NewBooleanParameter(name, desc)
		}
	case typeArray:
		rawItems, ok := r["items"].(map[string]any)
		if !ok {
			// yaml.v3 decodes nested mappings with interface keys.
			if m, isIface := r["items"].(map[any]any); isIface {
				rawItems = make(map[string]any, len(m))
				for k, v := range m {
					if ks, isStr := k.(string); isStr {
						rawItems[ks] = v
					}
				}
			} else {
				return nil, fmt.Errorf("parameter %q of type array is missing items", name)
			}
		}
		items, err := parseFromMap(rawItems)
		if err != nil {
			return nil, fmt.Errorf("items for parameter %q: %w", name, err)
		}
		p = NewArrayParameter(name, desc, items)
	default:
		return nil, fmt.Errorf("parameter %q has unknown type %q", name, t)
	}

	if required != nil {
		switch c := p.(type) {
		case *StringParameter:
			c.setRequired(required)
		case *IntParameter:
			c.setRequired(required)
		case *FloatParameter:
			c.setRequired(required)
		case *BooleanParameter:
			c.setRequired(required)
		case *ArrayParameter:
			c.setRequired(required)
		}
	}
	return p, nil
}

func asInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	case json.Number:
		i, err := t.Int64()
		return int(i), err
	default:
		return 0, fmt.Errorf("should be an integer, got %T", v)
	}
}

func asFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	default:
		return 0, fmt.Errorf("should be a float, got %T", v)
	}
}

// CheckDuplicateParameters verifies there are no duplicate parameter names.
func CheckDuplicateParameters(ps Parameters) error {
	seen := make(map[string]struct{})
	for _, p := range ps {
		name := p.GetName()
		if _, exists := seen[name]; exists {
			return fmt.Errorf("parameter name must be unique across parameters: duplicate parameter %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// ParamValue represents the parsed value of a single parameter.
type ParamValue struct {
	Name  string
	Value any
}

// ParamValues is an ordered list of ParamValue.
type ParamValues []ParamValue

// AsMap returns a map of ParamValue's names to values.
func (p ParamValues) AsMap() map[string]interface{} {
	params := make(map[string]interface{}, len(p))
	for _, pv := range p {
		params[pv.Name] = pv.Value
	}
	return params
}

// AsSlice returns a slice of the ParamValue's values.
func (p ParamValues) AsSlice() []any {
	params := make([]any, 0, len(p))
	for _, pv := range p {
		params = append(params, pv.Value)
	}
	return params
}

// ParseParams parses and validates tool invocation arguments against the
// declared parameters. Missing values fall back to declared defaults; missing
// required values are an error. The claims map is reserved for
// auth-service-sourced values and is currently unused by the shipped tools.
func ParseParams(ps Parameters, data map[string]any, claimsMap map[string]map[string]any) (ParamValues, error) {
	params := make(ParamValues, 0, len(ps))
	for _, p := range ps {
		name := p.GetName()
		v, ok := data[name]
		if !ok || v == nil {
			if d := p.GetDefault(); d != nil {
				params = append(params, ParamValue{Name: name, Value: d})
				continue
			}
			if !p.GetRequired() {
				continue
			}
			return nil, fmt.Errorf("parameter %q is required", name)
		}
		parsed, err := p.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("unable to parse value for %q: %w", name, err)
		}
		params = append(params, ParamValue{Name: name, Value: parsed})
	}
	return params, nil
}
