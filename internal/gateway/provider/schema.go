package provider

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
)

// Schema describes the structured output a request expects. It is translated
// to the vendor format by each provider and to JSON Schema for validation.
// Order lists object properties in the order they should be generated.
type Schema struct {
	Type        SchemaType
	Description string
	Enum        []string
	Properties  map[string]*Schema
	Order       []string
	Required    []string
	Items       *Schema

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// Object builds an object schema whose properties are all required, in the
// given order.
func Object(props ...Property) *Schema {
	s := &Schema{Type: TypeObject, Properties: make(map[string]*Schema, len(props))}
	for _, p := range props {
		s.Properties[p.Name] = p.Schema
		s.Order = append(s.Order, p.Name)
		if !p.Optional {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

type Property struct {
	Name     string
	Schema   *Schema
	Optional bool
}

func Prop(name string, s *Schema) Property { return Property{Name: name, Schema: s} }

func OptionalProp(name string, s *Schema) Property {
	return Property{Name: name, Schema: s, Optional: true}
}

func String(desc string) *Schema { return &Schema{Type: TypeString, Description: desc} }

func Number(desc string) *Schema { return &Schema{Type: TypeNumber, Description: desc} }

func Enum(desc string, values ...string) *Schema {
	return &Schema{Type: TypeString, Description: desc, Enum: values}
}

func ArrayOf(items *Schema, desc string) *Schema {
	return &Schema{Type: TypeArray, Items: items, Description: desc}
}

// JSONSchema renders the tree as a draft 2020-12 document.
func (s *Schema) JSONSchema() map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		enum := make([]any, len(s.Enum))
		for i, v := range s.Enum {
			enum[i] = v
		}
		out["enum"] = enum
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, child := range s.Properties {
			props[name] = child.JSONSchema()
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		req := make([]any, len(s.Required))
		for i, v := range s.Required {
			req[i] = v
		}
		out["required"] = req
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	return out
}

// Validate checks a decoded JSON document against the schema.
func (s *Schema) Validate(doc any) error {
	compiled, err := s.compile()
	if err != nil {
		return err
	}
	return compiled.Validate(doc)
}

func (s *Schema) compile() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		raw, err := json.Marshal(s.JSONSchema())
		if err != nil {
			s.err = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("response.json", strings.NewReader(string(raw))); err != nil {
			s.err = err
			return
		}
		s.compiled, s.err = compiler.Compile("response.json")
	})
	if s.err != nil {
		return nil, fmt.Errorf("compile response schema: %w", s.err)
	}
	return s.compiled, nil
}
