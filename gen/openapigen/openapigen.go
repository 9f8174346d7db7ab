// Package openapigen emits an OpenAPI 3.0 component-schema document for
// a coda: one JSON Schema object per data type plus a oneOf union
// schema for the coda as a whole. The document is marshaled with
// gopkg.in/yaml.v3, the same library Neumenon-glyph's CLI config loader
// uses, so that key order matches the struct field order below
// (yaml.v3, unlike encoding/json, preserves struct field declaration
// order without extra tags).
package openapigen

import (
	"fmt"

	"github.com/codas/codas/schema"
	"gopkg.in/yaml.v3"
)

// Property is one field of a generated JSON Schema object.
type Property struct {
	Type        string      `yaml:"type,omitempty"`
	Format      string      `yaml:"format,omitempty"`
	Items       *Property   `yaml:"items,omitempty"`
	Ref         string      `yaml:"$ref,omitempty"`
	Description string      `yaml:"description,omitempty"`
	Nullable    bool        `yaml:"nullable,omitempty"`
	OneOf       []Property  `yaml:"oneOf,omitempty"`
	Additional  interface{} `yaml:"additionalProperties,omitempty"`
}

// Schema is one component schema, corresponding to a coda DataType.
type Schema struct {
	Type        string              `yaml:"type"`
	Description string              `yaml:"description,omitempty"`
	Properties  map[string]Property `yaml:"properties,omitempty"`
	PropOrder   []string            `yaml:"-"`
	Required    []string            `yaml:"required,omitempty"`
}

// MarshalYAML renders Properties in PropOrder rather than Go's
// (randomized) map iteration order, keeping generator output
// deterministic.
func (s Schema) MarshalYAML() (interface{}, error) {
	type orderedProp struct {
		Name string
		Prop Property
	}
	ordered := make([]orderedProp, len(s.PropOrder))
	for i, name := range s.PropOrder {
		ordered[i] = orderedProp{Name: name, Prop: s.Properties[name]}
	}

	node := yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value interface{}) {
		var k, v yaml.Node
		_ = k.Encode(key)
		_ = v.Encode(value)
		node.Content = append(node.Content, &k, &v)
	}
	add("type", s.Type)
	if s.Description != "" {
		add("description", s.Description)
	}
	if len(ordered) > 0 {
		var propsNode yaml.Node
		propsNode.Kind = yaml.MappingNode
		for _, op := range ordered {
			var k, v yaml.Node
			_ = k.Encode(op.Name)
			_ = v.Encode(op.Prop)
			propsNode.Content = append(propsNode.Content, &k, &v)
		}
		var propsKey yaml.Node
		_ = propsKey.Encode("properties")
		node.Content = append(node.Content, &propsKey, &propsNode)
	}
	if len(s.Required) > 0 {
		add("required", s.Required)
	}
	return &node, nil
}

// Document is the top-level generated artifact: an OpenAPI components
// section naming every data type plus the coda's union schema.
type Document struct {
	Components struct {
		Schemas map[string]Schema `yaml:"schemas"`
		Order   []string          `yaml:"-"`
	} `yaml:"components"`
}

// MarshalYAML preserves the coda's own DataType order in the emitted
// components.schemas map, plus the union schema last.
func (d Document) MarshalYAML() (interface{}, error) {
	node := yaml.Node{Kind: yaml.MappingNode}

	schemasNode := yaml.Node{Kind: yaml.MappingNode}
	for _, name := range d.Components.Order {
		var k, v yaml.Node
		_ = k.Encode(name)
		_ = v.Encode(d.Components.Schemas[name])
		schemasNode.Content = append(schemasNode.Content, &k, &v)
	}
	componentsNode := yaml.Node{Kind: yaml.MappingNode}
	var schemasKey yaml.Node
	_ = schemasKey.Encode("schemas")
	componentsNode.Content = append(componentsNode.Content, &schemasKey, &schemasNode)

	var componentsKey yaml.Node
	_ = componentsKey.Encode("components")
	node.Content = append(node.Content, &componentsKey, &componentsNode)
	return &node, nil
}

// Generate builds an OpenAPI components document for coda and returns
// it marshaled as YAML.
func Generate(coda *schema.Coda) (string, error) {
	doc := Document{}
	doc.Components.Schemas = make(map[string]Schema)

	for _, dt := range coda.Types {
		s := Schema{Type: "object", Description: dt.Doc, Properties: map[string]Property{}}
		for _, f := range dt.Fields {
			s.PropOrder = append(s.PropOrder, f.Name)
			s.Properties[f.Name] = jsonSchemaType(f.Type)
			s.Required = append(s.Required, f.Name)
		}
		doc.Components.Schemas[dt.Name] = s
		doc.Components.Order = append(doc.Components.Order, dt.Name)
	}

	unionRefs := make([]Property, len(coda.Types))
	for i, dt := range coda.Types {
		unionRefs[i] = Property{Ref: "#/components/schemas/" + dt.Name}
	}
	doc.Components.Schemas[coda.Name] = Schema{
		Type:        "object",
		Description: coda.Doc,
	}
	doc.Components.Order = append(doc.Components.Order, coda.Name)
	// The union schema is stored separately from the per-type object
	// schemas above because oneOf belongs at the schema's top level,
	// not nested under "properties"; encode it directly as a node.
	return marshalWithUnion(doc, coda.Name, unionRefs)
}

func marshalWithUnion(doc Document, unionName string, refs []Property) (string, error) {
	base, err := doc.MarshalYAML()
	if err != nil {
		return "", err
	}
	root := base.(*yaml.Node)
	// root.Content[0] is "components"; its value is a mapping whose
	// "schemas" entry we now need to patch the union schema into with
	// a oneOf in place of the plain object placeholder.
	componentsVal := root.Content[1]
	schemasVal := componentsVal.Content[1]
	for i := 0; i < len(schemasVal.Content); i += 2 {
		key := schemasVal.Content[i]
		if key.Value == unionName {
			var oneOfNode yaml.Node
			if err := oneOfNode.Encode(refs); err != nil {
				return "", err
			}
			replacement := yaml.Node{Kind: yaml.MappingNode}
			var oneOfKey yaml.Node
			_ = oneOfKey.Encode("oneOf")
			replacement.Content = append(replacement.Content, &oneOfKey, &oneOfNode)
			schemasVal.Content[i+1] = &replacement
			break
		}
	}

	out, err := yaml.Marshal(root)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func jsonSchemaType(t schema.TypeRef) Property {
	switch t.Kind {
	case schema.KindUnsigned:
		return Property{Type: "integer", Format: fmt.Sprintf("uint%d", t.Width)}
	case schema.KindSigned:
		return Property{Type: "integer", Format: fmt.Sprintf("int%d", t.Width)}
	case schema.KindFloat:
		format := "float"
		if t.Width == 64 {
			format = "double"
		}
		return Property{Type: "number", Format: format}
	case schema.KindBool:
		return Property{Type: "boolean"}
	case schema.KindText:
		return Property{Type: "string"}
	case schema.KindNested:
		return Property{Ref: "#/components/schemas/" + t.NestedName}
	case schema.KindList:
		elem := jsonSchemaType(*t.Elem)
		return Property{Type: "array", Items: &elem}
	case schema.KindMap:
		val := jsonSchemaType(*t.Value)
		return Property{Type: "object", Additional: val}
	case schema.KindOptional:
		inner := jsonSchemaType(*t.Elem)
		inner.Nullable = true
		return inner
	case schema.KindDynamic:
		return Property{Type: "string", Format: "byte"}
	default:
		return Property{}
	}
}
