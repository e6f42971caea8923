package messages

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// coordDef bounds wire coordinates and radii to int32 so window edges never
// leave the int range and JSON numbers stay exact
const coordDef = `"coord": {"type": "integer", "minimum": -2147483648, "maximum": 2147483647}`

var payloadSchemas = map[MessageType]string{
	MessageTypeLogin: `{
		"type": "object",
		"required": ["username"],
		"properties": {
			"username": {"type": "string", "minLength": 1, "maxLength": 32},
			"world": {"type": "string", "maxLength": 64}
		},
		"additionalProperties": false
	}`,
	MessageTypeMove: `{
		"type": "object",
		"required": ["direction"],
		"properties": {
			"direction": {"enum": ["north", "south", "east", "west", "northeast", "northwest", "southeast", "southwest"]}
		},
		"additionalProperties": false
	}`,
	MessageTypeView: `{
		"type": "object",
		"required": ["radius_x", "radius_y"],
		"properties": {
			"radius_x": {"$ref": "#/$defs/coord"},
			"radius_y": {"$ref": "#/$defs/coord"},
			"center": {
				"type": "object",
				"required": ["x", "y"],
				"properties": {"x": {"$ref": "#/$defs/coord"}, "y": {"$ref": "#/$defs/coord"}},
				"additionalProperties": false
			}
		},
		"additionalProperties": false,
		"$defs": {` + coordDef + `}
	}`,
	MessageTypeProbe: `{
		"type": "object",
		"required": ["x", "y"],
		"properties": {"x": {"$ref": "#/$defs/coord"}, "y": {"$ref": "#/$defs/coord"}},
		"additionalProperties": false,
		"$defs": {` + coordDef + `}
	}`,
}

// Validator checks inbound payloads against the schema for their type
type Validator struct {
	schemas map[MessageType]*jsonschema.Schema
}

// NewValidator compiles the embedded payload schemas
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	for t, s := range payloadSchemas {
		if err := c.AddResource(schemaURL(t), strings.NewReader(s)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", t, err)
		}
	}
	v := &Validator{schemas: make(map[MessageType]*jsonschema.Schema, len(payloadSchemas))}
	for t := range payloadSchemas {
		compiled, err := c.Compile(schemaURL(t))
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", t, err)
		}
		v.schemas[t] = compiled
	}
	return v, nil
}

// Known reports whether inbound messages of type t are accepted
func (v *Validator) Known(t MessageType) bool {
	_, ok := v.schemas[t]
	return ok
}

// Validate checks the raw payload of an inbound message
func (v *Validator) Validate(t MessageType, payload json.RawMessage) error {
	schema, ok := v.schemas[t]
	if !ok {
		return fmt.Errorf("unknown message type %q", t)
	}
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	return schema.Validate(doc)
}

func schemaURL(t MessageType) string {
	return "tilefield://schemas/" + string(t) + ".json"
}
