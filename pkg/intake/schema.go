// Package intake validates the admin dial-request payload that starts
// a new outbound call, grounded on the contract-fixture validator in
// Junye-Pan-RealtimeSpeechPipeline's internal/tooling/validation:
// compile a JSON schema once at startup and validate each payload
// against it before it reaches the store/carrier layer.
package intake

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// dialRequestSchema describes the JSON body "POST /admin/calls" accepts:
// a lead to dial plus the phone number to reach them at.
const dialRequestSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["lead", "phone"],
	"additionalProperties": false,
	"properties": {
		"phone": {"type": "string", "minLength": 8, "pattern": "^\\+?[0-9]{8,15}$"},
		"lead": {
			"type": "object",
			"required": ["name", "company"],
			"additionalProperties": false,
			"properties": {
				"name":     {"type": "string", "minLength": 1},
				"company":  {"type": "string", "minLength": 1},
				"title":    {"type": "string"},
				"industry": {"type": "string"},
				"context":  {"type": "string"}
			}
		}
	}
}`

// Validator holds the compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded dial-request schema once.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("dial-request.json", bytes.NewReader([]byte(dialRequestSchema))); err != nil {
		return nil, fmt.Errorf("add dial request schema: %w", err)
	}
	schema, err := compiler.Compile("dial-request.json")
	if err != nil {
		return nil, fmt.Errorf("compile dial request schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// DialRequest is the validated shape of the admin dial-request body.
type DialRequest struct {
	Phone string `json:"phone"`
	Lead  struct {
		Name     string `json:"name"`
		Company  string `json:"company"`
		Title    string `json:"title"`
		Industry string `json:"industry"`
		Context  string `json:"context"`
	} `json:"lead"`
}

// Validate parses and schema-validates raw against dialRequestSchema,
// returning the typed request on success.
func (v *Validator) Validate(raw []byte) (DialRequest, error) {
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return DialRequest{}, fmt.Errorf("invalid json: %w", err)
	}
	if err := v.schema.Validate(payload); err != nil {
		return DialRequest{}, fmt.Errorf("dial request failed validation: %w", err)
	}

	var req DialRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return DialRequest{}, fmt.Errorf("decode dial request: %w", err)
	}
	return req, nil
}
