package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

// ErrMalformedEnvelope is returned when the model output is not a valid action envelope.
var ErrMalformedEnvelope = errors.New("malformed model envelope")

const envelopeSchema = `{
  "type": "object",
  "properties": {
    "actions": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["tool"],
        "properties": {
          "tool": {"type": "string", "minLength": 1},
          "params": {"type": ["object", "null"]}
        }
      }
    },
    "response": {"type": ["string", "null"]},
    "client_actions": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["type"],
        "properties": {"type": {"type": "string"}}
      }
    },
    "pending_confirmation": {
      "oneOf": [
        {"type": "null"},
        {
          "type": "object",
          "required": ["tool"],
          "properties": {
            "tool": {"type": "string", "minLength": 1},
            "params": {"type": ["object", "null"]},
            "description": {"type": ["string", "null"]}
          }
        }
      ]
    }
  }
}`

// EnvelopeValidator checks model output against the action envelope schema.
type EnvelopeValidator struct {
	schema *jsonschema.Schema
}

// NewEnvelopeValidator compiles the envelope schema.
func NewEnvelopeValidator() (*EnvelopeValidator, error) {
	var doc any
	if err := json.Unmarshal([]byte(envelopeSchema), &doc); err != nil {
		return nil, fmt.Errorf("invalid envelope schema JSON: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("envelope.json", doc); err != nil {
		return nil, fmt.Errorf("failed to add envelope schema: %w", err)
	}
	sch, err := c.Compile("envelope.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile envelope schema: %w", err)
	}
	return &EnvelopeValidator{schema: sch}, nil
}

// MustEnvelopeValidator is NewEnvelopeValidator that panics on error.
func MustEnvelopeValidator() *EnvelopeValidator {
	v, err := NewEnvelopeValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Parse decodes content into an envelope. Anything that is not a single JSON
// object of the expected shape yields ErrMalformedEnvelope; nothing of a
// rejected payload is returned.
func (v *EnvelopeValidator) Parse(content string) (*domain.ActionEnvelope, error) {
	raw := stripFence(content)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrMalformedEnvelope)
	}

	var inst any
	if err := json.Unmarshal([]byte(raw), &inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if err := v.schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	var env domain.ActionEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return &env, nil
}

// stripFence removes a markdown code fence around the JSON body.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
