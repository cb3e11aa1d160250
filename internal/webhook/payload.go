package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Payload is the raw webhook body: metaData -> entry -> changes -> value.
// Every field is optional; a payload without metaData is valid and simply
// carries no events.
type Payload struct {
	MetaData *MetaData `json:"metaData"`
}

type MetaData struct {
	Entry []Entry `json:"entry"`
}

type Entry struct {
	Changes []Change `json:"changes"`
}

type Change struct {
	Value Value `json:"value"`
}

type Value struct {
	Contacts []Contact    `json:"contacts"`
	Messages []RawMessage `json:"messages"`
	Statuses []RawStatus  `json:"statuses"`
}

type Contact struct {
	WaID string `json:"wa_id"`
}

// RawMessage mirrors one entry of value.messages. Timestamp arrives as a
// numeric string and is parsed during normalization, not here.
type RawMessage struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Text      *TextBody `json:"text"`
	Timestamp string    `json:"timestamp"`
	Type      string    `json:"type"`
}

type TextBody struct {
	Body string `json:"body"`
}

// RawStatus mirrors one entry of value.statuses.
type RawStatus struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// payloadSchema type-checks the container structure without requiring any
// field, so an empty object still validates. It exists to reject payloads
// whose shape would otherwise decode to silently-ignored garbage (e.g. entry
// as a string).
const payloadSchema = `{
	"type": "object",
	"properties": {
		"metaData": {
			"type": "object",
			"properties": {
				"entry": {
					"type": "array",
					"items": {
						"type": "object",
						"properties": {
							"changes": {
								"type": "array",
								"items": {
									"type": "object",
									"properties": {
										"value": {
											"type": "object",
											"properties": {
												"contacts": {"type": "array", "items": {"type": "object"}},
												"messages": {"type": "array", "items": {"type": "object"}},
												"statuses": {"type": "array", "items": {"type": "object"}}
											}
										}
									}
								}
							}
						}
					}
				}
			}
		}
	}
}`

var schema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(payloadSchema))
	if err != nil {
		panic(fmt.Sprintf("payload schema is not valid json: %v", err))
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("inbox://payload.schema.json", doc); err != nil {
		panic(fmt.Sprintf("failed to add payload schema resource: %v", err))
	}

	sch, err := c.Compile("inbox://payload.schema.json")
	if err != nil {
		panic(fmt.Sprintf("failed to compile payload schema: %v", err))
	}
	return sch
}

// Decode validates data against the payload schema and unmarshals it.
// A structural mismatch fails the whole payload; a missing or empty
// container does not.
func Decode(data []byte) (*Payload, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid json payload: %w", err)
	}

	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("payload failed schema validation: %w", err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return &p, nil
}
