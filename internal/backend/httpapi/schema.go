package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const taskSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "title", "completed"],
  "properties": {
    "id": {"type": ["integer", "string"]},
    "title": {"type": "string"},
    "completed": {"type": "boolean"}
  }
}`

const taskListSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {"$ref": "todo://task.json"}
}`

// schemas holds the compiled response schemas.
type schemas struct {
	task *jsonschema.Schema
	list *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("todo://task.json", strings.NewReader(taskSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add task schema: %w", err)
	}
	if err := compiler.AddResource("todo://tasks.json", strings.NewReader(taskListSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add task list schema: %w", err)
	}
	task, err := compiler.Compile("todo://task.json")
	if err != nil {
		return nil, fmt.Errorf("compile task schema: %w", err)
	}
	list, err := compiler.Compile("todo://tasks.json")
	if err != nil {
		return nil, fmt.Errorf("compile task list schema: %w", err)
	}
	return &schemas{task: task, list: list}, nil
}

// validate checks body against schema before it is decoded into Go types.
func validate(schema *jsonschema.Schema, body []byte) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return &MalformedError{Err: err}
	}
	if err := schema.Validate(doc); err != nil {
		return &MalformedError{Err: err}
	}
	return nil
}
