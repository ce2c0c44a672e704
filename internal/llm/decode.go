package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/the-paper-trail/internal/common"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a compiled JSON schema for one expected response shape.
type Schema struct {
	compiled *jsonschema.Schema
	name     string
}

// CompileSchema compiles a JSON schema document.
func CompileSchema(name, source string) (*Schema, error) {
	c := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := c.AddResource(resource, strings.NewReader(source)); err != nil {
		return nil, fmt.Errorf("failed to add schema %s: %w", name, err)
	}
	compiled, err := c.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return &Schema{name: name, compiled: compiled}, nil
}

// MustCompileSchema is CompileSchema for package-level schemas.
func MustCompileSchema(name, source string) *Schema {
	s, err := CompileSchema(name, source)
	if err != nil {
		panic(err)
	}
	return s
}

// DecodeJSON strips any markdown fence from content, validates it against
// schema and unmarshals it into out. Every failure wraps
// common.ErrSchemaViolation.
func DecodeJSON(content string, schema *Schema, out any) error {
	content = cleanMarkdownWrapper(content)

	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return fmt.Errorf("%w: response is not valid JSON: %v", common.ErrSchemaViolation, err)
	}

	if schema != nil {
		if err := schema.compiled.Validate(doc); err != nil {
			return fmt.Errorf("%w: %s: %v", common.ErrSchemaViolation, schema.name, err)
		}
	}

	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: %v", common.ErrSchemaViolation, err)
	}
	return nil
}

// cleanMarkdownWrapper removes a ```json fence and surrounding whitespace.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```JSON")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
