// Package schemas describes the JSON documents each pipeline step asks for and
// validates model output against them.
package schemas

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/resume-genie/internal/llm"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Kind   Kind
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	if ve.Kind != "" {
		sb.WriteString(fmt.Sprintf("%s validation failed:\n", ve.Kind))
	} else {
		sb.WriteString("validation failed:\n")
	}
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

var (
	schemaCache   = make(map[Kind]string)
	schemaCacheMu sync.Mutex
)

// Schema returns the JSON Schema for a document kind, reflected from its Go type.
func Schema(kind Kind) (string, error) {
	schemaCacheMu.Lock()
	defer schemaCacheMu.Unlock()

	if s, ok := schemaCache[kind]; ok {
		return s, nil
	}

	proto, ok := prototypes[kind]
	if !ok {
		return "", &SchemaLoadError{Path: string(kind), Message: "unknown document kind"}
	}

	r := &jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(proto)
	// gojsonschema only understands drafts up to 7
	s.Version = ""

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", &SchemaLoadError{Path: string(kind), Message: "failed to marshal schema", Cause: err}
	}

	schemaCache[kind] = string(data)
	return string(data), nil
}

// ValidateOutput checks raw model output against the schema for kind.
// Markdown fences and surrounding chatter are tolerated.
func ValidateOutput(kind Kind, raw string) error {
	schema, err := Schema(kind)
	if err != nil {
		return err
	}

	cleaned := llm.CleanJSONBlock(raw)
	if !json.Valid([]byte(cleaned)) {
		return &ValidationError{
			Kind:   kind,
			Errors: []FieldError{{Field: "(root)", Message: "output is not valid JSON"}},
		}
	}

	err = ValidateJSONString(schema, cleaned)
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Kind = kind
	}
	return err
}

// Decode validates raw model output and unmarshals it into the Go type for kind.
func Decode(kind Kind, raw string) (any, error) {
	if err := ValidateOutput(kind, raw); err != nil {
		return nil, err
	}

	var target any
	switch kind {
	case KindJobAnalysis:
		target = &JobAnalysis{}
	case KindEnhancedProfile:
		target = &EnhancedProfile{}
	case KindRefinedResume:
		target = &RefinedResume{}
	case KindInterviewGuide:
		target = &InterviewGuide{}
	}
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(raw)), target); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
	}
	return target, nil
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	// Build structured error
	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
