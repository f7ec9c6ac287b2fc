package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed story_item.schema.json
var storyItemSchemaJSON string

// StoryItem is one incoming story payload before it becomes a story.Story.
// Pointer fields are optional in the wire format.
type StoryItem struct {
	PayloadVersion string            `json:"payload_version"`
	Title          string            `json:"title"`
	URL            string            `json:"url"`
	Source         string            `json:"source"`
	PublishedDate  string            `json:"published_date"`
	Content        *string           `json:"content,omitempty"`
	Description    *string           `json:"description,omitempty"`
	Author         *string           `json:"author,omitempty"`
	Collector      *string           `json:"collector,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateStoryPayload validates one raw story payload against the embedded
// schema plus semantic checks the schema cannot express, and decodes it.
func ValidateStoryPayload(payload json.RawMessage) (*StoryItem, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var item StoryItem
	if err := json.Unmarshal(normalized, &item); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&item); err != nil {
		return nil, err
	}

	return &item, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("story_item.schema.json", strings.NewReader(storyItemSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("story_item.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(item *StoryItem) error {
	if item == nil {
		return fmt.Errorf("payload is nil")
	}

	if strings.TrimSpace(item.PayloadVersion) != "v1" {
		return fmt.Errorf("payload_version must be v1")
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if strings.TrimSpace(item.Source) == "" {
		return fmt.Errorf("source must not be empty")
	}

	if err := validateURI("url", item.URL); err != nil {
		return err
	}

	if _, err := time.Parse(time.RFC3339, strings.TrimSpace(item.PublishedDate)); err != nil {
		return fmt.Errorf("published_date must be RFC3339: %w", err)
	}

	for key, value := range item.Metadata {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("metadata keys must not be empty")
		}
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("metadata[%s] must not be empty", key)
		}
	}

	return nil
}

func validateURI(fieldName, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%s must not be empty", fieldName)
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return fmt.Errorf("%s is not a valid URI: %w", fieldName, err)
	}
	return nil
}

// PublishedTime parses the already-validated published date.
func (s *StoryItem) PublishedTime() time.Time {
	t, _ := time.Parse(time.RFC3339, strings.TrimSpace(s.PublishedDate))
	return t.UTC()
}
