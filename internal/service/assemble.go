package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/raphaelgruber/regextract/internal/models"
	"github.com/raphaelgruber/regextract/internal/parser"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ParseError reports that the salvaged objects did not form valid JSON.
type ParseError struct {
	Text string // the assembled array that failed to parse
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse extracted records: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// recordSchema describes a well-formed register record.
var recordSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		models.FieldCourtName:        map[string]any{"type": []string{"string", "null"}},
		models.FieldDateOfArticle:    map[string]any{"type": []string{"string", "null"}},
		models.FieldCompanyName:      map[string]any{"type": []string{"string", "null"}},
		models.FieldRegistrationCode: map[string]any{"type": []string{"string", "null"}},
		models.FieldRegistrationYear: map[string]any{"type": []string{"string", "null"}},
	},
	"required":             models.RecordFields,
	"additionalProperties": false,
}

var compiledRecordSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(recordSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("record.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// Assemble salvages JSON objects from every result text, in order, and
// decodes them as one array. Records that do not match the record schema
// are coerced into it.
func Assemble(results []string, logger *slog.Logger) ([]models.ExtractionRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var spans []string
	for _, r := range results {
		spans = append(spans, parser.ExtractObjects(r)...)
	}
	if len(spans) == 0 {
		return []models.ExtractionRecord{}, nil
	}

	text := "[" + strings.Join(spans, ",\n") + "]"
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, &ParseError{Text: text, Err: err}
	}

	schema, err := compiledRecordSchema()
	if err != nil {
		return nil, err
	}

	records := make([]models.ExtractionRecord, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			logger.Warn("dropping non-object record", "index", i)
			continue
		}
		if err := schema.Validate(obj); err != nil {
			logger.Warn("coercing record", "index", i, "error", err)
		}
		records = append(records, coerceRecord(obj))
	}
	return records, nil
}

// coerceRecord maps an arbitrary object onto the five canonical keys.
// Exact key matches win over case-insensitive ones; extra keys are dropped.
func coerceRecord(obj map[string]any) models.ExtractionRecord {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rec models.ExtractionRecord
	for _, field := range models.RecordFields {
		v, ok := obj[field]
		if !ok {
			for _, k := range keys {
				if strings.EqualFold(k, field) {
					v, ok = obj[k], true
					break
				}
			}
		}
		if ok {
			rec.SetField(field, valueText(v))
		}
	}
	return rec
}

// valueText renders a decoded JSON value as record text. null stays nil.
func valueText(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	case json.Number:
		s = t.String()
	case bool:
		s = fmt.Sprintf("%t", t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		s = string(b)
	}
	return &s
}
