package model

import (
	"sort"

	"github.com/ivorycirrus/aws-pdk/internal/document"
)

// The mock sampler is a pure function from a raw schema node to a sample
// value. It operates on a deep copy of the document so it can dereference
// freely without touching the tree the main passes own.

type sampler struct {
	doc *document.Document
}

func newSampler(doc *document.Document) *sampler {
	return &sampler{doc: doc.Clone()}
}

// Sample derives an example value for a schema: a declared example wins, then
// the first enum value, then a type/format default. References resolve
// against the sampler's own document copy with a per-branch guard so cyclic
// graphs terminate.
func (s *sampler) Sample(schema map[string]any) any {
	return s.sample(schema, nil)
}

func (s *sampler) sample(schema map[string]any, seen []string) any {
	if schema == nil {
		return nil
	}
	if document.IsRef(schema) {
		ref := schema["$ref"].(string)
		for _, prior := range seen {
			if prior == ref {
				return nil
			}
		}
		resolved, err := s.doc.Resolve(ref)
		if err != nil {
			return nil
		}
		return s.sample(resolved, append(seen, ref))
	}

	if example, ok := schema["example"]; ok {
		return example
	}
	if values, ok := schema["enum"].([]any); ok && len(values) > 0 {
		return values[0]
	}

	t, _ := schema["type"].(string)
	format, _ := schema["format"].(string)
	switch t {
	case "string":
		switch format {
		case "date":
			return "2000-01-23"
		case "date-time":
			return "2000-01-23T04:56:07.000Z"
		case "byte":
			return "aGVsbG8="
		case "uuid":
			return "046b6c7f-0b8a-43b9-b35d-6489e6daee91"
		default:
			return "string"
		}
	case "integer":
		return 0
	case "number":
		return 0.8
	case "boolean":
		return true
	case "array":
		items, _ := schema["items"].(map[string]any)
		if items == nil {
			return []any{}
		}
		return []any{s.sample(items, seen)}
	case "object", "":
		props, _ := schema["properties"].(map[string]any)
		if len(props) == 0 {
			if isComposedSchema(schema) {
				return s.sampleComposed(schema, seen)
			}
			return map[string]any{}
		}
		out := make(map[string]any, len(props))
		for _, name := range sortedSchemaKeys(props) {
			if prop, ok := props[name].(map[string]any); ok {
				out[name] = s.sample(prop, seen)
			}
		}
		return out
	default:
		return nil
	}
}

// sampleComposed merges allOf member samples and takes the first branch for
// oneOf/anyOf.
func (s *sampler) sampleComposed(schema map[string]any, seen []string) any {
	if branches, ok := schema["allOf"].([]any); ok && len(branches) > 0 {
		merged := map[string]any{}
		for _, b := range branches {
			if bm, ok := b.(map[string]any); ok {
				if sample, ok := s.sample(bm, seen).(map[string]any); ok {
					for k, v := range sample {
						merged[k] = v
					}
				}
			}
		}
		return merged
	}
	for _, kw := range []string{"oneOf", "anyOf"} {
		if branches, ok := schema[kw].([]any); ok && len(branches) > 0 {
			if bm, ok := branches[0].(map[string]any); ok {
				return s.sample(bm, seen)
			}
		}
	}
	return map[string]any{}
}

func isComposedSchema(schema map[string]any) bool {
	for _, kw := range []string{"oneOf", "anyOf", "allOf"} {
		if list, ok := schema[kw].([]any); ok && len(list) > 0 {
			return true
		}
	}
	return false
}

func sortedSchemaKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
