package document

import (
	"sort"
	"strconv"

	"github.com/ivorycirrus/aws-pdk/internal/naming"
)

// HoistedExtension tags a schema that was hoisted out of an inline location.
// Downstream passes use it to decide generation eligibility for anonymous
// models.
const HoistedExtension = "x-inline-hoisted"

const schemaRefPrefix = "#/components/schemas/"

var methodOrder = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// Hoist rewrites the document so that every schema requiring a generated
// named type (object-with-properties, composite, string enum) is reachable
// only via $ref from components/schemas. It runs the operation-body pass
// first so synthesized response/request schemas take part in the general
// nested hoisting, then normalizes operation tags and inlines references to
// schemas that never get a generated type.
func Hoist(doc *Document) error {
	h := &hoister{doc: doc}
	h.hoistOperationBodies()
	h.hoistComponentSchemas()
	h.normalizeOperationTags()
	return inlineNonObjectRefs(doc)
}

type hoister struct {
	doc *Document
}

// hoistOperationBodies lifts inline object/array schemas out of JSON request
// and response bodies into named component schemas.
func (h *hoister) hoistOperationBodies() {
	paths := h.doc.Paths()
	for _, p := range sortedKeys(paths) {
		item, ok := paths[p].(map[string]any)
		if !ok {
			continue
		}
		for _, method := range methodOrder {
			op, ok := item[method].(map[string]any)
			if !ok {
				continue
			}
			base := operationBaseName(op, p, method)

			if responses, ok := op["responses"].(map[string]any); ok {
				for _, code := range sortedKeys(responses) {
					resp, ok := responses[code].(map[string]any)
					if !ok {
						continue
					}
					h.hoistJSONBody(resp, base+naming.PascalCase(code)+"Response")
				}
			}
			if body, ok := op["requestBody"].(map[string]any); ok {
				h.hoistJSONBody(body, base+"RequestContent")
			}
		}
	}
}

// hoistJSONBody replaces an inline object/array schema under
// content/application\/json/schema with a reference to a newly named schema.
func (h *hoister) hoistJSONBody(owner map[string]any, name string) {
	content, ok := owner["content"].(map[string]any)
	if !ok {
		return
	}
	media, ok := content["application/json"].(map[string]any)
	if !ok {
		return
	}
	schema, ok := media["schema"].(map[string]any)
	if !ok || IsRef(schema) || !isInlineObjectOrArray(schema) {
		return
	}
	h.doc.Schemas()[name] = schema
	media["schema"] = map[string]any{"$ref": schemaRefPrefix + name}
}

// hoistComponentSchemas runs the general depth-first inline hoisting over
// every named schema, including the ones the operation-body pass just added.
func (h *hoister) hoistComponentSchemas() {
	schemas := h.doc.Schemas()
	for _, name := range sortedKeys(schemas) {
		if s, ok := schemas[name].(map[string]any); ok {
			h.visit(s, []string{naming.PascalCase(name)})
		}
	}
}

// visit walks one schema node depth-first, hoisting child locations that need
// a generated named type. Children are recursed before the parent location is
// rewritten so references created by deeper hoists are captured first.
func (h *hoister) visit(s map[string]any, path []string) {
	if IsRef(s) {
		return
	}
	h.child(s["not"], path, "Not", func(r any) { s["not"] = r })

	for _, kw := range []string{"anyOf", "allOf", "oneOf"} {
		branches, ok := s[kw].([]any)
		if !ok {
			continue
		}
		anonymous := 0
		for i, branch := range branches {
			m, ok := branch.(map[string]any)
			if !ok || IsRef(m) {
				continue
			}
			if !isComplexBranch(m) {
				continue
			}
			seg := naming.PascalCase(kw)
			if anonymous > 0 {
				seg += strconv.Itoa(anonymous)
			}
			anonymous++
			i := i
			h.child(m, path, seg, func(r any) { branches[i] = r })
		}
	}

	h.child(s["items"], path, "Inner", func(r any) { s["items"] = r })
	if _, ok := s["additionalProperties"].(map[string]any); ok {
		h.child(s["additionalProperties"], path, "Value", func(r any) { s["additionalProperties"] = r })
	}

	if props, ok := s["properties"].(map[string]any); ok {
		for _, prop := range sortedKeys(props) {
			prop := prop
			h.child(props[prop], path, naming.PascalCase(prop), func(r any) { props[prop] = r })
		}
	}
}

// child recurses into one candidate location and, when the candidate needs a
// generated named type, registers a deep clone under components/schemas and
// replaces the original location with a reference. The clone breaks aliasing
// between the named schema and its former inline location.
func (h *hoister) child(node any, path []string, seg string, replace func(any)) {
	m, ok := node.(map[string]any)
	if !ok || IsRef(m) {
		return
	}
	childPath := append(append([]string{}, path...), seg)
	h.visit(m, childPath)
	if !needsNamedType(m) {
		return
	}
	name := hoistedName(m, path, seg)
	clone := CloneSchema(m)
	clone[HoistedExtension] = true
	h.doc.Schemas()[name] = clone
	replace(map[string]any{"$ref": schemaRefPrefix + name})
}

// normalizeOperationTags keeps only the first declared tag per operation so a
// multi-tagged operation does not generate duplicate wrappers.
func (h *hoister) normalizeOperationTags() {
	paths := h.doc.Paths()
	for _, p := range sortedKeys(paths) {
		item, ok := paths[p].(map[string]any)
		if !ok {
			continue
		}
		for _, method := range methodOrder {
			op, ok := item[method].(map[string]any)
			if !ok {
				continue
			}
			if tags, ok := op["tags"].([]any); ok && len(tags) > 1 {
				op["tags"] = tags[:1]
			}
		}
	}
}

// operationBaseName derives the PascalCase prefix used for synthesized
// operation body schema names.
func operationBaseName(op map[string]any, path, method string) string {
	if id, _ := op["operationId"].(string); id != "" {
		return naming.PascalCase(id)
	}
	return naming.PascalCase(path + " " + method)
}

// hoistedName builds the name for a hoisted schema: the declared title when
// present, otherwise the accumulated container path plus the contextual
// segment. Enums carry an Enum suffix for template-output stability.
func hoistedName(m map[string]any, path []string, seg string) string {
	var name string
	if title, _ := m["title"].(string); title != "" {
		name = naming.PascalCase(title)
	} else {
		for _, p := range path {
			name += p
		}
		name += seg
	}
	if isStringEnum(m) {
		name += "Enum"
	}
	return name
}

// needsNamedType reports whether an inline schema must become a hoisted named
// schema: an object with declared properties, a composite, or a string enum.
func needsNamedType(m map[string]any) bool {
	if props, ok := m["properties"].(map[string]any); ok && len(props) > 0 {
		return true
	}
	if isComposite(m) {
		return true
	}
	return isStringEnum(m)
}

// isComplexBranch reports whether a composition branch is itself a schema
// worth recursing into: an object, array, composite, enum, or not-schema.
func isComplexBranch(m map[string]any) bool {
	if needsNamedType(m) {
		return true
	}
	t, _ := m["type"].(string)
	if t == "object" || t == "array" {
		return true
	}
	if _, ok := m["items"]; ok {
		return true
	}
	if _, ok := m["not"]; ok {
		return true
	}
	return false
}

func isComposite(m map[string]any) bool {
	for _, kw := range []string{"oneOf", "anyOf", "allOf"} {
		if list, ok := m[kw].([]any); ok && len(list) > 0 {
			return true
		}
	}
	return false
}

// isStringEnum reports whether a schema is a string-valued enum. Enums of
// other primitive types inline at use sites instead of becoming named types.
func isStringEnum(m map[string]any) bool {
	values, ok := m["enum"].([]any)
	if !ok || len(values) == 0 {
		return false
	}
	if t, _ := m["type"].(string); t != "" && t != "string" {
		return false
	}
	for _, v := range values {
		if _, ok := v.(string); !ok {
			return false
		}
	}
	return true
}

func isInlineObjectOrArray(m map[string]any) bool {
	t, _ := m["type"].(string)
	if t == "object" || t == "array" {
		return true
	}
	if _, ok := m["properties"]; ok {
		return true
	}
	if _, ok := m["items"]; ok {
		return true
	}
	return isComposite(m)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
