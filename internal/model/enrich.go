package model

import (
	"strconv"
	"strings"

	"github.com/ivorycirrus/aws-pdk/internal/document"
)

// Enrich runs the three graph enrichment passes in order: composite
// resolution, link completion, and metadata propagation. Each pass is a
// cycle-safe depth-first walk guarded by its own visited set keyed on node
// identity, so cyclic schema graphs terminate and every node is enriched
// exactly once per pass.
func Enrich(g *Graph) error {
	if err := ResolveComposites(g); err != nil {
		return err
	}
	CompleteLinks(g)
	PropagateMetadata(g)
	return nil
}

// ResolveComposites attaches the resolved member lists to every composed
// model. Referenced members resolve recursively first so nested allOf chains
// contribute their own flattened members; an allOf composing a non-object
// member fails compilation.
func ResolveComposites(g *Graph) error {
	visited := map[*Model]bool{}
	for _, m := range g.Models {
		if err := resolveComposite(g, m, visited); err != nil {
			return err
		}
	}
	return nil
}

func resolveComposite(g *Graph, m *Model, visited map[*Model]bool) error {
	if m == nil || visited[m] {
		return nil
	}
	visited[m] = true

	if !m.Kind.IsComposed() {
		// Composites are named after hoisting, but walk the ownership tree
		// anyway so models only reachable through properties resolve too.
		for _, p := range m.Properties {
			if err := resolveComposite(g, p, visited); err != nil {
				return err
			}
		}
		return resolveComposite(g, m.Link, visited)
	}

	var members []*Model
	var primitives []*Model
	for _, branch := range m.Properties {
		if branch.Kind == KindReference {
			member := g.ByName[branch.RefName]
			if member == nil {
				continue
			}
			if err := resolveComposite(g, member, visited); err != nil {
				return err
			}
			if m.Kind == KindComposedAllOf && !isObjectMember(member) {
				return &CompositionError{Model: m.Name, Member: member.Name}
			}
			members = appendMember(members, member)
			if m.Kind == KindComposedAllOf {
				// Full transitive flattening: a nested allOf member
				// contributes its own resolved members.
				for _, inherited := range member.ComposedModels {
					members = appendMember(members, inherited)
				}
			}
			continue
		}
		if m.Kind == KindComposedAllOf && branch.Type != "object" {
			return &CompositionError{Model: m.Name, Member: branch.Name}
		}
		primitives = append(primitives, branch)
	}
	m.ComposedModels = members
	m.ComposedPrimitives = primitives
	return nil
}

// isObjectMember reports whether a named model can take part in an allOf:
// object models and (already validated) nested allOf chains qualify.
func isObjectMember(m *Model) bool {
	return m.Kind == KindGeneric || m.Kind == KindComposedAllOf
}

func appendMember(members []*Model, m *Model) []*Model {
	for _, existing := range members {
		if existing == m || (m.Name != "" && existing.Name == m.Name) {
			return members
		}
	}
	return append(members, m)
}

// CompleteLinks walks the raw hoisted schemas in lockstep with the model
// graph and fills in the element/value types the base extraction left unset
// on array and dictionary nodes.
func CompleteLinks(g *Graph) {
	visited := map[*Model]bool{}
	rawSchemas := g.Raw.Schemas()
	for _, m := range g.Models {
		raw, _ := rawSchemas[m.Name].(map[string]any)
		completeLink(g, m, raw, visited)
	}
	forEachOperationModel(g, func(m *Model, raw map[string]any) {
		completeLink(g, m, raw, visited)
	})
}

func completeLink(g *Graph, m *Model, raw map[string]any, visited map[*Model]bool) {
	if m == nil || visited[m] {
		return
	}
	visited[m] = true
	if raw == nil {
		return
	}

	switch m.Kind {
	case KindArray, KindDictionary:
		key := "items"
		if m.Kind == KindDictionary {
			key = "additionalProperties"
		}
		child, ok := raw[key].(map[string]any)
		if !ok {
			return
		}
		if m.Link == nil {
			if document.IsRef(child) {
				name := document.RefName(child["$ref"].(string))
				m.Link = &Model{Name: name, Kind: KindReference, RefName: name}
			} else {
				m.Link = linkModelFromRaw(child)
			}
		}
		if m.Link.Kind != KindReference {
			completeLink(g, m.Link, child, visited)
		}
	case KindGeneric:
		rawProps, _ := raw["properties"].(map[string]any)
		for _, p := range m.Properties {
			rawProp, _ := rawProps[strings.TrimSpace(p.Name)].(map[string]any)
			completeLink(g, p, rawProp, visited)
		}
	case KindComposedOneOf, KindComposedAnyOf, KindComposedAllOf:
		rawBranches, _ := raw[compositionKeyword(m.Kind)].([]any)
		for i, p := range m.Properties {
			var rawBranch map[string]any
			if i < len(rawBranches) {
				rawBranch, _ = rawBranches[i].(map[string]any)
			}
			completeLink(g, p, rawBranch, visited)
		}
	}
}

// linkModelFromRaw builds an inline link node (primitive, nested array, or
// dictionary) directly from the raw schema. After hoisting, inline nodes
// never contain object-with-properties shapes, so this recursion bottoms out
// at primitives and references.
func linkModelFromRaw(raw map[string]any) *Model {
	t, _ := raw["type"].(string)
	f, _ := raw["format"].(string)
	m := &Model{Type: t, Format: f}
	switch {
	case t == "array":
		m.Kind = KindArray
	case isRawDictionary(raw):
		m.Kind = KindDictionary
	case t == "object":
		m.Kind = KindGeneric
	default:
		m.Kind = KindPrimitive
	}
	if values, ok := raw["enum"].([]any); ok && len(values) > 0 {
		m.IsEnum = true
		m.EnumValues = append([]any(nil), values...)
	}
	return m
}

func compositionKeyword(k Kind) string {
	switch k {
	case KindComposedOneOf:
		return "oneOf"
	case KindComposedAnyOf:
		return "anyOf"
	default:
		return "allOf"
	}
}

// PropagateMetadata attaches format, deprecation, enum, integer-width, not,
// vendor-extension, and mock-sample information onto every node by walking
// the raw schema in lockstep with the model tree.
func PropagateMetadata(g *Graph) {
	sampler := newSampler(g.Raw)
	visited := map[*Model]bool{}
	rawSchemas := g.Raw.Schemas()
	for _, m := range g.Models {
		raw, _ := rawSchemas[m.Name].(map[string]any)
		propagateMetadata(g, m, raw, sampler, visited)
	}
	forEachOperationModel(g, func(m *Model, raw map[string]any) {
		propagateMetadata(g, m, raw, sampler, visited)
	})
}

func propagateMetadata(g *Graph, m *Model, raw map[string]any, sampler *sampler, visited map[*Model]bool) {
	if m == nil || visited[m] {
		return
	}
	visited[m] = true
	if raw == nil {
		return
	}

	if m.Kind == KindReference {
		// The referenced model is enriched at its own definition site.
		return
	}

	if f, _ := raw["format"].(string); f != "" {
		m.Format = f
	}
	if d, _ := raw["deprecated"].(bool); d {
		m.Deprecated = true
	}
	if values, ok := raw["enum"].([]any); ok && len(values) > 0 {
		m.IsEnum = true
		if len(m.EnumValues) == 0 {
			m.EnumValues = append([]any(nil), values...)
		}
	}
	if m.Type == "integer" || raw["type"] == "integer" {
		m.IsInt32 = m.Format == "int32" || m.Format == ""
		m.IsInt64 = m.Format == "int64"
	}
	if _, ok := raw["not"]; ok {
		m.IsNot = true
	}
	if ext := document.VendorExtensions(raw); len(ext) > 0 {
		m.VendorExtensions = ext
	}
	m.Mock = sampler.Sample(raw)

	switch m.Kind {
	case KindArray:
		if rawItems, ok := raw["items"].(map[string]any); ok {
			propagateMetadata(g, m.Link, rawItems, sampler, visited)
		}
	case KindDictionary:
		if rawValues, ok := raw["additionalProperties"].(map[string]any); ok {
			propagateMetadata(g, m.Link, rawValues, sampler, visited)
		}
	case KindGeneric:
		rawProps, _ := raw["properties"].(map[string]any)
		for _, p := range m.Properties {
			rawProp, _ := rawProps[strings.TrimSpace(p.Name)].(map[string]any)
			propagateMetadata(g, p, rawProp, sampler, visited)
		}
	case KindComposedOneOf, KindComposedAnyOf, KindComposedAllOf:
		rawBranches, _ := raw[compositionKeyword(m.Kind)].([]any)
		for i, p := range m.Properties {
			var rawBranch map[string]any
			if i < len(rawBranches) {
				rawBranch, _ = rawBranches[i].(map[string]any)
			}
			propagateMetadata(g, p, rawBranch, sampler, visited)
		}
	}
}

// forEachOperationModel walks every parameter and response model of every
// operation together with its raw schema node.
func forEachOperationModel(g *Graph, fn func(m *Model, raw map[string]any)) {
	rawPaths := g.Raw.Paths()
	for _, op := range g.Operations {
		rawItem, _ := rawPaths[op.Path].(map[string]any)
		rawOp, _ := rawItem[op.Method].(map[string]any)
		for _, param := range op.Parameters {
			var raw map[string]any
			if param.Location == "body" {
				if rawBody, ok := rawOp["requestBody"].(map[string]any); ok {
					raw = rawMediaSchema(rawBody, param.MediaType)
				}
			} else {
				raw = rawParameterSchema(rawOp, param.Model.Name, param.Location)
			}
			fn(&param.Model, raw)
		}
		rawResponses, _ := rawOp["responses"].(map[string]any)
		for _, resp := range op.Responses {
			if resp.Model == nil || len(resp.MediaTypes) == 0 {
				continue
			}
			code := responseRawCode(resp, rawResponses)
			rawResp, _ := rawResponses[code].(map[string]any)
			mime := resp.MediaTypes[0]
			for _, mt := range resp.MediaTypes {
				if mt == "application/json" {
					mime = mt
					break
				}
			}
			fn(resp.Model, rawMediaSchema(rawResp, mime))
		}
	}
}

// responseRawCode maps a parsed response back to its raw key; a code of 0
// before normalization means the document declared "default".
func responseRawCode(resp *Response, rawResponses map[string]any) string {
	if resp.Code == 0 {
		if _, ok := rawResponses["default"]; ok {
			return "default"
		}
		return "200"
	}
	return strconv.Itoa(resp.Code)
}
