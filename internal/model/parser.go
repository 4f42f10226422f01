package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/ivorycirrus/aws-pdk/internal/document"
)

// Graph is the compiled model/operation graph threaded through the
// enrichment passes. ByName is the canonical identity lookup for named
// models; cyclic schema graphs reach back into it through KindReference
// nodes.
type Graph struct {
	Models           []*Model
	ByName           map[string]*Model
	Operations       []*Operation
	Info             Info
	VendorExtensions map[string]any

	// Raw is the hoisted document the models were extracted from. The
	// enrichment passes walk it in lockstep with the Model tree.
	Raw *document.Document
}

var methodOrder = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// Parse hands the fully hoisted document to kin-openapi and builds the
// initial model/operation graph from the result. The extraction is
// authoritative for basic shape; metadata, links, and composite resolution
// are completed by the enrichment passes.
func Parse(ctx context.Context, doc *document.Document) (*Graph, error) {
	data, err := json.Marshal(doc.Root)
	if err != nil {
		return nil, fmt.Errorf("model: encode document: %w", err)
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	oas, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("model: parse document: %w", err)
	}

	g := &Graph{
		ByName:           map[string]*Model{},
		VendorExtensions: document.VendorExtensions(doc.Root),
		Raw:              doc,
	}
	if oas.Info != nil {
		g.Info = Info{
			Title:       strings.TrimSpace(oas.Info.Title),
			Version:     strings.TrimSpace(oas.Info.Version),
			Description: strings.TrimSpace(oas.Info.Description),
		}
	}

	p := &parser{raw: doc}
	if oas.Components != nil && oas.Components.Schemas != nil {
		rawSchemas := doc.Schemas()
		names := make([]string, 0, len(oas.Components.Schemas))
		for name := range oas.Components.Schemas {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rawSchema, _ := rawSchemas[name].(map[string]any)
			m := p.schemaModel(name, oas.Components.Schemas[name], rawSchema)
			if m == nil {
				continue
			}
			g.Models = append(g.Models, m)
			g.ByName[name] = m
		}
	}

	p.operations(g, oas)
	return g, nil
}

type parser struct {
	raw *document.Document
}

// schemaModel converts one kin-openapi schema into a Model, walking the raw
// node in lockstep so dictionary shapes (which the base extraction does not
// distinguish from plain objects) classify correctly.
func (p *parser) schemaModel(name string, ref *openapi3.SchemaRef, raw map[string]any) *Model {
	if ref == nil {
		return nil
	}
	if ref.Ref != "" {
		target := document.RefName(ref.Ref)
		return &Model{Name: name, Kind: KindReference, RefName: target}
	}
	s := ref.Value
	if s == nil {
		return nil
	}

	m := &Model{
		Name:        name,
		Type:        s.Type,
		Format:      s.Format,
		Description: strings.TrimSpace(s.Description),
		Deprecated:  s.Deprecated,
	}
	if len(s.Enum) > 0 {
		m.IsEnum = true
		m.EnumValues = append([]any(nil), s.Enum...)
	}

	switch {
	case len(s.OneOf) > 0:
		m.Kind = KindComposedOneOf
		m.Properties = p.branchModels(s.OneOf, raw, "oneOf")
	case len(s.AnyOf) > 0:
		m.Kind = KindComposedAnyOf
		m.Properties = p.branchModels(s.AnyOf, raw, "anyOf")
	case len(s.AllOf) > 0:
		m.Kind = KindComposedAllOf
		m.Properties = p.branchModels(s.AllOf, raw, "allOf")
	case s.Type == "array":
		m.Kind = KindArray
		if s.Items != nil && s.Items.Ref != "" {
			target := document.RefName(s.Items.Ref)
			m.Link = &Model{Name: target, Kind: KindReference, RefName: target}
		}
	case len(s.Properties) > 0:
		m.Kind = KindGeneric
		m.Properties = p.propertyModels(s, raw)
	case s.Type == "object":
		if isRawDictionary(raw) {
			m.Kind = KindDictionary
			if values, ok := rawChild(raw, "additionalProperties"); ok && document.IsRef(values) {
				target := document.RefName(values["$ref"].(string))
				m.Link = &Model{Name: target, Kind: KindReference, RefName: target}
			}
		} else {
			m.Kind = KindGeneric
		}
	default:
		m.Kind = KindPrimitive
	}
	return m
}

func (p *parser) propertyModels(s *openapi3.Schema, raw map[string]any) []*Model {
	required := map[string]bool{}
	for _, r := range s.Required {
		required[r] = true
	}
	rawProps, _ := rawChild(raw, "properties")

	names := make([]string, 0, len(s.Properties))
	for n := range s.Properties {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]*Model, 0, len(names))
	for _, n := range names {
		rawProp, _ := rawProps[n].(map[string]any)
		child := p.schemaModel(n, s.Properties[n], rawProp)
		if child == nil {
			continue
		}
		child.Required = required[n]
		out = append(out, child)
	}
	return out
}

func (p *parser) branchModels(refs openapi3.SchemaRefs, raw map[string]any, keyword string) []*Model {
	rawBranches, _ := raw[keyword].([]any)
	out := make([]*Model, 0, len(refs))
	for i, ref := range refs {
		var rawBranch map[string]any
		if i < len(rawBranches) {
			rawBranch, _ = rawBranches[i].(map[string]any)
		}
		name := ""
		if ref != nil && ref.Ref != "" {
			name = document.RefName(ref.Ref)
		}
		if child := p.schemaModel(name, ref, rawBranch); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// operations extracts every path+method pair, merging path-level parameters
// with operation-level ones (operation level wins on in+name collisions).
func (p *parser) operations(g *Graph, oas *openapi3.T) {
	if oas.Paths == nil {
		return
	}
	rawPaths := p.raw.Paths()

	pathKeys := make([]string, 0, len(oas.Paths))
	for k := range oas.Paths {
		pathKeys = append(pathKeys, k)
	}
	sort.Strings(pathKeys)

	for _, path := range pathKeys {
		item := oas.Paths[path]
		if item == nil {
			continue
		}
		rawItem, _ := rawPaths[path].(map[string]any)
		ops := map[string]*openapi3.Operation{
			"get": item.Get, "put": item.Put, "post": item.Post,
			"delete": item.Delete, "options": item.Options, "head": item.Head,
			"patch": item.Patch, "trace": item.Trace,
		}
		for _, method := range methodOrder {
			oasOp := ops[method]
			if oasOp == nil {
				continue
			}
			rawOp, _ := rawItem[method].(map[string]any)
			op := &Operation{
				Path:             path,
				Method:           method,
				Name:             strings.TrimSpace(oasOp.OperationID),
				Summary:          strings.TrimSpace(oasOp.Summary),
				Description:      strings.TrimSpace(oasOp.Description),
				Deprecated:       oasOp.Deprecated,
				VendorExtensions: document.VendorExtensions(rawOp),
			}
			if len(oasOp.Tags) > 0 {
				op.Tag = strings.TrimSpace(oasOp.Tags[0])
			}

			op.Parameters = p.parameters(item.Parameters, oasOp.Parameters, rawOp)
			if body := p.bodyParameter(oasOp.RequestBody, rawOp); body != nil {
				op.Parameters = append(op.Parameters, body)
			}
			op.Responses = p.responses(oasOp.Responses, rawOp)

			g.Operations = append(g.Operations, op)
		}
	}
}

func (p *parser) parameters(pathLevel, opLevel openapi3.Parameters, rawOp map[string]any) []*Parameter {
	merged := map[string]*Parameter{}
	order := []string{}
	add := func(ref *openapi3.ParameterRef) {
		if ref == nil || ref.Value == nil {
			return
		}
		v := ref.Value
		rawSchema := rawParameterSchema(rawOp, v.Name, v.In)
		pm := p.schemaModel(strings.TrimSpace(v.Name), v.Schema, rawSchema)
		if pm == nil {
			pm = &Model{Name: strings.TrimSpace(v.Name), Kind: KindPrimitive, Type: "string"}
		}
		pm.Required = v.Required
		param := &Parameter{
			Model:    *pm,
			Location: strings.TrimSpace(v.In),
			Style:    strings.TrimSpace(v.Style),
			Explode:  v.Explode,
		}
		key := param.Location + ":" + param.Model.Name
		if _, seen := merged[key]; !seen {
			order = append(order, key)
		}
		merged[key] = param
	}
	for _, ref := range pathLevel {
		add(ref)
	}
	for _, ref := range opLevel {
		add(ref)
	}

	out := make([]*Parameter, 0, len(order))
	for _, key := range order {
		out = append(out, merged[key])
	}
	return out
}

// bodyParameter models the request body as a body-located parameter; the
// normalizer names it afterwards.
func (p *parser) bodyParameter(ref *openapi3.RequestBodyRef, rawOp map[string]any) *Parameter {
	if ref == nil || ref.Value == nil || len(ref.Value.Content) == 0 {
		return nil
	}
	media := make([]string, 0, len(ref.Value.Content))
	for mime := range ref.Value.Content {
		media = append(media, mime)
	}
	sort.Strings(media)

	mime := media[0]
	if _, ok := ref.Value.Content["application/json"]; ok {
		mime = "application/json"
	}
	mt := ref.Value.Content[mime]

	var rawSchema map[string]any
	if rawBody, ok := rawChild(rawOp, "requestBody"); ok {
		rawSchema = rawMediaSchema(rawBody, mime)
	}
	var pm *Model
	if mt != nil {
		pm = p.schemaModel("", mt.Schema, rawSchema)
	}
	if pm == nil {
		pm = &Model{Kind: KindPrimitive, Type: "string"}
	}
	pm.Required = ref.Value.Required
	return &Parameter{
		Model:         *pm,
		Location:      "body",
		MediaType:     mime,
		AcceptedMedia: media,
	}
}

func (p *parser) responses(responses openapi3.Responses, rawOp map[string]any) []*Response {
	if responses == nil {
		return nil
	}
	rawResponses, _ := rawChild(rawOp, "responses")

	codes := make([]string, 0, len(responses))
	for code := range responses {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]*Response, 0, len(codes))
	for _, code := range codes {
		ref := responses[code]
		if ref == nil || ref.Value == nil {
			continue
		}
		v := ref.Value
		r := &Response{}
		if code == "default" {
			r.Code = 0
		} else {
			n, err := strconv.Atoi(code)
			if err != nil {
				continue
			}
			r.Code = n
		}
		if v.Description != nil {
			r.Description = strings.TrimSpace(*v.Description)
		}
		if len(v.Content) == 0 {
			r.IsVoid = true
			out = append(out, r)
			continue
		}
		for mime := range v.Content {
			r.MediaTypes = append(r.MediaTypes, mime)
		}
		sort.Strings(r.MediaTypes)

		mime := r.MediaTypes[0]
		if _, ok := v.Content["application/json"]; ok {
			mime = "application/json"
		}
		var rawSchema map[string]any
		if rawResp, ok := rawResponses[code].(map[string]any); ok {
			rawSchema = rawMediaSchema(rawResp, mime)
		}
		if mt := v.Content[mime]; mt != nil {
			r.Model = p.schemaModel("", mt.Schema, rawSchema)
		}
		if r.Model == nil {
			r.IsVoid = true
		}
		out = append(out, r)
	}
	return out
}

// rawParameterSchema finds the raw schema of a parameter by in+name across
// the operation's declared parameter list.
func rawParameterSchema(rawOp map[string]any, name, in string) map[string]any {
	params, _ := rawOp["parameters"].([]any)
	for _, p := range params {
		pm, _ := p.(map[string]any)
		if pm == nil {
			continue
		}
		if n, _ := pm["name"].(string); n != name {
			continue
		}
		if i, _ := pm["in"].(string); i != in {
			continue
		}
		schema, _ := pm["schema"].(map[string]any)
		return schema
	}
	return nil
}

func rawMediaSchema(owner map[string]any, mime string) map[string]any {
	content, ok := rawChild(owner, "content")
	if !ok {
		return nil
	}
	media, ok := content[mime].(map[string]any)
	if !ok {
		return nil
	}
	schema, _ := media["schema"].(map[string]any)
	return schema
}

func rawChild(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}
	child, ok := m[key].(map[string]any)
	return child, ok
}

// isRawDictionary reports whether the raw schema declares map semantics: an
// additionalProperties schema (or explicit true) without declared properties.
func isRawDictionary(raw map[string]any) bool {
	if raw == nil {
		return false
	}
	if props, ok := raw["properties"].(map[string]any); ok && len(props) > 0 {
		return false
	}
	switch ap := raw["additionalProperties"].(type) {
	case map[string]any:
		return true
	case bool:
		return ap
	}
	return false
}
