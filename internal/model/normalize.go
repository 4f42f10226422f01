package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/ivorycirrus/aws-pdk/internal/document"
	"github.com/ivorycirrus/aws-pdk/internal/naming"
)

// DefaultServiceName groups operations that declare no tag.
const DefaultServiceName = "default"

// Normalize unifies response codes, classifies parameters, names unnamed
// operations, groups operations into services, and applies the deterministic
// orderings templates depend on.
func Normalize(g *Graph) {
	for _, op := range g.Operations {
		if op.Name == "" {
			op.Name = generatedOperationName(op.Path, op.Method)
		}
		normalizeParameters(op)
		normalizeResponses(g, op)
	}
	orderGraph(g)
}

// generatedOperationName derives a name from the path template and method,
// rewriting {param} segments to by-param: GET /widgets/{id} becomes
// getWidgetsById.
func generatedOperationName(path, method string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	parts := []string{strings.ToLower(method)}
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			parts = append(parts, "by-"+strings.Trim(seg, "{}"))
			continue
		}
		parts = append(parts, seg)
	}
	return naming.CamelCase(strings.Join(parts, "-"))
}

func normalizeParameters(op *Operation) {
	for _, param := range op.Parameters {
		switch param.Location {
		case "body":
			if param.Model.Kind == KindReference {
				param.Model.Name = naming.CamelCase(param.Model.RefName)
			} else if param.Model.Name == "" {
				param.Model.Name = "body"
			}
		case "query":
			param.CollectionFormat = queryCollectionFormat(param.Style, param.Explode)
		case "header":
			param.CollectionFormat = headerCollectionFormat(param.Explode)
		}
	}
}

// queryCollectionFormat translates OpenAPI style/explode into the legacy
// collection-serialization format.
func queryCollectionFormat(style string, explode *bool) string {
	if isExploded(style, explode) {
		return "multi"
	}
	switch style {
	case "spaceDelimited":
		return "ssv"
	case "pipeDelimited":
		return "tsv"
	default: // form, simple, or unset
		return "csv"
	}
}

func headerCollectionFormat(explode *bool) string {
	if explode != nil && *explode {
		return "multi"
	}
	return "csv"
}

// isExploded applies the OpenAPI default: form style (and unset style, which
// defaults to form for query parameters) explodes unless disabled.
func isExploded(style string, explode *bool) bool {
	if explode != nil {
		return *explode
	}
	return style == "" || style == "form"
}

// normalizeResponses applies default-response aliasing: when the declared
// default response is structurally identical to the explicit 200 response,
// the 200 entry takes the sentinel code 0 and the separate default entry is
// dropped. The equality check is deliberately structural for parity with the
// legacy generator.
func normalizeResponses(g *Graph, op *Operation) {
	var defaultResp, okResp *Response
	for _, r := range op.Responses {
		switch r.Code {
		case 0:
			defaultResp = r
		case 200:
			okResp = r
		}
	}
	if defaultResp != nil && okResp != nil && rawResponsesIdentical(g, op) {
		kept := op.Responses[:0]
		for _, r := range op.Responses {
			if r == defaultResp {
				continue
			}
			kept = append(kept, r)
		}
		op.Responses = kept
		okResp.Code = 0
	}

	sort.Slice(op.Responses, func(i, j int) bool { return op.Responses[i].Code < op.Responses[j].Code })

	op.Results = nil
	for _, r := range op.Responses {
		if r.Code == 0 || (r.Code >= 200 && r.Code < 300) {
			op.Results = append(op.Results, r)
		}
	}
}

// rawResponsesIdentical deep-compares the raw default and 200 response
// subtrees, ignoring descriptions.
func rawResponsesIdentical(g *Graph, op *Operation) bool {
	rawItem, _ := g.Raw.Paths()[op.Path].(map[string]any)
	rawOp, _ := rawItem[op.Method].(map[string]any)
	rawResponses, _ := rawOp["responses"].(map[string]any)
	def, okDef := rawResponses["default"].(map[string]any)
	ok200, okOK := rawResponses["200"].(map[string]any)
	if !okDef || !okOK {
		return false
	}
	return bytes.Equal(responseFingerprint(def), responseFingerprint(ok200))
}

func responseFingerprint(resp map[string]any) []byte {
	clone := document.CloneSchema(resp)
	delete(clone, "description")
	// encoding/json writes map keys sorted, giving a canonical form.
	data, err := json.Marshal(clone)
	if err != nil {
		return nil
	}
	return data
}

// orderGraph applies the deterministic orderings: models lexicographic,
// operations within a service lexicographic by name, the default service
// first, and import lists deduplicated and sorted.
func orderGraph(g *Graph) {
	sort.Slice(g.Models, func(i, j int) bool { return g.Models[i].Name < g.Models[j].Name })
	for _, m := range g.Models {
		m.Imports = modelImports(m)
	}
	sort.Slice(g.Operations, func(i, j int) bool { return g.Operations[i].Name < g.Operations[j].Name })
}

// BuildServices groups operations by their first declared tag in
// deterministic order: the default service first, then lexicographic.
func BuildServices(g *Graph) []*Service {
	byTag := map[string]*Service{}
	for _, op := range g.Operations {
		tag := op.Tag
		if tag == "" {
			tag = DefaultServiceName
		}
		svc := byTag[tag]
		if svc == nil {
			svc = &Service{Name: tag}
			byTag[tag] = svc
		}
		svc.Operations = append(svc.Operations, op)
	}

	names := make([]string, 0, len(byTag))
	for name := range byTag {
		if name != DefaultServiceName {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := byTag[DefaultServiceName]; ok {
		names = append([]string{DefaultServiceName}, names...)
	}

	out := make([]*Service, 0, len(names))
	for _, name := range names {
		svc := byTag[name]
		sort.Slice(svc.Operations, func(i, j int) bool { return svc.Operations[i].Name < svc.Operations[j].Name })
		svc.Imports = serviceImports(svc)
		out = append(out, svc)
	}
	return out
}

// modelImports lists the named models a model's type expression depends on.
func modelImports(m *Model) []string {
	set := map[string]bool{}
	collectRefs(m, set, map[*Model]bool{})
	delete(set, m.Name)
	return sortedSet(set)
}

func serviceImports(svc *Service) []string {
	set := map[string]bool{}
	seen := map[*Model]bool{}
	for _, op := range svc.Operations {
		for _, param := range op.Parameters {
			collectRefs(&param.Model, set, seen)
		}
		for _, resp := range op.Responses {
			if resp.Model != nil {
				collectRefs(resp.Model, set, seen)
			}
		}
	}
	return sortedSet(set)
}

func collectRefs(m *Model, set map[string]bool, seen map[*Model]bool) {
	if m == nil || seen[m] {
		return
	}
	seen[m] = true
	if m.Kind == KindReference && m.RefName != "" {
		set[m.RefName] = true
		return
	}
	for _, p := range m.Properties {
		collectRefs(p, set, seen)
	}
	collectRefs(m.Link, set, seen)
}

func sortedSet(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
