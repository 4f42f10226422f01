package document

import (
	"fmt"
	"strings"
)

// Resolve looks up a JSON-Pointer style reference of the form "#/a/b/c"
// against the current document snapshot. Segments unescape "~1" to "/" and
// "~0" to "~" per RFC 6901. A reference that does not land on a map node is
// an UnresolvableReference; resolution is a pure lookup with no side effects,
// so it must be re-run after any rewrite of components/schemas.
func (d *Document) Resolve(ref string) (map[string]any, error) {
	if !strings.HasPrefix(ref, "#/") {
		return nil, &Error{Code: UnresolvableReference, Message: fmt.Sprintf("document: unsupported reference %q (only in-document references are allowed)", ref), Ref: ref}
	}
	node := any(d.Root)
	for _, seg := range strings.Split(ref[2:], "/") {
		seg = strings.ReplaceAll(seg, "~1", "/")
		seg = strings.ReplaceAll(seg, "~0", "~")
		m, ok := node.(map[string]any)
		if !ok {
			return nil, unresolvable(ref)
		}
		node, ok = m[seg]
		if !ok {
			return nil, unresolvable(ref)
		}
	}
	out, ok := node.(map[string]any)
	if !ok {
		return nil, unresolvable(ref)
	}
	return out, nil
}

// ResolveIfRef returns the node unchanged when it is not a reference, and the
// resolved target otherwise.
func (d *Document) ResolveIfRef(node map[string]any) (map[string]any, error) {
	if !IsRef(node) {
		return node, nil
	}
	return d.Resolve(node["$ref"].(string))
}

// RefName extracts the schema name from a components/schemas reference, or ""
// when the reference points elsewhere.
func RefName(ref string) string {
	const prefix = "#/components/schemas/"
	if strings.HasPrefix(ref, prefix) {
		return ref[len(prefix):]
	}
	return ""
}

func unresolvable(ref string) error {
	return &Error{Code: UnresolvableReference, Message: fmt.Sprintf("document: cannot resolve reference %q", ref), Ref: ref}
}
