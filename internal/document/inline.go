package document

// inlineNonObjectRefs replaces every reference to a schema that will not get
// a generated named type (anything other than an object, composite, or string
// enum) with the resolved schema body at the use site, then deletes the named
// entries that nothing references anymore. The base parser only produces
// generated types for objects and enums; everything else must appear as an
// inline primitive/array/dictionary expression wherever it is used.
func inlineNonObjectRefs(doc *Document) error {
	candidates := map[string]bool{}
	if err := inlineWalk(doc, doc.Root, nil, candidates); err != nil {
		return err
	}

	remaining := map[string]int{}
	countRefs(doc.Root, remaining)
	schemas := doc.Schemas()
	for name := range candidates {
		if remaining[name] == 0 {
			delete(schemas, name)
		}
	}
	return nil
}

func inlineWalk(doc *Document, node any, seen []string, candidates map[string]bool) error {
	switch n := node.(type) {
	case map[string]any:
		if IsRef(n) {
			ref := n["$ref"].(string)
			resolved, err := doc.Resolve(ref)
			if err != nil {
				return err
			}
			name := RefName(ref)
			if name == "" || isGeneratedType(resolved) {
				return nil
			}
			// A reference participating in its own expansion stays a
			// reference; the named entry survives the cleanup scan.
			for _, s := range seen {
				if s == name {
					return nil
				}
			}
			candidates[name] = true
			body := CloneSchema(resolved)
			for k := range n {
				delete(n, k)
			}
			for k, v := range body {
				n[k] = v
			}
			return inlineWalk(doc, node, append(seen, name), candidates)
		}
		for _, k := range sortedKeys(n) {
			if err := inlineWalk(doc, n[k], seen, candidates); err != nil {
				return err
			}
		}
	case []any:
		for _, v := range n {
			if err := inlineWalk(doc, v, seen, candidates); err != nil {
				return err
			}
		}
	}
	return nil
}

// isGeneratedType reports whether a named schema keeps its generated type:
// objects, composites, and string enums stay referenced by name.
func isGeneratedType(m map[string]any) bool {
	if t, _ := m["type"].(string); t == "object" {
		return true
	}
	if props, ok := m["properties"].(map[string]any); ok && len(props) > 0 {
		return true
	}
	if isComposite(m) {
		return true
	}
	return isStringEnum(m)
}

func countRefs(node any, counts map[string]int) {
	switch n := node.(type) {
	case map[string]any:
		if IsRef(n) {
			if name := RefName(n["$ref"].(string)); name != "" {
				counts[name]++
			}
			return
		}
		for _, v := range n {
			countRefs(v, counts)
		}
	case []any:
		for _, v := range n {
			countRefs(v, counts)
		}
	}
}
