package target

import (
	"github.com/ivorycirrus/aws-pdk/internal/model"
	"github.com/ivorycirrus/aws-pdk/internal/naming"
)

func pascal(s string) string { return naming.PascalCase(s) }

// Lookup resolves a named model in the compiled graph. Reference nodes carry
// names instead of pointers, so projection reaches back into the graph here.
type Lookup func(name string) *model.Model

// Target is one of the independently-ruled type systems code is generated
// for. Each target owns its casing convention, reserved-word table, and
// primitive type table.
type Target struct {
	id string

	// propertyCase converts a raw identifier to the target's property and
	// parameter casing.
	propertyCase func(string) string

	// reserved holds language keywords plus identifiers the generated
	// runtime uses internally. Any change to the generated runtime's
	// internal naming must be mirrored here or collisions silently
	// reappear.
	reserved map[string]bool

	// escape disambiguates a reserved-word collision.
	escape func(string) string

	// fundamentals are type names the language predeclares; a model named
	// after one is renamed with a Model prefix.
	fundamentals map[string]bool

	// primitive maps (rawType, format) to the target's type.
	primitive func(rawType, format string) string

	sequence   func(element string) string
	dictionary func(value string) string
}

// ID returns the target identifier used to key per-target projections.
func (t *Target) ID() string { return t.id }

// Name projects a property or parameter display name.
func (t *Target) Name(raw string) string {
	n := t.propertyCase(raw)
	if t.reserved[n] {
		n = t.escape(n)
	}
	return n
}

// TypeName projects a model name, renaming collisions with the target's
// fundamental type names.
func (t *Target) TypeName(raw string) string {
	n := pascal(raw)
	if t.fundamentals[n] {
		n = "Model" + n
	}
	return n
}

// Type projects a model node to the target's type expression.
func (t *Target) Type(m *model.Model, lookup Lookup) string {
	switch m.Kind {
	case model.KindReference:
		return t.TypeName(m.RefName)
	case model.KindArray:
		return t.sequence(t.elementType(m.Link, lookup))
	case model.KindDictionary:
		return t.dictionary(t.elementType(m.Link, lookup))
	case model.KindComposedOneOf, model.KindComposedAnyOf, model.KindComposedAllOf, model.KindGeneric:
		return t.TypeName(m.Name)
	default:
		return t.primitive(m.Type, m.Format)
	}
}

// elementType projects an array element or dictionary value. An enum element
// projects to the enum's underlying raw type instead of the enum type, which
// avoids over-eager enum nesting in container expressions.
func (t *Target) elementType(elem *model.Model, lookup Lookup) string {
	if elem == nil {
		return t.primitive("", "")
	}
	if elem.Kind == model.KindReference {
		if resolved := lookup(elem.RefName); resolved != nil && resolved.IsEnum {
			return t.primitive(resolved.Type, resolved.Format)
		}
		return t.TypeName(elem.RefName)
	}
	if elem.IsEnum {
		return t.primitive(elem.Type, elem.Format)
	}
	return t.Type(elem, lookup)
}

// All returns the supported targets in stable order.
func All() []*Target {
	return []*Target{TypeScript, Java, Python}
}

// Project computes per-target display names and type expressions for every
// model, property, parameter, and response in the graph. Each target walk
// carries its own visited set so cyclic graphs terminate.
func Project(g *model.Graph) {
	lookup := func(name string) *model.Model { return g.ByName[name] }
	for _, t := range All() {
		visited := map[*model.Model]bool{}
		for _, m := range g.Models {
			projectModel(t, m, lookup, visited, true)
		}
		for _, op := range g.Operations {
			for _, param := range op.Parameters {
				projectModel(t, &param.Model, lookup, visited, false)
			}
			for _, resp := range op.Responses {
				if resp.Model != nil {
					projectModel(t, resp.Model, lookup, visited, false)
				}
			}
		}
	}
}

func projectModel(t *Target, m *model.Model, lookup Lookup, visited map[*model.Model]bool, named bool) {
	if m == nil || visited[m] {
		return
	}
	visited[m] = true

	if m.TargetNames == nil {
		m.TargetNames = map[string]string{}
	}
	if m.TargetTypes == nil {
		m.TargetTypes = map[string]string{}
	}
	if named {
		m.TargetNames[t.ID()] = t.TypeName(m.Name)
	} else {
		m.TargetNames[t.ID()] = t.Name(m.Name)
	}
	m.TargetTypes[t.ID()] = t.Type(m, lookup)

	for _, p := range m.Properties {
		projectModel(t, p, lookup, visited, false)
	}
	projectModel(t, m.Link, lookup, visited, false)
}
