package model

import "fmt"

// Kind is the closed set of shapes a compiled schema node can take. Every
// projection and enrichment pass switches exhaustively on it instead of
// re-deriving shape from loose type/format strings.
type Kind int

const (
	KindPrimitive Kind = iota
	KindReference
	KindArray
	KindDictionary
	KindComposedOneOf
	KindComposedAnyOf
	KindComposedAllOf
	KindGeneric
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindReference:
		return "reference"
	case KindArray:
		return "array"
	case KindDictionary:
		return "dictionary"
	case KindComposedOneOf:
		return "one-of"
	case KindComposedAnyOf:
		return "any-of"
	case KindComposedAllOf:
		return "all-of"
	case KindGeneric:
		return "generic"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsComposed reports whether the kind is a oneOf/anyOf/allOf composition.
func (k Kind) IsComposed() bool {
	return k == KindComposedOneOf || k == KindComposedAnyOf || k == KindComposedAllOf
}

// Model is a node in the compiled schema graph. Models are constructed once
// per compilation run, mutated in place by the enrichment passes, and
// discarded after the render data graph is assembled.
type Model struct {
	Name    string
	Kind    Kind
	Type    string // raw OpenAPI type
	Format  string // date, date-time, int32, int64, float, double, byte, ...
	RefName string // for KindReference: the named schema it points to

	// Link is the element type for arrays and the value type for
	// dictionaries. The container owns its link chain; cycles reach back
	// into the graph through KindReference nodes looked up by name, never
	// through direct ownership.
	Link *Model

	// Properties holds object properties, or composed branches for the
	// composed kinds.
	Properties []*Model

	Required         bool
	Description      string
	Deprecated       bool
	IsEnum           bool
	EnumValues       []any
	IsInt32          bool
	IsInt64          bool
	IsNot            bool
	VendorExtensions map[string]any

	// Resolved only for composed kinds.
	ComposedModels     []*Model
	ComposedPrimitives []*Model

	// Per-target projections, keyed by target id.
	TargetNames map[string]string
	TargetTypes map[string]string

	Mock any

	// Imports lists the named models this model's type expression depends
	// on, deduplicated and sorted.
	Imports []string
}

// Parameter is a Model extended with its operation location.
type Parameter struct {
	Model
	Location         string // query, header, path, body
	Style            string
	Explode          *bool
	CollectionFormat string // csv, ssv, tsv, multi
	MediaType        string // body parameters only
	AcceptedMedia    []string
}

// Response is a declared operation response. Code 0 is the sentinel for the
// aliased default response.
type Response struct {
	Code        int
	Model       *Model
	MediaTypes  []string
	IsVoid      bool
	Description string
}

// Operation is one path+method pair.
type Operation struct {
	Path             string
	Method           string
	Name             string
	Summary          string
	Description      string
	Deprecated       bool
	Tag              string
	Parameters       []*Parameter
	Responses        []*Response
	Results          []*Response // success-only subset
	VendorExtensions map[string]any
}

// Service groups operations by their first declared tag.
type Service struct {
	Name       string
	Operations []*Operation
	Imports    []string
}

// Info carries the document's info block.
type Info struct {
	Title       string
	Version     string
	Description string
}

// RenderData is the final data graph handed to template rendering.
type RenderData struct {
	Models           []*Model
	Services         []*Service
	AllOperations    []*Operation
	Info             Info
	VendorExtensions map[string]any
}

// CompositionError reports an allOf composing a non-object member. It carries
// the offending model name so the problem can be located in the source
// document.
type CompositionError struct {
	Model  string
	Member string
}

func (e *CompositionError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("model: invalid composition: allOf member %q of %q is not an object", e.Member, e.Model)
	}
	return fmt.Sprintf("model: invalid composition: allOf of %q composes a non-object member", e.Model)
}
