package document

import (
	"strings"

	"github.com/mohae/deepcopy"
)

// Document is the bundled OpenAPI tree, held as a raw map so the hoisting and
// inlining passes can rewrite it in place. A Document is owned by exactly one
// compilation run; passes hand it off in pipeline order and must not retain a
// reference after handing off.
type Document struct {
	Root map[string]any
}

// ErrorCode categorizes document errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError             ErrorCode = "InputError"
	NetworkError           ErrorCode = "NetworkError"
	ParseError             ErrorCode = "ParseError"
	ConversionError        ErrorCode = "ConversionError"
	UnresolvableReference  ErrorCode = "UnresolvableReference"
)

// Error is a structured error with the offending reference or location.
type Error struct {
	Code     ErrorCode
	Message  string
	Ref      string // offending $ref, when applicable
	Location string // file path or URL
	Cause    error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Cause }

// Schemas returns the components/schemas map, creating the containers when
// absent so hoisting can always register new named schemas.
func (d *Document) Schemas() map[string]any {
	components, ok := d.Root["components"].(map[string]any)
	if !ok {
		components = map[string]any{}
		d.Root["components"] = components
	}
	schemas, ok := components["schemas"].(map[string]any)
	if !ok {
		schemas = map[string]any{}
		components["schemas"] = schemas
	}
	return schemas
}

// Paths returns the paths map, or nil when the document declares none.
func (d *Document) Paths() map[string]any {
	paths, _ := d.Root["paths"].(map[string]any)
	return paths
}

// Info returns the info object, or nil.
func (d *Document) Info() map[string]any {
	info, _ := d.Root["info"].(map[string]any)
	return info
}

// Clone returns a deep copy of the document. Mock-value sampling operates on
// a clone so it can dereference freely without aliasing the pipeline's tree.
func (d *Document) Clone() *Document {
	return &Document{Root: deepcopy.Copy(d.Root).(map[string]any)}
}

// VendorExtensions collects the x-prefixed keys of a raw node.
func VendorExtensions(node map[string]any) map[string]any {
	var out map[string]any
	for k, v := range node {
		if strings.HasPrefix(k, "x-") {
			if out == nil {
				out = map[string]any{}
			}
			out[k] = v
		}
	}
	return out
}

// CloneSchema deep-copies a raw schema node.
func CloneSchema(node map[string]any) map[string]any {
	return deepcopy.Copy(node).(map[string]any)
}

// IsRef reports whether a raw node is a reference.
func IsRef(node map[string]any) bool {
	ref, ok := node["$ref"].(string)
	return ok && ref != ""
}
