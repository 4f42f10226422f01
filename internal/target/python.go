package target

import "github.com/ivorycirrus/aws-pdk/internal/naming"

// Python projection. Properties are snake_case; reserved collisions take a
// leading underscore.
var Python = &Target{
	id:           "python",
	propertyCase: naming.SnakeCase,
	reserved:     pythonReserved,
	escape:       func(s string) string { return "_" + s },
	fundamentals: pythonFundamentals,
	primitive:    pythonPrimitive,
	sequence:     func(el string) string { return "List[" + el + "]" },
	dictionary:   func(val string) string { return "Dict[str, " + val + "]" },
}

var pythonReserved = map[string]bool{
	"and": true, "as": true, "assert": true, "async": true,
	"await": true, "break": true, "class": true, "continue": true,
	"def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true,
	"global": true, "if": true, "import": true, "in": true,
	"is": true, "lambda": true, "nonlocal": true, "not": true,
	"or": true, "pass": true, "raise": true, "return": true,
	"try": true, "while": true, "with": true, "yield": true,
	"False": true, "None": true, "True": true,
	// generated client runtime internals
	"self": true, "property": true, "schema": true, "configuration": true,
	"api_client": true, "local_vars": true,
}

var pythonFundamentals = map[string]bool{
	"Any": true, "Bool": true, "Bytes": true, "Callable": true,
	"Date": true, "Datetime": true, "Decimal": true, "Dict": true,
	"Float": true, "Int": true, "List": true, "Object": true,
	"Optional": true, "Set": true, "Str": true, "Tuple": true,
	"Type": true, "Union": true,
}

func pythonPrimitive(rawType, format string) string {
	switch rawType {
	case "string":
		switch format {
		case "date":
			return "date"
		case "date-time":
			return "datetime"
		case "byte", "binary":
			return "bytearray"
		default:
			return "str"
		}
	case "integer":
		return "int"
	case "number":
		switch format {
		case "float", "double":
			return "float"
		default:
			return "Decimal"
		}
	case "boolean":
		return "bool"
	default:
		return "object"
	}
}
