package target

import "github.com/ivorycirrus/aws-pdk/internal/naming"

// TypeScript projection. Properties are camelCase; reserved collisions take a
// trailing underscore because a leading one changes visibility semantics for
// some TypeScript tooling.
var TypeScript = &Target{
	id:           "typescript",
	propertyCase: naming.CamelCase,
	reserved:     typescriptReserved,
	escape:       func(s string) string { return s + "_" },
	fundamentals: typescriptFundamentals,
	primitive:    typescriptPrimitive,
	sequence:     func(el string) string { return "Array<" + el + ">" },
	dictionary:   func(val string) string { return "{ [key: string]: " + val + "; }" },
}

var typescriptReserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "enum": true,
	"export": true, "extends": true, "false": true, "finally": true,
	"for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true,
	"return": true, "super": true, "switch": true, "this": true,
	"throw": true, "true": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true,
	"as": true, "implements": true, "interface": true, "let": true,
	"package": true, "private": true, "protected": true, "public": true,
	"static": true, "yield": true, "any": true, "boolean": true,
	"constructor": true, "declare": true, "get": true, "module": true,
	"require": true, "number": true, "set": true, "string": true,
	"symbol": true, "type": true, "from": true, "of": true,
	// generated client runtime internals
	"configuration": true, "fetch": true, "headers": true, "query": true,
	"body": true, "response": true, "options": true,
}

var typescriptFundamentals = map[string]bool{
	"Array": true, "Blob": true, "Boolean": true, "Date": true,
	"Error": true, "Function": true, "Map": true, "Number": true,
	"Object": true, "Promise": true, "Set": true, "String": true,
	"Symbol": true,
}

func typescriptPrimitive(rawType, format string) string {
	switch rawType {
	case "string":
		switch format {
		case "date", "date-time":
			return "Date"
		case "binary":
			return "Blob"
		default:
			return "string"
		}
	case "integer", "number":
		return "number"
	case "boolean":
		return "boolean"
	default:
		return "any"
	}
}
