package target

import "github.com/ivorycirrus/aws-pdk/internal/naming"

// Java projection. Properties are camelCase; reserved collisions take a
// leading underscore, which is a legal Java identifier prefix.
var Java = &Target{
	id:           "java",
	propertyCase: naming.CamelCase,
	reserved:     javaReserved,
	escape:       func(s string) string { return "_" + s },
	fundamentals: javaFundamentals,
	primitive:    javaPrimitive,
	sequence:     func(el string) string { return "List<" + el + ">" },
	dictionary:   func(val string) string { return "Map<String, " + val + ">" },
}

var javaReserved = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true,
	"class": true, "const": true, "continue": true, "default": true,
	"do": true, "double": true, "else": true, "enum": true,
	"extends": true, "final": true, "finally": true, "float": true,
	"for": true, "goto": true, "if": true, "implements": true,
	"import": true, "instanceof": true, "int": true, "interface": true,
	"long": true, "native": true, "new": true, "package": true,
	"private": true, "protected": true, "public": true, "return": true,
	"short": true, "static": true, "strictfp": true, "super": true,
	"switch": true, "synchronized": true, "this": true, "throw": true,
	"throws": true, "transient": true, "try": true, "void": true,
	"volatile": true, "while": true, "true": true, "false": true,
	"null": true,
	// generated client runtime internals
	"apiClient": true, "localVarPath": true, "localVarHeaders": true,
	"localVarQueryParams": true, "localVarBody": true,
}

var javaFundamentals = map[string]bool{
	"Boolean": true, "Byte": true, "Character": true, "Class": true,
	"Double": true, "Enum": true, "Float": true, "Integer": true,
	"List": true, "Long": true, "Map": true, "Number": true,
	"Object": true, "Short": true, "String": true, "Thread": true,
	"Void": true,
}

func javaPrimitive(rawType, format string) string {
	switch rawType {
	case "string":
		switch format {
		case "date":
			return "LocalDate"
		case "date-time":
			return "OffsetDateTime"
		case "byte":
			return "byte[]"
		case "binary":
			return "File"
		default:
			return "String"
		}
	case "integer":
		if format == "int64" {
			return "Long"
		}
		return "Integer"
	case "number":
		switch format {
		case "float":
			return "Float"
		case "double":
			return "Double"
		default:
			return "BigDecimal"
		}
	case "boolean":
		return "Boolean"
	default:
		return "Object"
	}
}
