package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnakeCase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"petId", "pet_id"},
		{"addr2Line", "addr2_line"},
		{"HTTPResponse", "http_response"},
		{"apiV2", "api_v2"},
		{"a.b", "a_b"},
		{"$ref", "__ref"},
		{"already_snake", "already_snake"},
		{"kebab-case", "kebab_case"},
		{"With Space", "with_space"},
		{"ABC", "abc"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SnakeCase(tc.in), "SnakeCase(%q)", tc.in)
	}
}

func TestPascalCase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"getWidget", "GetWidget"},
		{"get-widget", "GetWidget"},
		{"pet_id", "PetId"},
		{"widget", "Widget"},
		{"APIKey", "APIKey"},
		{"my.field", "MyField"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PascalCase(tc.in), "PascalCase(%q)", tc.in)
	}
}

func TestCamelCase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"GetWidget", "getWidget"},
		{"pet-id", "petId"},
		{"X-Request-ID", "xRequestID"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CamelCase(tc.in), "CamelCase(%q)", tc.in)
	}
}
