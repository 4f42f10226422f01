package model

import (
	"testing"
)

func boolPtr(v bool) *bool { return &v }

func TestGeneratedOperationName(t *testing.T) {
	t.Parallel()
	cases := []struct {
		path   string
		method string
		want   string
	}{
		{"/widgets/{id}", "get", "getWidgetsById"},
		{"/widgets", "post", "postWidgets"},
		{"/a/{b}/c/{d}", "delete", "deleteAByBCByD"},
		{"/", "get", "get"},
	}
	for _, tc := range cases {
		if got := generatedOperationName(tc.path, tc.method); got != tc.want {
			t.Fatalf("generatedOperationName(%q, %q) = %q, want %q", tc.path, tc.method, got, tc.want)
		}
	}
}

func TestNormalize_AutoNamesOperations(t *testing.T) {
	t.Parallel()
	g := compile(t, `openapi: 3.0.0
info:
  title: t
  version: "1"
paths:
  /widgets/{id}:
    get:
      responses:
        "200":
          description: ok
`)
	Normalize(g)
	if len(g.Operations) != 1 || g.Operations[0].Name != "getWidgetsById" {
		t.Fatalf("operations = %+v", g.Operations)
	}
}

func TestQueryCollectionFormat(t *testing.T) {
	t.Parallel()
	cases := []struct {
		style   string
		explode *bool
		want    string
	}{
		{"", nil, "multi"},            // query default is form+explode
		{"form", nil, "multi"},        // form defaults to explode
		{"form", boolPtr(false), "csv"},
		{"form", boolPtr(true), "multi"},
		{"spaceDelimited", nil, "ssv"},
		{"pipeDelimited", nil, "tsv"},
		{"spaceDelimited", boolPtr(true), "multi"},
	}
	for _, tc := range cases {
		if got := queryCollectionFormat(tc.style, tc.explode); got != tc.want {
			t.Fatalf("queryCollectionFormat(%q, %v) = %q, want %q", tc.style, tc.explode, got, tc.want)
		}
	}
}

func TestHeaderCollectionFormat(t *testing.T) {
	t.Parallel()
	if got := headerCollectionFormat(nil); got != "csv" {
		t.Fatalf("header default = %q", got)
	}
	if got := headerCollectionFormat(boolPtr(true)); got != "multi" {
		t.Fatalf("header explode = %q", got)
	}
	if got := headerCollectionFormat(boolPtr(false)); got != "csv" {
		t.Fatalf("header explode=false = %q", got)
	}
}

func TestNormalize_BodyParameterNaming(t *testing.T) {
	t.Parallel()
	g := compile(t, widgetSpec)
	Normalize(g)
	op := operationByName(t, g, "createWidget")
	var body *Parameter
	for _, p := range op.Parameters {
		if p.Location == "body" {
			body = p
		}
	}
	if body == nil {
		t.Fatalf("expected body parameter")
	}
	if body.Model.Name != "widget" {
		t.Fatalf("body parameter name = %q, want widget", body.Model.Name)
	}
}

const aliasedSpec = `openapi: 3.0.0
info:
  title: t
  version: "1"
paths:
  /things:
    get:
      operationId: listThings
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Thing'
        default:
          description: also ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Thing'
  /others:
    get:
      operationId: listOthers
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Thing'
        default:
          description: failure
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Problem'
components:
  schemas:
    Thing:
      type: object
      properties:
        id:
          type: string
    Problem:
      type: object
      properties:
        message:
          type: string
`

func TestNormalize_DefaultResponseAliasing(t *testing.T) {
	t.Parallel()
	g := compile(t, aliasedSpec)
	Normalize(g)

	aliased := operationByName(t, g, "listThings")
	if len(aliased.Responses) != 1 {
		t.Fatalf("expected aliasing to collapse responses, got %d", len(aliased.Responses))
	}
	if aliased.Responses[0].Code != 0 {
		t.Fatalf("aliased response code = %d, want 0", aliased.Responses[0].Code)
	}
	if len(aliased.Results) != 1 || aliased.Results[0].Code != 0 {
		t.Fatalf("results = %+v", aliased.Results)
	}

	distinct := operationByName(t, g, "listOthers")
	if len(distinct.Responses) != 2 {
		t.Fatalf("structurally different default must survive, got %d responses", len(distinct.Responses))
	}
	if distinct.Responses[0].Code != 0 || distinct.Responses[1].Code != 200 {
		t.Fatalf("responses misordered: %d, %d", distinct.Responses[0].Code, distinct.Responses[1].Code)
	}
}

func TestBuildServices_Ordering(t *testing.T) {
	t.Parallel()
	g := &Graph{
		Operations: []*Operation{
			{Name: "zeta", Tag: "beta"},
			{Name: "alpha", Tag: ""},
			{Name: "mid", Tag: "alpha"},
			{Name: "early", Tag: "beta"},
		},
	}
	services := BuildServices(g)
	if len(services) != 3 {
		t.Fatalf("services = %d", len(services))
	}
	if services[0].Name != DefaultServiceName || services[1].Name != "alpha" || services[2].Name != "beta" {
		t.Fatalf("service order: %s, %s, %s", services[0].Name, services[1].Name, services[2].Name)
	}
	beta := services[2]
	if beta.Operations[0].Name != "early" || beta.Operations[1].Name != "zeta" {
		t.Fatalf("operations within a service must sort by name: %s, %s",
			beta.Operations[0].Name, beta.Operations[1].Name)
	}
}

func TestOrderGraph_ModelImports(t *testing.T) {
	t.Parallel()
	g := compile(t, widgetSpec)
	if err := Enrich(g); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	Normalize(g)

	widget := modelByName(t, g, "Widget")
	if len(widget.Imports) != 1 || widget.Imports[0] != "Label" {
		t.Fatalf("Widget imports = %v", widget.Imports)
	}
}

func TestAssemble(t *testing.T) {
	t.Parallel()
	g := compile(t, widgetSpec)
	if err := Enrich(g); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	Normalize(g)
	data := Assemble(g)

	if len(data.Models) != len(g.Models) {
		t.Fatalf("models = %d", len(data.Models))
	}
	if len(data.Services) != 1 || data.Services[0].Name != "widgets" {
		t.Fatalf("services = %+v", data.Services)
	}
	if len(data.AllOperations) != 2 {
		t.Fatalf("operations = %d", len(data.AllOperations))
	}
	if data.Info.Title != "Widget API" {
		t.Fatalf("info = %+v", data.Info)
	}
}
