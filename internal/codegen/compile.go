// Package codegen wires the compilation pipeline: load a document, hoist
// inline schemas to named components, parse it into the model graph, enrich
// and normalize the graph, and project it for every supported target.
package codegen

import (
	"context"

	"github.com/ivorycirrus/aws-pdk/internal/document"
	"github.com/ivorycirrus/aws-pdk/internal/logger"
	"github.com/ivorycirrus/aws-pdk/internal/model"
	"github.com/ivorycirrus/aws-pdk/internal/target"
)

// Compile loads the document at input (a file path or http(s) URL) and runs
// the full pipeline, returning template-ready render data.
func Compile(ctx context.Context, input string, opts ...document.Option) (*model.RenderData, error) {
	doc, err := document.Load(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return CompileDocument(ctx, doc)
}

// CompileDocument runs the pipeline over an already-loaded document. The
// document's raw tree is rewritten in place by the hoisting stage.
func CompileDocument(ctx context.Context, doc *document.Document) (*model.RenderData, error) {
	if err := document.Hoist(doc); err != nil {
		return nil, err
	}
	logger.Debugw("hoisted inline schemas", "schemas", len(doc.Schemas()))

	graph, err := model.Parse(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := model.Enrich(graph); err != nil {
		return nil, err
	}

	// Normalization must run first: it assigns body-parameter display names
	// and merges responses, and projection derives per-target names from the
	// normalized graph.
	model.Normalize(graph)
	target.Project(graph)

	data := model.Assemble(graph)
	logger.Debugw("compiled document",
		"models", len(data.Models),
		"services", len(data.Services),
		"operations", len(data.AllOperations))
	return data, nil
}
