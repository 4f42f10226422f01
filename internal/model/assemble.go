package model

// Assemble composes the final render data graph from the normalized model
// graph. The graph is read-only from here on: rendering may fan out per
// template without further coordination.
func Assemble(g *Graph) *RenderData {
	return &RenderData{
		Models:           g.Models,
		Services:         BuildServices(g),
		AllOperations:    g.Operations,
		Info:             g.Info,
		VendorExtensions: g.VendorExtensions,
	}
}
