// Package dot builds attributed graph descriptions and serializes them to
// Graphviz DOT source.
//
// # Overview
//
// A [Builder] collects nodes, edges, default attributes and rank groups,
// then emits canonical DOT text via [Builder.DotSource]. Serialization is a
// pure function of builder state: the same state always produces
// byte-identical output, which snapshot tests and caches rely on.
//
// # Usage
//
//	b := dot.New(dot.Undirected()).
//	    GraphAttr(dot.String("rankdir", "LR")).
//	    NodeDefaults(dot.String("shape", "box"))
//	_ = b.AddNode("alice", dot.Label("Alice"))
//	_ = b.AddEdge("alice", "bob", dot.Label("knows"), dot.Number("weight", 2))
//	src := b.DotSource()
//
// Rendering to an image goes through the export pipeline, shared with the
// builder for convenience:
//
//	svg, err := b.ToSVG("out/diagram") // writes out/diagram.dot, maybe out/diagram.svg
//
// # Attribute values
//
// Attribute values are typed ([Str], [Int], [Float], [Bool]); absent values
// are dropped from output entirely, unlike empty strings which are emitted
// as "". Every value is double-quoted with embedded quotes and backslashes
// escaped, so callers never need to pre-escape.
package dot
