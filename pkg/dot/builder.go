package dot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pbauriegel/dotforge/pkg/errors"
	"github.com/pbauriegel/dotforge/pkg/export"
)

// Builder accumulates an attributed graph description and serializes it to
// DOT source text. Directedness is fixed at construction and selects both
// the header keyword (digraph vs graph) and the edge operator (-> vs --).
//
// Node and edge declarations are append logs: duplicates are not detected
// and each declaration produces its own statement. Identifier uniqueness is
// the caller's responsibility; every identifier is quoted on output, so
// collisions with DOT keywords are harmless.
//
// A Builder is not safe for concurrent mutation. Use one Builder per graph.
type Builder struct {
	directed bool

	graphAttrs   []Attr
	nodeDefaults []Attr
	edgeDefaults []Attr

	nodes      []Node
	edges      []Edge
	rankGroups [][]string

	exportOpts []export.Option
	exporter   *export.Exporter
}

// Node is a single node declaration.
type Node struct {
	ID    string
	Attrs []Attr
}

// Edge is a single edge declaration. Empty ports are omitted from the
// serialized endpoint; each side is independent.
type Edge struct {
	From     string
	To       string
	FromPort string
	ToPort   string
	Attrs    []Attr
}

// Option configures a Builder at construction time.
type Option func(*Builder)

// Undirected makes the builder emit an undirected graph ("graph G" header,
// "--" edge operator). The default is directed.
func Undirected() Option {
	return func(b *Builder) { b.directed = false }
}

// WithDotBinary sets an explicit renderer executable for exports, taking
// priority over vendored and PATH-discovered binaries.
func WithDotBinary(path string) Option {
	return func(b *Builder) { b.exportOpts = append(b.exportOpts, export.WithDotBinary(path)) }
}

// WithVendorDir sets the directory scanned for vendored renderer binaries.
func WithVendorDir(dir string) Option {
	return func(b *Builder) { b.exportOpts = append(b.exportOpts, export.WithVendorDir(dir)) }
}

// WithRunner injects the subprocess invocation strategy used for exports.
// Tests substitute a double here; the default spawns the real OS process.
func WithRunner(r export.Runner) Option {
	return func(b *Builder) { b.exportOpts = append(b.exportOpts, export.WithRunner(r)) }
}

// WithExportOptions forwards additional options to the underlying exporter.
func WithExportOptions(opts ...export.Option) Option {
	return func(b *Builder) { b.exportOpts = append(b.exportOpts, opts...) }
}

// New creates a Builder. The graph is directed unless [Undirected] is given.
func New(opts ...Option) *Builder {
	b := &Builder{directed: true}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Directed reports whether the builder emits a directed graph.
func (b *Builder) Directed() bool { return b.directed }

// GraphAttr merges attributes into the graph-level defaults. Repeated keys
// overwrite the stored value in place; first-seen order is preserved.
func (b *Builder) GraphAttr(attrs ...Attr) *Builder {
	b.graphAttrs = mergeAttrs(b.graphAttrs, attrs)
	return b
}

// NodeDefaults merges attributes into the node-level defaults.
func (b *Builder) NodeDefaults(attrs ...Attr) *Builder {
	b.nodeDefaults = mergeAttrs(b.nodeDefaults, attrs)
	return b
}

// EdgeDefaults merges attributes into the edge-level defaults.
func (b *Builder) EdgeDefaults(attrs ...Attr) *Builder {
	b.edgeDefaults = mergeAttrs(b.edgeDefaults, attrs)
	return b
}

// AddNode appends a node declaration. Attributes are emitted in the order
// given, except that [Label] entries always close the bracket.
func (b *Builder) AddNode(id string, attrs ...Attr) error {
	if id == "" {
		return errors.New(errors.ErrCodeInvalidNode, "node ID must not be empty")
	}
	b.nodes = append(b.nodes, Node{ID: id, Attrs: attrs})
	return nil
}

// AddEdge appends an edge declaration between two node identifiers.
func (b *Builder) AddEdge(from, to string, attrs ...Attr) error {
	return b.AddPortEdge(from, "", to, "", attrs...)
}

// AddPortEdge appends an edge declaration with optional endpoint ports.
// An empty port leaves the corresponding endpoint bare.
func (b *Builder) AddPortEdge(from, fromPort, to, toPort string, attrs ...Attr) error {
	if from == "" {
		return errors.New(errors.ErrCodeInvalidEdge, "edge source must not be empty")
	}
	if to == "" {
		return errors.New(errors.ErrCodeInvalidEdge, "edge target must not be empty")
	}
	b.edges = append(b.edges, Edge{From: from, FromPort: fromPort, To: to, ToPort: toPort, Attrs: attrs})
	return nil
}

// Rank appends a same-rank group. The group is emitted as a single
// {rank=same; ...} statement in declaration order.
func (b *Builder) Rank(ids ...string) *Builder {
	b.rankGroups = append(b.rankGroups, ids)
	return b
}

// DotSource serializes the builder state to DOT. The statement order is a
// compatibility contract: header, graph/node/edge default brackets (only
// when non-empty), nodes in declaration order, rank groups, edges, closing
// brace. Calling DotSource twice without mutation yields identical output.
func (b *Builder) DotSource() string {
	var buf bytes.Buffer

	if b.directed {
		buf.WriteString("digraph G {\n")
	} else {
		buf.WriteString("graph G {\n")
	}

	for _, stmt := range []struct {
		keyword string
		attrs   []Attr
	}{
		{"graph", b.graphAttrs},
		{"node", b.nodeDefaults},
		{"edge", b.edgeDefaults},
	} {
		if encoded := encodeAttrs(stmt.attrs); encoded != "" {
			fmt.Fprintf(&buf, "  %s [%s]\n", stmt.keyword, encoded)
		}
	}

	for _, n := range b.nodes {
		if encoded := encodeAttrs(n.Attrs); encoded != "" {
			fmt.Fprintf(&buf, "  %q [%s]\n", n.ID, encoded)
		} else {
			fmt.Fprintf(&buf, "  %q\n", n.ID)
		}
	}

	for _, group := range b.rankGroups {
		buf.WriteString("  {rank=same;")
		for _, id := range group {
			fmt.Fprintf(&buf, " %q;", id)
		}
		buf.WriteString("}\n")
	}

	op := "->"
	if !b.directed {
		op = "--"
	}
	for _, e := range b.edges {
		fmt.Fprintf(&buf, "  %s %s %s", endpoint(e.From, e.FromPort), op, endpoint(e.To, e.ToPort))
		if encoded := encodeAttrs(e.Attrs); encoded != "" {
			fmt.Fprintf(&buf, " [%s]", encoded)
		}
		buf.WriteString("\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

// endpoint formats a quoted edge endpoint with an optional :port suffix.
func endpoint(id, port string) string {
	if port == "" {
		return fmt.Sprintf("%q", id)
	}
	return fmt.Sprintf("%q:%s", id, port)
}

// SaveDot writes DotSource to path, creating parent directories as needed,
// and returns the path written.
func (b *Builder) SaveDot(path string) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(b.DotSource()), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Exporter returns the export pipeline shared by this builder, creating it
// on first use with the options supplied at construction.
func (b *Builder) Exporter() *export.Exporter {
	if b.exporter == nil {
		b.exporter = export.New(b.exportOpts...)
	}
	return b.exporter
}

// ToSVG exports the graph with base path base, rendering to base+".svg".
// The .dot sidecar is always written. The returned image path is empty when
// no renderer was available or the render failed; that is a degraded
// outcome, not an error. Inspect [Builder.LastExportResult] for details.
func (b *Builder) ToSVG(base string) (string, error) {
	_, imagePath, err := b.Export(context.Background(), base, export.FormatSVG)
	return imagePath, err
}

// Export writes the .dot sidecar and attempts to render to the given
// format. Only sidecar I/O failures are returned as errors; rendering
// failures are recorded in the export result.
func (b *Builder) Export(ctx context.Context, base, format string) (dotPath, imagePath string, err error) {
	return b.Exporter().Export(ctx, b.DotSource(), base, format)
}

// Render renders to outputFile+"."+format and returns the produced image
// path. When every rendering tier fails it returns the DOT source itself,
// so callers always obtain a usable artifact.
func (b *Builder) Render(ctx context.Context, outputFile, format string) (string, error) {
	return b.Exporter().Render(ctx, b.DotSource(), outputFile, format)
}

// LastExportResult returns the outcome of the most recent export attempt,
// or nil if no export has run yet.
func (b *Builder) LastExportResult() *export.Result {
	if b.exporter == nil {
		return nil
	}
	return b.exporter.LastResult()
}
