// Package command implements the JSON command entry point for dotforge.
//
// Payloads follow the make_graph contract and arrive pre-validated by the
// caller's schema layer; this package only performs structural decoding and
// required-field checks, builds the graph, and runs the export pipeline.
// The response always carries the DOT source; svg_path is null when
// rendering was disabled or degraded.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/pbauriegel/dotforge/pkg/dot"
	"github.com/pbauriegel/dotforge/pkg/errors"
	"github.com/pbauriegel/dotforge/pkg/export"
)

// Name is the command identifier expected in request payloads.
const Name = "make_graph"

// Status values carried in responses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Request is the top-level command payload.
type Request struct {
	Command    string     `json:"command"`
	Parameters Parameters `json:"parameters"`
}

// Parameters describes the graph to build and how to export it.
type Parameters struct {
	Directed        *bool          `json:"directed,omitempty"`
	Engine          string         `json:"engine,omitempty"`
	GraphAttributes map[string]any `json:"graph_attributes,omitempty"`
	NodeDefaults    map[string]any `json:"node_defaults,omitempty"`
	EdgeDefaults    map[string]any `json:"edge_defaults,omitempty"`
	Nodes           []NodeSpec     `json:"nodes"`
	Edges           []EdgeSpec     `json:"edges"`
	Export          *ExportSpec    `json:"export,omitempty"`
}

// NodeSpec is a single node declaration in the payload.
type NodeSpec struct {
	ID         string         `json:"id"`
	Label      *string        `json:"label,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// EdgeSpec is a single edge declaration in the payload.
type EdgeSpec struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Label      *string        `json:"label,omitempty"`
	FromPort   string         `json:"from_port,omitempty"`
	ToPort     string         `json:"to_port,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// ExportSpec controls image rendering for the request.
type ExportSpec struct {
	Enable    bool   `json:"enable"`
	Filename  string `json:"filename,omitempty"`
	Directory string `json:"directory,omitempty"`
}

// Response is the command result.
type Response struct {
	Status    string  `json:"status"`
	DotSource string  `json:"dot_source"`
	SVGPath   *string `json:"svg_path"`
}

// Decode reads a Request from r.
func Decode(r io.Reader) (*Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode request")
	}
	return &req, nil
}

// Write encodes the response as indented JSON.
func (r *Response) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

// Option configures command execution.
type Option func(*runOpts)

type runOpts struct {
	builderOpts []dot.Option
}

// WithBuilderOptions forwards options to the graph builder, letting callers
// inject a dot binary, vendor directory or subprocess runner.
func WithBuilderOptions(opts ...dot.Option) Option {
	return func(o *runOpts) { o.builderOpts = append(o.builderOpts, opts...) }
}

// Run executes a make_graph request: builds the graph, and when export is
// enabled writes the .dot sidecar and attempts an SVG render. Payload and
// builder validation errors are returned; rendering degradation is not an
// error - the response simply carries a null svg_path.
func Run(ctx context.Context, req *Request, opts ...Option) (*Response, error) {
	if req.Command != Name {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "unknown command %q", req.Command)
	}
	if len(req.Parameters.Nodes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "payload must declare at least one node")
	}

	var ro runOpts
	for _, opt := range opts {
		opt(&ro)
	}

	b, err := Build(&req.Parameters, ro.builderOpts...)
	if err != nil {
		return nil, err
	}

	resp := &Response{Status: StatusSuccess, DotSource: b.DotSource()}

	if req.Parameters.Export == nil || !req.Parameters.Export.Enable {
		return resp, nil
	}

	base := exportBase(req.Parameters.Export)
	_, svgPath, err := b.Export(ctx, base, export.FormatSVG)
	if err != nil {
		return nil, err
	}
	if svgPath != "" {
		resp.SVGPath = &svgPath
	}
	return resp, nil
}

// Build converts decoded parameters into a configured graph builder.
func Build(p *Parameters, opts ...dot.Option) (*dot.Builder, error) {
	if p.Directed != nil && !*p.Directed {
		opts = append(opts, dot.Undirected())
	}
	if p.Engine != "" {
		opts = append(opts, dot.WithExportOptions(export.WithEngine(p.Engine)))
	}

	b := dot.New(opts...)
	b.GraphAttr(sortedAttrs(p.GraphAttributes)...)
	b.NodeDefaults(sortedAttrs(p.NodeDefaults)...)
	b.EdgeDefaults(sortedAttrs(p.EdgeDefaults)...)

	for _, n := range p.Nodes {
		attrs := sortedAttrs(n.Attributes)
		if n.Label != nil {
			attrs = append(attrs, dot.Label(*n.Label))
		}
		if err := b.AddNode(n.ID, attrs...); err != nil {
			return nil, err
		}
	}
	for _, e := range p.Edges {
		attrs := sortedAttrs(e.Attributes)
		if e.Label != nil {
			attrs = append(attrs, dot.Label(*e.Label))
		}
		if err := b.AddPortEdge(e.Source, e.FromPort, e.Target, e.ToPort, attrs...); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// exportBase derives the output base path from the export spec. The default
// filename is "graph"; a filename carrying a .svg or .dot extension is
// trimmed to its base.
func exportBase(spec *ExportSpec) string {
	name := spec.Filename
	if name == "" {
		name = "graph"
	}
	switch ext := filepath.Ext(name); ext {
	case ".svg", ".dot":
		name = name[:len(name)-len(ext)]
	}
	if spec.Directory != "" {
		return filepath.Join(spec.Directory, name)
	}
	return name
}

// sortedAttrs converts a JSON attribute object into a typed attribute list.
// JSON objects are unordered, so keys are sorted for deterministic output.
func sortedAttrs(m map[string]any) []dot.Attr {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]dot.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, dot.Attr{Key: k, Value: jsonValue(m[k])})
	}
	return attrs
}

// jsonValue maps a decoded JSON scalar onto a typed attribute value.
// Nulls become absent; integral floats keep their integer text form.
func jsonValue(v any) dot.Value {
	switch x := v.(type) {
	case nil:
		return dot.Value{}
	case string:
		return dot.Str(x)
	case bool:
		return dot.Bool(x)
	case float64:
		if x == float64(int64(x)) {
			return dot.Int(int(int64(x)))
		}
		return dot.Float(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return dot.Int(int(i))
		}
		if f, err := x.Float64(); err == nil {
			return dot.Float(f)
		}
		return dot.Str(x.String())
	default:
		return dot.Str(fmt.Sprintf("%v", x))
	}
}
