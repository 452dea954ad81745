package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pbauriegel/dotforge/pkg/command"
	"github.com/pbauriegel/dotforge/pkg/errors"
)

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"derived from input", "", "payloads/graph.json", "payloads/graph"},
		{"explicit base", "out/diagram", "graph.json", "out/diagram"},
		{"format extension stripped", "out/diagram.svg", "graph.json", "out/diagram"},
		{"dot extension stripped", "out/diagram.dot", "graph.json", "out/diagram"},
		{"unknown extension kept", "out/diagram.v2", "graph.json", "out/diagram.v2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.input); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}

func writePayload(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	return path
}

func TestLoadRequestFullPayload(t *testing.T) {
	path := writePayload(t, `{
	  "command": "make_graph",
	  "parameters": {"nodes": [{"id": "a"}], "edges": []}
	}`)

	req, err := loadRequest(path)
	if err != nil {
		t.Fatalf("loadRequest() error: %v", err)
	}
	if req.Command != command.Name {
		t.Errorf("Command = %q, want %q", req.Command, command.Name)
	}
	if len(req.Parameters.Nodes) != 1 {
		t.Errorf("nodes = %d, want 1", len(req.Parameters.Nodes))
	}
}

func TestLoadRequestBareParameters(t *testing.T) {
	path := writePayload(t, `{"nodes": [{"id": "a"}, {"id": "b"}], "edges": [{"source": "a", "target": "b"}]}`)

	req, err := loadRequest(path)
	if err != nil {
		t.Fatalf("loadRequest() error: %v", err)
	}
	if req.Command != command.Name {
		t.Errorf("Command = %q, want %q (filled in for bare parameters)", req.Command, command.Name)
	}
	if len(req.Parameters.Edges) != 1 {
		t.Errorf("edges = %d, want 1", len(req.Parameters.Edges))
	}
}

func TestLoadRequestUnknownCommand(t *testing.T) {
	path := writePayload(t, `{"command": "make_charts", "parameters": {"nodes": [{"id": "a"}]}}`)

	if _, err := loadRequest(path); !errors.Is(err, errors.ErrCodeInvalidPayload) {
		t.Errorf("loadRequest() code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidPayload)
	}
}

func TestLoadRequestNoNodes(t *testing.T) {
	path := writePayload(t, `{"command": "make_graph", "parameters": {"nodes": [], "edges": []}}`)

	if _, err := loadRequest(path); !errors.Is(err, errors.ErrCodeInvalidPayload) {
		t.Errorf("loadRequest() code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidPayload)
	}
}

func TestLoadRequestMissingFile(t *testing.T) {
	if _, err := loadRequest(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("loadRequest() should fail for a missing file")
	}
}

func TestRenderOptsApplyConfig(t *testing.T) {
	cfg := config{Render: renderConfig{
		Format:    "png",
		Engine:    "neato",
		DotBinary: "/opt/graphviz/dot",
		VendorDir: "/opt/vendor",
	}}

	// Empty flags take every config value.
	opts := renderOpts{}
	opts.applyConfig(cfg)
	if opts.format != "png" || opts.engine != "neato" || opts.dotBinary != "/opt/graphviz/dot" || opts.vendorDir != "/opt/vendor" {
		t.Errorf("applyConfig() = %+v, want config values", opts)
	}

	// Set flags win over config.
	opts = renderOpts{format: "svg", engine: "dot"}
	opts.applyConfig(cfg)
	if opts.format != "svg" {
		t.Errorf("format = %q, want flag value to win", opts.format)
	}
	if opts.engine != "dot" {
		t.Errorf("engine = %q, want flag value to win", opts.engine)
	}
}
