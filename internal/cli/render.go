package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbauriegel/dotforge/pkg/command"
	"github.com/pbauriegel/dotforge/pkg/dot"
	"github.com/pbauriegel/dotforge/pkg/errors"
	"github.com/pbauriegel/dotforge/pkg/export"
)

// renderOpts holds the command-line flags for the render command. Empty
// values fall back to the config file, which falls back to built-ins.
type renderOpts struct {
	output    string // output base path (input name minus extension if empty)
	format    string // output image format
	engine    string // layout engine for the external binary (-K)
	dotBinary string // explicit renderer executable
	vendorDir string // vendored renderer directory
	noRender  bool   // emit the .dot file only, skip rendering
}

// validFormats is the set of supported output image formats.
var validFormats = map[string]bool{"svg": true, "png": true, "pdf": true, "jpg": true}

func newRenderCmd() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Build a graph payload into DOT source and render it",
		Long: `Render reads a make_graph JSON payload (a full request or a bare
parameters object), serializes it to DOT and renders an image.

The .dot sidecar is always written next to the image. When no renderer is
available the command still succeeds with the sidecar alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: input name without extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: svg (default), png, pdf, jpg")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "layout engine passed to the external renderer")
	cmd.Flags().StringVar(&opts.dotBinary, "dot-binary", "", "explicit renderer executable")
	cmd.Flags().StringVar(&opts.vendorDir, "vendor-dir", "", "directory with vendored renderer binaries")
	cmd.Flags().BoolVar(&opts.noRender, "no-render", false, "write the .dot file only")

	return cmd
}

// applyConfig fills empty flag values from the effective configuration.
func (o *renderOpts) applyConfig(cfg config) {
	if o.format == "" {
		o.format = cfg.Render.Format
	}
	if o.engine == "" {
		o.engine = cfg.Render.Engine
	}
	if o.dotBinary == "" {
		o.dotBinary = cfg.Render.DotBinary
	}
	if o.vendorDir == "" {
		o.vendorDir = cfg.Render.VendorDir
	}
}

// builderOptions converts resolved options into graph builder options.
func (o *renderOpts) builderOptions() []dot.Option {
	var result []dot.Option
	if o.dotBinary != "" {
		result = append(result, dot.WithDotBinary(o.dotBinary))
	}
	if o.vendorDir != "" {
		result = append(result, dot.WithVendorDir(o.vendorDir))
	}
	if o.engine != "" {
		result = append(result, dot.WithExportOptions(export.WithEngine(o.engine)))
	}
	return result
}

func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts.applyConfig(cfg)

	if !validFormats[opts.format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format %q (must be svg, png, pdf or jpg)", opts.format)
	}

	req, err := loadRequest(input)
	if err != nil {
		return err
	}
	logger.Debugf("Loaded payload: %d nodes, %d edges", len(req.Parameters.Nodes), len(req.Parameters.Edges))

	b, err := command.Build(&req.Parameters, opts.builderOptions()...)
	if err != nil {
		return err
	}

	base := basePath(opts.output, input)

	if opts.noRender {
		saved, err := b.SaveDot(base + ".dot")
		if err != nil {
			return err
		}
		printSuccess("Wrote DOT source")
		printFile(saved)
		return nil
	}

	track := newProgress(logger)
	sp := newSpinner(ctx, fmt.Sprintf("Rendering %s...", filepath.Base(base)+"."+opts.format))
	sp.start()
	dotPath, imagePath, err := b.Export(ctx, base, opts.format)
	sp.stop()
	if err != nil {
		return err
	}
	track.done(fmt.Sprintf("Exported %s", filepath.Base(base)))

	return reportExport(b.LastExportResult(), dotPath, imagePath)
}

// reportExport prints the outcome of an export attempt. A degraded render
// is a warning, not a command failure: the DOT sidecar is still valid.
func reportExport(result *export.Result, dotPath, imagePath string) error {
	if imagePath != "" {
		printSuccess("Rendered via %s", methodLabel(result.Method))
		printFile(dotPath)
		printFile(imagePath)
		return nil
	}

	printWarning("No renderer produced an image; DOT source written")
	printFile(dotPath)
	if result != nil && result.ErrorDetail != "" {
		printDetail("%s", result.ErrorDetail)
	}
	return nil
}

// methodLabel maps a render method onto a human-readable label.
func methodLabel(m export.Method) string {
	switch m {
	case export.MethodNative:
		return "in-process graphviz"
	case export.MethodExternal:
		return "external dot binary"
	default:
		return string(m)
	}
}

// loadRequest reads a payload file holding either a full make_graph request
// or a bare parameters object.
func loadRequest(path string) (*command.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var req command.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "parse %s", path)
	}

	if req.Command == "" {
		// Bare parameters object: retry against the inner shape.
		var params command.Parameters
		if err := json.Unmarshal(data, &params); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "parse %s", path)
		}
		req = command.Request{Command: command.Name, Parameters: params}
	} else if req.Command != command.Name {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "unknown command %q in %s", req.Command, path)
	}

	if len(req.Parameters.Nodes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "%s declares no nodes", path)
	}
	return &req, nil
}

// basePath derives the output base path. If output is empty the input file
// name is used with its extension stripped; a known format extension on the
// output is stripped as well so "-o graph.svg" and "-o graph" agree.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if trimmed := strings.TrimPrefix(ext, "."); validFormats[trimmed] || trimmed == "dot" {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
