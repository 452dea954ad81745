// Package export renders DOT source to image files through a tiered
// pipeline: the in-process graphviz binding first, then an external dot
// executable (explicit, vendored or on PATH), and finally a graceful
// "description only" outcome when no renderer is available.
//
// The .dot sidecar is written unconditionally before any rendering attempt,
// so every export leaves at least the textual artifact behind. Rendering
// failures are never returned as errors; they are recorded in [Result] and
// retrievable with [Exporter.LastResult]. Only sidecar I/O failures are
// hard errors.
package export

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pbauriegel/dotforge/pkg/dotbin"
)

// Supported output formats for convenience callers. Any format string the
// resolved renderer understands may be passed through.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// systemBinary is the conventional renderer name looked up on PATH when no
// explicit or vendored binary is configured.
const systemBinary = "dot"

// Exporter runs the tiered export pipeline. It retains only the most
// recent Result; it performs no locking, so concurrent exports to the same
// paths race at the filesystem level (a documented caller responsibility).
type Exporter struct {
	dotBinary string
	engine    string
	runner    Runner
	native    NativeRenderer
	locator   *dotbin.Locator

	last *Result
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithDotBinary sets an explicit renderer executable, checked before the
// vendored and PATH tiers.
func WithDotBinary(path string) Option {
	return func(e *Exporter) { e.dotBinary = path }
}

// WithVendorDir sets the directory scanned for vendored renderer binaries.
func WithVendorDir(dir string) Option {
	return func(e *Exporter) { e.locator = dotbin.NewLocator(dir) }
}

// WithLocator injects a pre-built vendored-binary locator.
func WithLocator(l *dotbin.Locator) Option {
	return func(e *Exporter) { e.locator = l }
}

// WithRunner injects the subprocess invocation strategy.
func WithRunner(r Runner) Option {
	return func(e *Exporter) { e.runner = r }
}

// WithEngine sets the layout engine passed to the external binary as -K.
// The native tier always uses the default dot layout.
func WithEngine(engine string) Option {
	return func(e *Exporter) { e.engine = engine }
}

// WithNative injects the in-process rendering tier.
func WithNative(n NativeRenderer) Option {
	return func(e *Exporter) { e.native = n }
}

// WithoutNative disables the in-process tier so exports go straight to the
// external binary resolution.
func WithoutNative() Option {
	return func(e *Exporter) { e.native = nil }
}

// New creates an Exporter with the real OS runner and the go-graphviz
// native tier unless overridden.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		runner: execRunner,
		native: nativeRender,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LastResult returns the outcome of the most recent export, or nil before
// the first call.
func (e *Exporter) LastResult() *Result { return e.last }

// Export writes dotSource to base+".dot" and attempts to render it to
// base+"."+format. The sidecar write is unconditional; a failure there is
// the only error this method returns. The image path is empty when
// rendering degraded, with details recorded in the Result.
func (e *Exporter) Export(ctx context.Context, dotSource, base, format string) (dotPath, imagePath string, err error) {
	dotPath = base + ".dot"
	imagePath = base + "." + format

	if dir := filepath.Dir(dotPath); dir != "." {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return "", "", fmt.Errorf("create %s: %w", dir, mkErr)
		}
	}
	if writeErr := os.WriteFile(dotPath, []byte(dotSource), 0o644); writeErr != nil {
		return "", "", fmt.Errorf("write %s: %w", dotPath, writeErr)
	}

	result := &Result{DotPath: dotPath, Method: MethodUnavailable}
	e.last = result

	var nativeErr error
	if e.native != nil {
		if nativeErr = e.native(ctx, dotSource, imagePath, format); nativeErr == nil {
			result.Succeeded = true
			result.ImagePath = imagePath
			result.Method = MethodNative
			return dotPath, imagePath, nil
		}
	}

	binary := e.resolveBinary()
	if binary == "" {
		result.ErrorDetail = unavailableDetail(nativeErr)
		return dotPath, "", nil
	}

	result.Method = MethodExternal
	argv := e.renderArgv(binary, dotPath, imagePath, format)
	if _, runErr := e.runner(ctx, argv); runErr != nil {
		result.ErrorDetail = runErr.Error()
		return dotPath, "", nil
	}

	result.Succeeded = true
	result.ImagePath = imagePath
	return dotPath, imagePath, nil
}

// Render renders dotSource to outputFile+"."+format and returns the image
// path. When no tier succeeds it returns the DOT text itself instead, so a
// render request always yields something usable.
func (e *Exporter) Render(ctx context.Context, dotSource, outputFile, format string) (string, error) {
	_, imagePath, err := e.Export(ctx, dotSource, outputFile, format)
	if err != nil {
		return "", err
	}
	if imagePath == "" {
		return dotSource, nil
	}
	return imagePath, nil
}

// resolveBinary picks the external renderer: explicit path first, then the
// preferred vendored binary, then a PATH lookup by conventional name.
// Explicit paths are trusted only if they exist.
func (e *Exporter) resolveBinary() string {
	if e.dotBinary != "" {
		if _, err := os.Stat(e.dotBinary); err == nil {
			return e.dotBinary
		}
		return ""
	}
	if e.locator != nil {
		if vendored := e.locator.Preferred(true); vendored != "" {
			return vendored
		}
	}
	if path, err := exec.LookPath(systemBinary); err == nil {
		return path
	}
	return ""
}

// renderArgv builds the conventional renderer command line:
// <binary> -T<format> [-K<engine>] -o <output> <input>.
func (e *Exporter) renderArgv(binary, dotPath, imagePath, format string) []string {
	argv := []string{binary, "-T" + format}
	if e.engine != "" {
		argv = append(argv, "-K"+e.engine)
	}
	return append(argv, "-o", imagePath, dotPath)
}

func unavailableDetail(nativeErr error) string {
	if nativeErr != nil {
		return fmt.Sprintf("no renderer available (native binding: %v)", nativeErr)
	}
	return "no renderer available"
}
