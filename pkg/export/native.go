package export

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-graphviz"
)

// NativeRenderer renders DOT source to imagePath entirely in-process.
// The default implementation uses the go-graphviz binding; tests and
// callers on platforms without the binding substitute their own or disable
// the tier with [WithoutNative].
type NativeRenderer func(ctx context.Context, dotSource, imagePath, format string) error

// nativeRender is the default NativeRenderer backed by go-graphviz.
func nativeRender(ctx context.Context, dotSource, imagePath, format string) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dotSource))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.Format(format), &buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if err := os.WriteFile(imagePath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", imagePath, err)
	}
	return nil
}
