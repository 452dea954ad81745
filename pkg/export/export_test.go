package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeBinary creates a stand-in renderer executable on disk.
func fakeBinary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dot")
	if err := os.WriteFile(path, []byte("binary"), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return path
}

// okRunner returns a runner double that writes the -o target and exits zero.
func okRunner(t *testing.T, calls *[][]string) Runner {
	t.Helper()
	return func(_ context.Context, argv []string) ([]byte, error) {
		if calls != nil {
			*calls = append(*calls, argv)
		}
		for i, arg := range argv {
			if arg == "-o" && i+1 < len(argv) {
				if err := os.WriteFile(argv[i+1], []byte("<svg />"), 0o644); err != nil {
					return nil, err
				}
			}
		}
		return []byte("ok"), nil
	}
}

func TestExportAlwaysWritesDotSidecar(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out", "diagram")
	e := New(WithoutNative(), WithDotBinary(filepath.Join(t.TempDir(), "missing")))

	dotPath, imagePath, err := e.Export(context.Background(), "digraph G {\n}\n", base, FormatSVG)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if imagePath != "" {
		t.Errorf("imagePath = %q, want empty", imagePath)
	}

	data, err := os.ReadFile(dotPath)
	if err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}
	if !strings.Contains(string(data), "digraph") {
		t.Errorf("sidecar = %q, want DOT source", data)
	}

	last := e.LastResult()
	if last == nil {
		t.Fatal("LastResult() = nil after export")
	}
	if last.Succeeded {
		t.Error("Succeeded = true, want false")
	}
	if last.Method != MethodUnavailable {
		t.Errorf("Method = %v, want %v", last.Method, MethodUnavailable)
	}
	if last.DotPath != dotPath {
		t.Errorf("DotPath = %q, want %q", last.DotPath, dotPath)
	}
}

func TestExportExternalSuccess(t *testing.T) {
	base := filepath.Join(t.TempDir(), "diagram")
	var calls [][]string
	e := New(WithoutNative(), WithDotBinary(fakeBinary(t)), WithRunner(okRunner(t, &calls)))

	_, imagePath, err := e.Export(context.Background(), "digraph G {\n}\n", base, FormatSVG)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if imagePath != base+".svg" {
		t.Errorf("imagePath = %q, want %q", imagePath, base+".svg")
	}
	if _, err := os.Stat(imagePath); err != nil {
		t.Errorf("rendered image missing: %v", err)
	}

	last := e.LastResult()
	if !last.Succeeded || last.Method != MethodExternal {
		t.Errorf("Result = %+v, want external success", last)
	}
	if len(calls) != 1 {
		t.Fatalf("runner called %d times, want 1", len(calls))
	}
}

func TestExportExternalArgv(t *testing.T) {
	base := filepath.Join(t.TempDir(), "diagram")
	bin := fakeBinary(t)
	var calls [][]string
	e := New(WithoutNative(), WithDotBinary(bin), WithEngine("neato"), WithRunner(okRunner(t, &calls)))

	if _, _, err := e.Export(context.Background(), "digraph G {\n}\n", base, FormatPNG); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	want := []string{bin, "-Tpng", "-Kneato", "-o", base + ".png", base + ".dot"}
	got := calls[0]
	if len(got) != len(want) {
		t.Fatalf("argv = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExportExternalFailure(t *testing.T) {
	base := filepath.Join(t.TempDir(), "diagram")
	failing := func(context.Context, []string) ([]byte, error) {
		return nil, fmt.Errorf("exit status 1: syntax error near line 3")
	}
	e := New(WithoutNative(), WithDotBinary(fakeBinary(t)), WithRunner(failing))

	dotPath, imagePath, err := e.Export(context.Background(), "digraph G {\n}\n", base, FormatSVG)
	if err != nil {
		t.Fatalf("Export() must not fail on renderer errors, got: %v", err)
	}
	if imagePath != "" {
		t.Errorf("imagePath = %q, want empty", imagePath)
	}
	if _, statErr := os.Stat(dotPath); statErr != nil {
		t.Errorf("sidecar missing after failed render: %v", statErr)
	}

	last := e.LastResult()
	if last.Succeeded {
		t.Error("Succeeded = true, want false")
	}
	if last.Method != MethodExternal {
		t.Errorf("Method = %v, want %v", last.Method, MethodExternal)
	}
	if !strings.Contains(last.ErrorDetail, "syntax error") {
		t.Errorf("ErrorDetail = %q, want renderer stderr preserved", last.ErrorDetail)
	}
}

func TestExportNativeSuccess(t *testing.T) {
	base := filepath.Join(t.TempDir(), "diagram")
	native := func(_ context.Context, _ string, imagePath, _ string) error {
		return os.WriteFile(imagePath, []byte("<svg />"), 0o644)
	}
	runnerCalled := false
	e := New(
		WithNative(native),
		WithDotBinary(fakeBinary(t)),
		WithRunner(func(context.Context, []string) ([]byte, error) {
			runnerCalled = true
			return nil, nil
		}),
	)

	_, imagePath, err := e.Export(context.Background(), "digraph G {\n}\n", base, FormatSVG)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if imagePath == "" {
		t.Fatal("imagePath empty, want native render result")
	}
	if e.LastResult().Method != MethodNative {
		t.Errorf("Method = %v, want %v", e.LastResult().Method, MethodNative)
	}
	if runnerCalled {
		t.Error("runner invoked although native tier succeeded")
	}
}

func TestExportNativeFailureFallsThrough(t *testing.T) {
	base := filepath.Join(t.TempDir(), "diagram")
	native := func(context.Context, string, string, string) error {
		return errors.New("binding unavailable")
	}
	e := New(WithNative(native), WithDotBinary(fakeBinary(t)), WithRunner(okRunner(t, nil)))

	_, imagePath, err := e.Export(context.Background(), "digraph G {\n}\n", base, FormatSVG)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if imagePath == "" {
		t.Error("imagePath empty, want external tier to rescue the render")
	}
	if e.LastResult().Method != MethodExternal {
		t.Errorf("Method = %v, want %v", e.LastResult().Method, MethodExternal)
	}
}

func TestExportNativeFailureDetailWhenUnavailable(t *testing.T) {
	base := filepath.Join(t.TempDir(), "diagram")
	native := func(context.Context, string, string, string) error {
		return errors.New("binding unavailable")
	}
	e := New(WithNative(native), WithDotBinary(filepath.Join(t.TempDir(), "missing")))

	if _, _, err := e.Export(context.Background(), "digraph G {\n}\n", base, FormatSVG); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if detail := e.LastResult().ErrorDetail; !strings.Contains(detail, "binding unavailable") {
		t.Errorf("ErrorDetail = %q, want native failure folded in", detail)
	}
}

func TestRenderTextualFallback(t *testing.T) {
	base := filepath.Join(t.TempDir(), "diagram")
	source := "digraph G {\n  \"a\"\n}\n"
	e := New(WithoutNative(), WithDotBinary(filepath.Join(t.TempDir(), "missing")))

	out, err := e.Render(context.Background(), source, base, FormatPNG)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if out != source {
		t.Errorf("Render() = %q, want the DOT source as fallback", out)
	}
	if _, statErr := os.Stat(base + ".dot"); statErr != nil {
		t.Errorf("sidecar missing: %v", statErr)
	}
}

func TestRenderReturnsImagePath(t *testing.T) {
	base := filepath.Join(t.TempDir(), "diagram")
	e := New(WithoutNative(), WithDotBinary(fakeBinary(t)), WithRunner(okRunner(t, nil)))

	out, err := e.Render(context.Background(), "digraph G {\n}\n", base, FormatSVG)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if out != base+".svg" {
		t.Errorf("Render() = %q, want %q", out, base+".svg")
	}
}

func TestResultReplacedEachCall(t *testing.T) {
	dir := t.TempDir()
	e := New(WithoutNative(), WithDotBinary(fakeBinary(t)), WithRunner(okRunner(t, nil)))

	if _, _, err := e.Export(context.Background(), "digraph G {\n}\n", filepath.Join(dir, "one"), FormatSVG); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	first := e.LastResult()

	if _, _, err := e.Export(context.Background(), "digraph G {\n}\n", filepath.Join(dir, "two"), FormatSVG); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	second := e.LastResult()

	if first == second {
		t.Error("LastResult() not replaced between exports")
	}
	if second.DotPath != filepath.Join(dir, "two")+".dot" {
		t.Errorf("DotPath = %q, want the second export's sidecar", second.DotPath)
	}
}
