package export

// Method identifies which rendering tier produced (or failed to produce)
// an image during an export attempt.
type Method string

const (
	// MethodNative means the in-process graphviz binding rendered the image.
	MethodNative Method = "native_binding"
	// MethodExternal means an external dot executable was invoked.
	MethodExternal Method = "external_binary"
	// MethodUnavailable means no rendering tier could be attempted.
	MethodUnavailable Method = "unavailable"
)

// Result records the outcome of a single export attempt. Exactly one Result
// is retained per Exporter, replaced on every call; rendering failures are
// reported here as data, never as errors, because a written .dot sidecar
// with a missing image is a legitimate terminal state.
type Result struct {
	Succeeded   bool   // whether an image was produced
	DotPath     string // sidecar path, always set after an export
	ImagePath   string // produced image path, empty when rendering failed
	Method      Method // tier that ran (or MethodUnavailable)
	ErrorDetail string // stderr/exception text from a failed tier
}
