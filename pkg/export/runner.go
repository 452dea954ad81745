package export

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Runner invokes a renderer subprocess described by argv (argv[0] is the
// executable path). It returns the captured standard output; a non-zero
// exit or spawn failure is reported through the error, with any stderr text
// folded into the message. Runner is the deterministic-testing seam: tests
// substitute a double that writes the expected output file and returns nil.
type Runner func(ctx context.Context, argv []string) ([]byte, error)

// execRunner is the default Runner. It blocks until the child exits; the
// caller bounds its lifetime through ctx.
func execRunner(ctx context.Context, argv []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return stdout.Bytes(), fmt.Errorf("%w: %s", err, msg)
		}
		return stdout.Bytes(), err
	}
	return stdout.Bytes(), nil
}
