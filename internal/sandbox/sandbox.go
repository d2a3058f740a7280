// Package sandbox runs learner-submitted Python in an isolated child
// process and captures what it prints.
//
// Every execution gets its own process with its own stdout pipe and an
// empty namespace, so nothing is shared between submissions and a
// crashing program cannot disturb any other request. Learner faults
// (exceptions, timeouts) come back as captured output text; the error
// return is reserved for infrastructure failures.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ErrorMarker prefixes captured output when the submission raised or
// timed out instead of finishing.
const ErrorMarker = "Error:"

// Sandbox runs one submission and returns its captured stdout.
type Sandbox interface {
	Run(ctx context.Context, code string) (string, error)
}

// faultOutput formats a learner fault as captured output. Only the last
// stderr line is kept; for a Python traceback that is the exception
// itself.
func faultOutput(stderr string) string {
	line := lastLine(stderr)
	if line == "" {
		line = "execution failed"
	}
	return fmt.Sprintf("%s %s", ErrorMarker, line)
}

func timeoutOutput(d time.Duration) string {
	return fmt.Sprintf("%s execution timed out after %s", ErrorMarker, d)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
