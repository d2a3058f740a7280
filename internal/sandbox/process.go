package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ProcessSandbox runs submissions as a local python3 child process for
// hosts without Docker. Isolated mode (-I) gives each run an empty
// namespace with no site-packages, no environment inheritance and no
// access to the server's symbols; memory and filesystem limits are
// weaker than the Docker backend, so prefer that one where available.
type ProcessSandbox struct {
	Python string // interpreter binary, "python3" when empty
	Policy Policy
}

var _ Sandbox = (*ProcessSandbox)(nil)

// NewProcessSandbox creates a subprocess-backed sandbox.
func NewProcessSandbox(python string, policy Policy) *ProcessSandbox {
	if python == "" {
		python = "python3"
	}
	return &ProcessSandbox{Python: python, Policy: policy}
}

func (p *ProcessSandbox) Run(ctx context.Context, code string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "codedrill-sandbox-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	codePath := filepath.Join(tmpDir, "main.py")
	if err := os.WriteFile(codePath, []byte(code), 0o644); err != nil {
		return "", fmt.Errorf("writing code file: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, p.Policy.MaxTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.Python, "-I", codePath)
	cmd.Dir = tmpDir
	cmd.Env = []string{} // nothing from the server leaks in

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return timeoutOutput(p.Policy.MaxTimeout), nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return faultOutput(stderr.String()), nil
		}
		return "", fmt.Errorf("running %s: %w", p.Python, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}
