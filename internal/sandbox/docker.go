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

// DockerSandbox runs submissions in throwaway Docker containers.
type DockerSandbox struct {
	Image  string
	Policy Policy
}

var _ Sandbox = (*DockerSandbox)(nil)

// NewDockerSandbox creates a sandbox running the given image under the
// given policy.
func NewDockerSandbox(image string, policy Policy) *DockerSandbox {
	return &DockerSandbox{Image: image, Policy: policy}
}

func (d *DockerSandbox) Run(ctx context.Context, code string) (string, error) {
	if !d.Policy.IsImageAllowed(d.Image) {
		return "", fmt.Errorf("image %q not in allowlist", d.Image)
	}

	tmpDir, err := os.MkdirTemp("", "codedrill-sandbox-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	codePath := filepath.Join(tmpDir, "main.py")
	if err := os.WriteFile(codePath, []byte(code), 0o644); err != nil {
		return "", fmt.Errorf("writing code file: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, d.Policy.MaxTimeout)
	defer cancel()

	args := []string{
		"run", "--rm",
		"--memory", d.Policy.MaxMemory,
		"--stop-timeout", fmt.Sprintf("%d", int(d.Policy.MaxTimeout.Seconds())),
		"-v", tmpDir + ":/workspace:ro",
		"-w", "/workspace",
	}
	if !d.Policy.Network {
		args = append(args, "--network=none")
	}
	args = append(args, d.Image, "python3", "main.py")

	cmd := exec.CommandContext(runCtx, "docker", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return timeoutOutput(d.Policy.MaxTimeout), nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The submission raised; that's a grading outcome, not a failure.
			return faultOutput(stderr.String()), nil
		}
		return "", fmt.Errorf("running docker: %w", err)
	}

	return strings.TrimSpace(stdout.String()), nil
}
