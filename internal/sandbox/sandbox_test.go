package sandbox

import (
	"strings"
	"testing"
	"time"
)

func TestIsImageAllowed(t *testing.T) {
	p := DefaultPolicy()

	if !p.IsImageAllowed("python:3.12-slim") {
		t.Error("expected python:3.12-slim to be allowed")
	}
	if p.IsImageAllowed("alpine:latest") {
		t.Error("expected alpine:latest to be rejected")
	}
}

func TestDockerSandboxRejectsUnlistedImage(t *testing.T) {
	box := NewDockerSandbox("evil:latest", DefaultPolicy())

	if _, err := box.Run(t.Context(), "print(1)"); err == nil {
		t.Fatal("expected error for unlisted image")
	}
}

func TestFaultOutputKeepsLastStderrLine(t *testing.T) {
	stderr := `Traceback (most recent call last):
  File "main.py", line 1, in <module>
ZeroDivisionError: division by zero`

	got := faultOutput(stderr)
	if !strings.HasPrefix(got, ErrorMarker) {
		t.Errorf("output %q missing error marker", got)
	}
	if !strings.Contains(got, "ZeroDivisionError: division by zero") {
		t.Errorf("output %q missing exception line", got)
	}
	if strings.Contains(got, "Traceback") {
		t.Errorf("output %q should not carry the full traceback", got)
	}
}

func TestFaultOutputEmptyStderr(t *testing.T) {
	got := faultOutput("")
	if !strings.HasPrefix(got, ErrorMarker) {
		t.Errorf("output %q missing error marker", got)
	}
}

func TestTimeoutOutput(t *testing.T) {
	got := timeoutOutput(10 * time.Second)
	if !strings.HasPrefix(got, ErrorMarker) || !strings.Contains(got, "10s") {
		t.Errorf("unexpected timeout output %q", got)
	}
}
