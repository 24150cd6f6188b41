//go:build !js

package webtty

import (
	"os"
	"os/exec"
	"testing"
)

func TestBuildsForJSWasm(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping cross build in short mode")
	}
	gobin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not on PATH")
	}

	cmd := exec.Command(gobin, "build", "-o", os.DevNull, "./wasm")
	cmd.Env = append(os.Environ(), "GOOS=js", "GOARCH=wasm", "CGO_ENABLED=0")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Errorf("expected GOOS=js GOARCH=wasm build of ./wasm to succeed: %v\n%s", err, out)
	}
}
