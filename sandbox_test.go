package execguard

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSandboxConfigWithDefaults(t *testing.T) {
	s := SandboxConfig{}.withDefaults()
	if s.Runtime != "docker" {
		t.Errorf("Runtime = %q, want docker", s.Runtime)
	}
	if s.Image != defaultSandboxImage {
		t.Errorf("Image = %q, want %q", s.Image, defaultSandboxImage)
	}
	if s.MemoryLimit != defaultSandboxMemory || s.CPULimit != defaultSandboxCPU {
		t.Errorf("limits = %q/%q, want defaults", s.MemoryLimit, s.CPULimit)
	}
	if s.User != defaultSandboxUser {
		t.Errorf("User = %q, want %q", s.User, defaultSandboxUser)
	}

	// Explicit values survive.
	s = SandboxConfig{Runtime: "podman", Image: "alpine:3.19"}.withDefaults()
	if s.Runtime != "podman" || s.Image != "alpine:3.19" {
		t.Errorf("explicit values overwritten: %q %q", s.Runtime, s.Image)
	}
}

func TestShouldSandbox(t *testing.T) {
	tests := []struct {
		name string
		cfg  SandboxConfig
		risk RiskLevel
		want bool
	}{
		{"disabled", SandboxConfig{Enabled: false, Threshold: RiskHigh}, RiskHigh, false},
		{"below threshold", SandboxConfig{Enabled: true, Threshold: RiskHigh}, RiskModerate, false},
		{"at threshold", SandboxConfig{Enabled: true, Threshold: RiskHigh}, RiskHigh, true},
		{"above threshold", SandboxConfig{Enabled: true, Threshold: RiskModerate}, RiskHigh, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.shouldSandbox(tt.risk); got != tt.want {
				t.Errorf("shouldSandbox(%v) = %v, want %v", tt.risk, got, tt.want)
			}
		})
	}
}

// TestSandboxArgs pins the exact container invocation. The command string
// must travel as a single argv element; any change to the isolation flags
// should be a conscious one.
func TestSandboxArgs(t *testing.T) {
	s := SandboxConfig{Enabled: true}.withDefaults()
	got := sandboxArgs(s, "/bin/sh", "rm -rf $HOME; echo injected")

	want := []string{
		"docker", "run",
		"--rm",
		"--read-only",
		"--network", "none",
		"--memory", "512m",
		"--cpus", "1.0",
		"--user", "nobody",
		"--security-opt", "no-new-privileges",
		"--tmpfs", "/tmp",
		"alpine:3.20",
		"/bin/sh", "-c", "rm -rf $HOME; echo injected",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sandboxArgs mismatch (-want +got):\n%s", diff)
	}
}

func TestSandboxArgsWorkdir(t *testing.T) {
	s := SandboxConfig{Enabled: true, Workdir: "/work"}.withDefaults()
	got := sandboxArgs(s, "/bin/sh", "ls")

	var found bool
	for i, arg := range got {
		if arg == "--workdir" && i+1 < len(got) && got[i+1] == "/work" {
			found = true
		}
	}
	if !found {
		t.Errorf("argv missing --workdir /work: %v", got)
	}
	// The command stays the trailing single argv element.
	if got[len(got)-1] != "ls" || got[len(got)-2] != "-c" {
		t.Errorf("argv tail = %v", got[len(got)-3:])
	}
}

func TestCheckSandboxRuntimeMissing(t *testing.T) {
	err := checkSandboxRuntime("definitely-not-a-container-runtime-binary")
	if err == nil {
		t.Fatal("expected error for missing runtime")
	}
	if !errors.Is(err, ErrSandboxUnavailable) {
		t.Errorf("error should wrap ErrSandboxUnavailable, got: %v", err)
	}
}

func TestCheckSandboxRuntimePresent(t *testing.T) {
	// Any binary on PATH works for the lookup check.
	if err := checkSandboxRuntime("sh"); err != nil {
		t.Errorf("checkSandboxRuntime(sh) = %v, want nil", err)
	}
}
