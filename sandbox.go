package execguard

import (
	"fmt"
	"os/exec"
)

const (
	// defaultSandboxRuntime is the container runtime binary used for
	// isolated execution.
	defaultSandboxRuntime = "docker"

	// defaultSandboxImage is the pinned base image for sandboxed commands.
	// The image is fixed by configuration and never derived from user
	// input: the command string must not be able to choose its own jail.
	defaultSandboxImage = "alpine:3.20"

	// defaultSandboxMemory bounds container memory.
	defaultSandboxMemory = "512m"

	// defaultSandboxCPU bounds container CPU shares.
	defaultSandboxCPU = "1.0"

	// defaultSandboxUser is the unprivileged identity commands drop to.
	defaultSandboxUser = "nobody"
)

// SandboxConfig controls when and how commands are rewritten into isolated
// container invocations.
type SandboxConfig struct {
	// Enabled turns sandboxing on. When false, commands always run
	// directly on the host shell.
	Enabled bool

	// Runtime is the container runtime binary (docker-compatible CLI).
	// Defaults to "docker".
	Runtime string

	// Image is the pinned base image. Defaults to defaultSandboxImage.
	Image string

	// Threshold is the minimum post-approval risk level at which commands
	// are sandboxed. Defaults to RiskHigh.
	Threshold RiskLevel

	// MemoryLimit bounds container memory (docker --memory syntax).
	MemoryLimit string

	// CPULimit bounds container CPU (docker --cpus syntax).
	CPULimit string

	// User is the unprivileged user identity inside the container.
	User string

	// Workdir, when set, is the working directory inside the container.
	Workdir string
}

// withDefaults fills unset fields. The zero value of Threshold is RiskSafe,
// which would sandbox everything; an explicit RiskSafe threshold is
// expressed the same way, so the default only applies alongside other unset
// fields via DefaultConfig.
func (s SandboxConfig) withDefaults() SandboxConfig {
	if s.Runtime == "" {
		s.Runtime = defaultSandboxRuntime
	}
	if s.Image == "" {
		s.Image = defaultSandboxImage
	}
	if s.MemoryLimit == "" {
		s.MemoryLimit = defaultSandboxMemory
	}
	if s.CPULimit == "" {
		s.CPULimit = defaultSandboxCPU
	}
	if s.User == "" {
		s.User = defaultSandboxUser
	}
	return s
}

// shouldSandbox reports whether a command at the given final risk level gets
// the isolated rewrite.
func (s SandboxConfig) shouldSandbox(risk RiskLevel) bool {
	return s.Enabled && risk >= s.Threshold
}

// sandboxArgs rewrites a shell command into an isolated container
// invocation. The argument list is built field by field rather than by
// string concatenation, so the isolation boundary itself cannot reintroduce
// injection: the command string travels as a single argv element into the
// container's shell.
//
// The invocation requests: an ephemeral container (--rm), a read-only root
// filesystem, no network, bounded memory and CPU, an unprivileged user, no
// privilege re-acquisition, and the pinned image. A writable tmpfs is
// mounted at /tmp so commands have scratch space despite the read-only root.
func sandboxArgs(s SandboxConfig, shell, command string) []string {
	args := []string{
		s.Runtime, "run",
		"--rm",
		"--read-only",
		"--network", "none",
		"--memory", s.MemoryLimit,
		"--cpus", s.CPULimit,
		"--user", s.User,
		"--security-opt", "no-new-privileges",
		"--tmpfs", "/tmp",
	}
	if s.Workdir != "" {
		args = append(args, "--workdir", s.Workdir)
	}
	return append(args, s.Image, shell, "-c", command)
}

// checkSandboxRuntime verifies the container runtime binary exists on PATH.
// A missing runtime with sandboxing enabled is a deployment defect, so this
// is one of the few places the package returns a genuine error.
func checkSandboxRuntime(runtime string) error {
	if _, err := exec.LookPath(runtime); err != nil {
		return fmt.Errorf("%w: %q not found in PATH: %w", ErrSandboxUnavailable, runtime, err)
	}
	return nil
}
