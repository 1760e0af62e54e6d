//go:build !(darwin || linux)

package execguard

import "os/exec"

// setupProcessGroup is a no-op on platforms without Unix process groups.
// Context cancellation falls back to killing the direct child only.
func setupProcessGroup(_ *exec.Cmd) {}
