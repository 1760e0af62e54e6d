package execguard

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Policy == nil {
		t.Error("Policy should be set")
	}
	if cfg.ApprovalCallback != nil {
		t.Error("no approval capability by default; high risk fails closed")
	}
	if cfg.ExecTimeout != 30*time.Second {
		t.Errorf("ExecTimeout = %v, want 30s", cfg.ExecTimeout)
	}
	if cfg.ApprovalTimeout != 60*time.Second {
		t.Errorf("ApprovalTimeout = %v, want 60s", cfg.ApprovalTimeout)
	}
	if cfg.Sandbox.Enabled {
		t.Error("sandboxing should be off by default")
	}
	if cfg.MaxOutputBytes != defaultMaxOutputBytes {
		t.Errorf("MaxOutputBytes = %d, want %d", cfg.MaxOutputBytes, defaultMaxOutputBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should validate: %v", err)
	}
}

func TestDevelopmentConfig(t *testing.T) {
	cfg := DevelopmentConfig()
	if cfg.ExecTimeout != 5*time.Minute {
		t.Errorf("ExecTimeout = %v, want 5m", cfg.ExecTimeout)
	}
	if cfg.HistoryLimit != 100 {
		t.Errorf("HistoryLimit = %d, want 100", cfg.HistoryLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DevelopmentConfig should validate: %v", err)
	}
}

func TestCIConfig(t *testing.T) {
	cfg := CIConfig()
	if !cfg.Sandbox.Enabled {
		t.Error("CI config should enable sandboxing")
	}
	if cfg.Sandbox.Threshold != RiskModerate {
		t.Errorf("Threshold = %v, want RiskModerate", cfg.Sandbox.Threshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("CIConfig should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative approval timeout", func(c *Config) { c.ApprovalTimeout = -time.Second }},
		{"negative exec timeout", func(c *Config) { c.ExecTimeout = -time.Second }},
		{"negative max output", func(c *Config) { c.MaxOutputBytes = -1 }},
		{"negative history limit", func(c *Config) { c.HistoryLimit = -1 }},
		{"relative shell path", func(c *Config) { c.Shell = "sh" }},
		{"out of range threshold", func(c *Config) { c.Sandbox.Threshold = RiskLevel(42) }},
		{"bad policy pattern", func(c *Config) {
			c.Policy.DangerousPatterns = []DangerousPattern{{Pattern: "[unclosed", Reason: "x"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrConfigInvalid) {
				t.Errorf("Validate() = %v, want ErrConfigInvalid", err)
			}
		})
	}
}

func TestDeepCopyConfigPolicyIsolation(t *testing.T) {
	cfg := DefaultConfig()
	cfgCopy := deepCopyConfig(cfg)

	cfg.Policy.SafeCommands["sneaky"] = true
	if cfgCopy.Policy.SafeCommands["sneaky"] {
		t.Error("deep copy shares policy state with original")
	}
}

func TestFillConfigDefaults(t *testing.T) {
	cfg := &Config{}
	fillConfigDefaults(cfg)

	if cfg.Policy == nil || cfg.Classifier == nil {
		t.Error("policy and classifier defaults missing")
	}
	if cfg.Shell != defaultShell {
		t.Errorf("Shell = %q, want %q", cfg.Shell, defaultShell)
	}
	if cfg.ExecTimeout != defaultExecTimeout || cfg.ApprovalTimeout != defaultApprovalTimeout {
		t.Errorf("timeouts = %v/%v, want defaults", cfg.ExecTimeout, cfg.ApprovalTimeout)
	}
	if cfg.Sandbox.Threshold != RiskHigh {
		t.Errorf("Sandbox.Threshold = %v, want RiskHigh", cfg.Sandbox.Threshold)
	}
	if cfg.Sandbox.Runtime != defaultSandboxRuntime {
		t.Errorf("Sandbox.Runtime = %q, want %q", cfg.Sandbox.Runtime, defaultSandboxRuntime)
	}
}

func TestFillConfigDefaultsKeepsExplicitThreshold(t *testing.T) {
	// An enabled sandbox with the zero-value threshold means "sandbox
	// everything" and must not be bumped to RiskHigh.
	cfg := &Config{Sandbox: SandboxConfig{Enabled: true, Threshold: RiskSafe}}
	fillConfigDefaults(cfg)
	if cfg.Sandbox.Threshold != RiskSafe {
		t.Errorf("Threshold = %v, want RiskSafe preserved", cfg.Sandbox.Threshold)
	}
}
