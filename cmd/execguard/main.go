// Command execguard runs shell commands through the risk gatekeeper from a
// terminal: classify, prompt for approval when needed, execute, and keep an
// audit trail.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/execguard/execguard"
	"github.com/execguard/execguard/store"
)

func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	policyPath string
	dbPath     string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "execguard",
		Short: "Risk-tiered command execution gatekeeper",
		Long: "execguard classifies shell commands into risk tiers, asks for\n" +
			"approval before dangerous ones, refuses forbidden ones outright,\n" +
			"and records every decision in an audit trail.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.policyPath, "policy", "", "YAML policy rule file (built-in rules if absent)")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "SQLite audit database (in-memory only if absent)")

	root.AddCommand(newRunCommand(&flags))
	root.AddCommand(newCheckCommand(&flags))
	root.AddCommand(newHistoryCommand(&flags))
	return root
}

// buildExecutor assembles an executor from the global flags. The returned
// closer releases the audit store, if one was opened.
func buildExecutor(flags *globalFlags, cfg *execguard.Config) (execguard.Executor, func(), error) {
	policy, err := execguard.LoadPolicy(flags.policyPath)
	if err != nil {
		return nil, nil, err
	}
	cfg.Policy = policy

	closer := func() {}
	if flags.dbPath != "" {
		st, err := store.OpenSQLite(flags.dbPath)
		if err != nil {
			return nil, nil, err
		}
		cfg.AuditSink = st
		closer = func() { st.Close() }
	}

	exec, err := execguard.NewExecutor(cfg)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return exec, closer, nil
}

func newRunCommand(flags *globalFlags) *cobra.Command {
	var (
		timeout time.Duration
		sandbox bool
		force   bool
		autoYes bool
		workDir string
	)

	cmd := &cobra.Command{
		Use:   "run [command...]",
		Short: "Classify and execute a command under the gatekeeper",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.Join(args, " ")

			cfg := execguard.DefaultConfig()
			if autoYes {
				cfg.ApprovalCallback = func(_ context.Context, _ execguard.ApprovalRequest) (execguard.ApprovalDecision, error) {
					return execguard.Approve, nil
				}
			} else {
				cfg.ApprovalCallback = terminalApproval
			}

			exec, closer, err := buildExecutor(flags, cfg)
			if err != nil {
				return err
			}

			opts := []execguard.Option{}
			if timeout > 0 {
				opts = append(opts, execguard.WithTimeout(timeout))
			}
			if sandbox {
				opts = append(opts, execguard.WithSandbox(true))
			}
			if force {
				opts = append(opts, execguard.WithForceApproval())
			}
			if workDir != "" {
				opts = append(opts, execguard.WithWorkingDir(workDir))
			}

			outcome, err := exec.Execute(cmd.Context(), command, opts...)
			exec.Cleanup(context.WithoutCancel(cmd.Context()))
			closer()
			if err != nil {
				return err
			}

			if outcome.Stdout != "" {
				fmt.Fprint(cmd.OutOrStdout(), outcome.Stdout)
			}
			if outcome.Stderr != "" {
				fmt.Fprint(cmd.ErrOrStderr(), outcome.Stderr)
			}
			if outcome.Status != execguard.StatusSuccess {
				fmt.Fprintf(cmd.ErrOrStderr(), "execguard: %s (risk %s", outcome.Status, outcome.Security.Risk)
				if len(outcome.Security.Reasons) > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), ": %s", strings.Join(outcome.Security.Reasons, "; "))
				}
				fmt.Fprintln(cmd.ErrOrStderr(), ")")
			}
			os.Exit(outcome.ReturnCode)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "execution deadline (default from config)")
	cmd.Flags().BoolVar(&sandbox, "sandbox", false, "run inside an isolated container")
	cmd.Flags().BoolVar(&force, "force-approval", false, "require approval regardless of risk level")
	cmd.Flags().BoolVarP(&autoYes, "yes", "y", false, "approve without prompting")
	cmd.Flags().StringVar(&workDir, "dir", "", "working directory for the command")
	return cmd
}

func newCheckCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [command...]",
		Short: "Classify a command without executing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.Join(args, " ")

			policy, err := execguard.LoadPolicy(flags.policyPath)
			if err != nil {
				return err
			}
			result := execguard.DefaultClassifier().Classify(command, policy)

			fmt.Fprintf(cmd.OutOrStdout(), "risk: %s\n", result.Risk)
			for _, reason := range result.Reasons {
				fmt.Fprintf(cmd.OutOrStdout(), "reason: %s\n", reason)
			}
			if result.Risk >= execguard.RiskForbidden {
				os.Exit(1)
			}
			return nil
		},
	}
}

func newHistoryCommand(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the persisted audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(flags)
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := st.Entries(limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s  %-9s  rc=%-3d  %s\n",
					e.CreatedAt.Format(time.RFC3339), e.Status, e.Risk, e.ReturnCode, e.Command)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all persisted audit records",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(flags)
			if err != nil {
				return err
			}
			defer st.Close()
			return st.Clear()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "export [file]",
		Short: "Export the audit trail as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(flags)
			if err != nil {
				return err
			}
			defer st.Close()
			return st.ExportJSON(args[0])
		},
	})
	return cmd
}

func openStore(flags *globalFlags) (*store.SQLiteStore, error) {
	if flags.dbPath == "" {
		return nil, fmt.Errorf("history requires --db")
	}
	return store.OpenSQLite(flags.dbPath)
}

// terminalApproval prompts on the controlling terminal and reads a y/n
// answer from stdin.
func terminalApproval(ctx context.Context, req execguard.ApprovalRequest) (execguard.ApprovalDecision, error) {
	fmt.Fprintf(os.Stderr, "Command requires approval (%s risk):\n  %s\n", req.Risk, req.Command)
	for _, reason := range req.Reasons {
		fmt.Fprintf(os.Stderr, "  - %s\n", reason)
	}
	fmt.Fprint(os.Stderr, "Execute? [y/N] ")

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		return execguard.Deny, ctx.Err()
	case a := <-ch:
		if a.err != nil {
			return execguard.Deny, a.err
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return execguard.Approve, nil
		}
		return execguard.Deny, nil
	}
}
