// Command manager is the development task CLI: dependency installs, shell
// command execution, and code analysis, independent of the server process.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/atenabot/atena/internal/analyzer"
	"github.com/atenabot/atena/internal/deps"
	"github.com/atenabot/atena/internal/executor"
	"github.com/atenabot/atena/pkg/config"
	"github.com/atenabot/atena/pkg/logger"
	"github.com/atenabot/atena/pkg/oplog"
)

var (
	cfg    *config.Config
	ops    *oplog.Sink
	runner *executor.Executor
)

var rootCmd = &cobra.Command{
	Use:           "manager",
	Short:         "ATENA development task manager",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		_ = godotenv.Load()
		loaded, err := config.Load(os.Getenv("ATENA_CONFIG"))
		if err != nil {
			return err
		}
		cfg = loaded
		if err := logger.Init(logger.Config{
			Level:      cfg.LogLevel,
			OutputFile: cfg.LogFile,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}); err != nil {
			return err
		}
		ops = oplog.NewSink(cfg.OpsLogFile)
		runner = executor.New(cfg.BaseDir, ops)
		return nil
	},
}

func newInstallCmd() *cobra.Command {
	var (
		upgrade bool
		pkgName string
	)
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install project dependencies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dm := deps.NewManager(cfg.BaseDir, runner, ops)
			var ok bool
			if pkgName != "" {
				ok = dm.InstallPackage(cmd.Context(), pkgName)
			} else {
				ok = dm.InstallDependencies(cmd.Context(), upgrade)
			}
			if !ok {
				return fmt.Errorf("install failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&upgrade, "upgrade", "u", false, "upgrade packages")
	cmd.Flags().StringVarP(&pkgName, "package", "p", "", "install a specific package")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		dir     string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run <cmd>",
		Short: "Execute a shell command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The configured timeout applies unless the flag was set.
			if !cmd.Flags().Changed("timeout") && cfg != nil {
				timeout = cfg.CommandTimeout
			}
			res := runner.Run(cmd.Context(), args[0], executor.Options{Dir: dir, Timeout: timeout})
			if res.Stdout != "" {
				fmt.Print(res.Stdout)
			}
			if res.Stderr != "" {
				fmt.Fprint(os.Stderr, res.Stderr)
			}
			if !res.Success {
				return fmt.Errorf("command failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "working directory (default: base dir)")
	cmd.Flags().DurationVar(&timeout, "timeout", executor.DefaultTimeout, "command timeout (default: ATENA_COMMAND_TIMEOUT)")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [path]",
		Short: "Analyze code for improvements",
		Args:  cobra.MaximumNArgs(1),
		// The analyze report always exits zero, findings included.
		Run: func(cmd *cobra.Command, args []string) {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			az := analyzer.New()
			results, err := az.AnalyzePath(cmd.Context(), path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
				return
			}
			analyzer.WriteReport(os.Stdout, results)
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed module dependencies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dm := deps.NewManager(cfg.BaseDir, runner, ops)
			mods, err := dm.ListInstalled(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range mods {
				fmt.Println(m)
			}
			return nil
		},
	}
}

func main() {
	rootCmd.AddCommand(newInstallCmd(), newRunCmd(), newAnalyzeCmd(), newListCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
