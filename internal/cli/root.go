// Package cli provides the command-line interface for docflow.
package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lerboi/FileManagement-sub001/internal/config"
	"github.com/lerboi/FileManagement-sub001/internal/errors"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// globalLogger stores the initialized logger for use by subcommands.
// It is set during PersistentPreRunE and read through GetLogger.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // Protects globalLogger
)

// GetLogger returns the initialized logger for use by subcommands.
//
// It MUST only be called after the root command's PersistentPreRunE has
// executed; before that it returns a zero-value logger that discards all
// output. It is safe for concurrent use.
func GetLogger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// session carries what PersistentPreRunE resolved to the subcommands.
type session struct {
	flags *GlobalFlags
	cfg   *config.Config
}

// loadConfig reads the --config file when given, otherwise the layered
// global and project files.
func (s *session) loadConfig(ctx context.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if s.flags.ConfigPath != "" {
		cfg, err = config.LoadFromPaths(ctx, s.flags.ConfigPath, "")
	} else {
		cfg, err = config.Load(ctx)
	}
	if err != nil {
		return nil, err
	}
	if err := config.ResolvePaths(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newRootCmd creates and returns the root command for the docflow CLI.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	v := viper.New()
	s := &session{flags: flags}

	cmd := &cobra.Command{
		Use:   "docflow",
		Short: "docflow - task lifecycle and document generation",
		Long: `docflow turns client records and document templates into generated
documents, tracks each task from draft to completion, and keeps templates
in step with the client data schema.

Features:
  • Concurrent document generation with partial-failure reporting
  • Task lifecycle: draft → in_progress → awaiting → completed
  • Signed-copy tracking and completion checks
  • Schema drift analysis with template migration plans`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			if !IsValidOutputFormat(flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats())
			}

			cfg, err := s.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			s.cfg = cfg

			globalLoggerMu.Lock()
			globalLogger = InitLogger(flags.Verbose, flags.Quiet, cfg.Logging)
			globalLoggerMu.Unlock()

			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			CloseLogFile()
		},
		SilenceUsage: true,
	}

	AddGlobalFlags(cmd, flags)

	AddTaskCommand(cmd, s)
	AddSchemaCommand(cmd, s)
	AddImportCommands(cmd, s)
	AddFollowUpCommand(cmd, s)
	AddConfigCommand(cmd, s)

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	cmd := newRootCmd(flags, info)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		if _, action := errors.Actionable(err); action != "" {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Hint:", action)
		}
	}
	return err
}
