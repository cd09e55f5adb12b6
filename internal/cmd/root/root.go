package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dealerops/dealerctl/internal/build"
	"github.com/dealerops/dealerctl/internal/cmd"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs/approve"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs/cancel"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs/create"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs/dashboard"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs/del"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs/export"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs/get"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs/imp"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs/list"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs/login"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs/logout"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs/update"
	"github.com/dealerops/dealerctl/internal/cmd/root/verbs/view"
	"github.com/dealerops/dealerctl/internal/cmd/root/version"
	"github.com/dealerops/dealerctl/internal/config"
	"github.com/dealerops/dealerctl/internal/iostreams"
	"github.com/dealerops/dealerctl/internal/log"
	"github.com/dealerops/dealerctl/internal/meta"
	"github.com/dealerops/dealerctl/internal/theme"
	"github.com/dealerops/dealerctl/internal/util"
	"github.com/dealerops/dealerctl/internal/util/i18n"
	"github.com/dealerops/dealerctl/internal/util/normalizers"
)

var (
	rootLong = normalizers.LongDesc(i18n.T("root.rootLong", `
  dealerctl runs the back office of a vehicle dealership: vehicle stock,
  suppliers, purchase orders, staff, leave and the books of account.

  Records are kept in a local SQLite database. Use the view command for the
  interactive table, or the list and get commands for scripting.`))

	rootShort = i18n.T("root/rootShort", fmt.Sprintf("%s manages a vehicle dealership", meta.CLIName))

	rootCmd *cobra.Command

	// Stores the global runtime value for the Configuration file path,
	configFilePath string
	currProfile    = common.DefaultProfile

	currConfig   *config.ProfiledConfig
	streams      *iostreams.IOStreams
	outputFormat = cmd.NewEnum([]string{"json", "yaml", "text"}, common.DefaultOutputFormat)
	logLevel     = cmd.NewEnum([]string{"trace", "debug", "info", "warn", "error"}, common.DefaultLogLevel)
	colorTheme   = theme.NewFlag(common.DefaultColorTheme)

	buildInfo   *build.Info
	logger      *slog.Logger
	logCloser   io.Closer
	provider    = &cmd.ServiceProvider{}
	defaultPath string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   meta.CLIName,
		Short: rootShort,
		Long:  rootLong,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			if err := theme.SetCurrent(currConfig.GetString(common.ColorThemeConfigPath)); err != nil {
				return &cmd.ConfigurationError{Err: err}
			}

			level, err := resolveLogLevel(currConfig)
			if err != nil {
				return &cmd.ConfigurationError{Err: err}
			}
			logger, logCloser, err = log.New(log.Options{
				Level:  level.String(),
				File:   currConfig.GetString(common.LogFileConfigPath),
				Stderr: streams.ErrOut,
			})
			if err != nil {
				return &cmd.ConfigurationError{Err: err}
			}

			ctx := context.WithValue(c.Context(), config.ConfigKey, config.Hook(currConfig))
			ctx = context.WithValue(ctx, iostreams.StreamsKey, streams)
			ctx = context.WithValue(ctx, build.InfoKey, buildInfo)
			ctx = context.WithValue(ctx, log.LoggerKey, logger)
			ctx = context.WithValue(ctx, cmd.ServiceFactoryKey, cmd.ServiceFactory(provider.Open))
			ctx = theme.ContextWithPalette(ctx, theme.Current())
			ctx = log.WithCommandContext(ctx, log.CommandContext{CommandPath: c.CommandPath()})
			c.SetContext(ctx)

			logger.Debug("command started", "command", c.CommandPath(), "profile", currConfig.GetProfile())
			return nil
		},
	}

	// parses all flags not just the target command
	rootCmd.TraverseChildren = true

	rootCmd.PersistentFlags().StringVar(&configFilePath, common.ConfigFilePathFlagName,
		defaultPath,
		i18n.T("root."+common.ConfigFilePathFlagName, "Path to the configuration file to load."))

	rootCmd.PersistentFlags().StringVarP(&currProfile, common.ProfileFlagName, common.ProfileFlagShort,
		common.DefaultProfile,
		fmt.Sprintf("Specify the profile to use for this command. Also read from %s_PROFILE.", meta.EnvPrefix))

	rootCmd.PersistentFlags().VarP(outputFormat, common.OutputFlagName, common.OutputFlagShort,
		fmt.Sprintf(`Configures the output format.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.OutputConfigPath, strings.Join(outputFormat.Allowed, "|")))

	rootCmd.PersistentFlags().Var(logLevel, common.LogLevelFlagName,
		fmt.Sprintf(`Configures the logging level of the log file.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.LogLevelConfigPath, strings.Join(logLevel.Allowed, "|")))

	rootCmd.PersistentFlags().String(common.DatabaseFlagName, "",
		fmt.Sprintf(`Path to the SQLite database file.
- Config path: [ %s ]`, common.DatabasePathConfigPath))

	rootCmd.PersistentFlags().Var(colorTheme, common.ColorThemeConfigPath,
		fmt.Sprintf(`Color theme of the interactive view.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.ColorThemeConfigPath, strings.Join(theme.Available(), "|")))

	_ = rootCmd.RegisterFlagCompletionFunc(common.OutputFlagName, outputFormat.Completion())
	_ = rootCmd.RegisterFlagCompletionFunc(common.LogLevelFlagName, logLevel.Completion())

	return rootCmd
}

// resolveLogLevel validates the configured level, which may come from the
// config file or the environment rather than the checked flag.
func resolveLogLevel(cfg config.Hook) (common.LogLevel, error) {
	value := strings.ToLower(strings.TrimSpace(cfg.GetString(common.LogLevelConfigPath)))
	if value == "" {
		value = common.DefaultLogLevel
	}
	return common.LogLevelStringToIota(value)
}

// addCommands adds the root subcommands to the command.
func addCommands() error {
	rootCmd.AddCommand(version.NewVersionCmd())

	for _, newCmd := range []func() (*cobra.Command, error){
		get.NewGetCmd,
		list.NewListCmd,
		view.NewViewCmd,
		create.NewCreateCmd,
		update.NewUpdateCmd,
		del.NewDeleteCmd,
		approve.NewApproveCmd,
		cancel.NewCancelCmd,
		export.NewExportCmd,
		imp.NewImportCmd,
		dashboard.NewDashboardCmd,
		login.NewLoginCmd,
		logout.NewLogoutCmd,
	} {
		c, err := newCmd()
		if err != nil {
			return err
		}
		rootCmd.AddCommand(c)
	}
	return nil
}

func init() {
	path, err := config.GetDefaultConfigFilePath()
	util.CheckError(err)
	defaultPath = path
	configFilePath = path

	cobra.OnInitialize(initConfig)
	rootCmd = newRootCmd()
	util.CheckError(addCommands())

	// The profile selects which part of the configuration is read, so viper
	// can't resolve it. ENV_VAR < CLI_FLAG priority is kept by setting the
	// package level default before the flags are parsed.
	profileEnvVar, found := os.LookupEnv(fmt.Sprintf("%s_PROFILE", meta.EnvPrefix))
	if found && profileEnvVar != "" {
		currProfile = profileEnvVar
	}
}

func initConfig() {
	cfg, err := config.GetConfig(configFilePath, currProfile, defaultPath)
	util.CheckError(err)
	currConfig = cfg

	for path, name := range map[string]string{
		common.OutputConfigPath:       common.OutputFlagName,
		common.LogLevelConfigPath:     common.LogLevelFlagName,
		common.DatabasePathConfigPath: common.DatabaseFlagName,
		common.ColorThemeConfigPath:   common.ColorThemeConfigPath,
	} {
		util.CheckError(cfg.BindFlag(path, rootCmd.PersistentFlags().Lookup(name)))
	}
}

// Execute runs the command line and exits non-zero on failure.
func Execute(ctx context.Context, s *iostreams.IOStreams, bi *build.Info) {
	buildInfo = bi
	cobra.EnableTraverseRunHooks = true
	streams = s

	err := rootCmd.ExecuteContext(ctx)
	exitCode := 0
	if err != nil {
		exitCode = 1
		reportError(err)
	}

	if cerr := provider.Close(); cerr != nil && logger != nil {
		logger.Warn("failed to close the database", "error", cerr)
	}
	if logCloser != nil {
		_ = logCloser.Close()
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// reportError prints failures that cobra did not already print. Execution
// errors go through the logger, which renders them on stderr and records them
// in the log file.
func reportError(err error) {
	var executionError *cmd.ExecutionError
	if !errors.As(err, &executionError) {
		return
	}
	l := logger
	if l == nil {
		l = slog.New(log.NewFriendlyErrorHandler(streams.ErrOut))
	}
	attrs := append([]any{"error", executionError.Err}, executionError.Attrs...)
	l.Error(executionError.Msg, attrs...)
}
