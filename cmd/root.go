// Package cmd wires the CLI commands to the flows.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rednote-cli/internal/browser"
	"github.com/xkilldash9x/rednote-cli/internal/config"
	"github.com/xkilldash9x/rednote-cli/internal/cookies"
	"github.com/xkilldash9x/rednote-cli/internal/observability"
)

// app carries the resolved configuration and logger from the root
// command's PersistentPreRunE into the subcommands.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger

	cfgFile string
}

// NewRootCommand builds a fresh command tree. Each invocation gets its
// own viper instance so flag state never leaks between executions.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "rednote-cli",
		Short:         "Automates xiaohongshu login and image+text publishing through a real browser.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initializeConfig(cmd); err != nil {
				return err
			}
			observability.InitializeLogger(a.cfg.Logger)
			a.logger = observability.GetLogger()
			a.logger.Debug("Starting rednote-cli.", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().Bool("headless", false, "run the browser without a window")
	rootCmd.PersistentFlags().String("chrome-path", "", "path to a Chrome/Chromium binary (default is the bundled chromium)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newPublishCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the CLI with a signal-aware context.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// initializeConfig resolves the configuration with the usual precedence:
// flags over environment over config file over defaults.
func (a *app) initializeConfig(cmd *cobra.Command) error {
	config.SetDefaults(a.v)

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix("REDNOTE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env vars carry it.
	}

	cfg, err := config.NewConfigFromViper(a.v)
	if err != nil {
		return err
	}

	// Only explicitly set flags override the config file, otherwise a
	// bool flag's default would clobber it.
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless, _ = cmd.Flags().GetBool("headless")
	}
	if cmd.Flags().Changed("chrome-path") {
		cfg.Browser.ExecutablePath, _ = cmd.Flags().GetString("chrome-path")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.cfg = cfg
	return nil
}

// cookieStore opens the cookie store at its configured (or default)
// location.
func (a *app) cookieStore() (*cookies.Store, error) {
	path := a.cfg.Cookies.File
	if path == "" {
		var err error
		path, err = cookies.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("could not resolve cookie store path: %w", err)
		}
	}
	return cookies.NewStore(path, a.logger), nil
}

// newBrowserManager builds the session manager on top of the cookie
// store.
func (a *app) newBrowserManager() (*browser.Manager, error) {
	store, err := a.cookieStore()
	if err != nil {
		return nil, err
	}
	return browser.NewManager(a.cfg.Browser, store, a.logger), nil
}
