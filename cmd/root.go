package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/grafana/sobek"
	"github.com/shiroyk/embedjs/internal/config"
	"github.com/shiroyk/embedjs/internal/logger"
	"github.com/shiroyk/embedjs/internal/utils"
	"github.com/shiroyk/embedjs/js"
	"github.com/shiroyk/embedjs/modules"
	"github.com/shiroyk/embedjs/plugin"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var (
	configArg  string
	timeoutArg string
	debugArg   bool
	pluginArg  string
)

var rootCmd = &cobra.Command{
	Use:               "embedjs",
	Short:             "embedjs runs JavaScript embedded in a Go host.",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configArg, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().StringVarP(&timeoutArg, "timeout", "t", "", "timeout of each run, e.g. 10s, 500ms")
	rootCmd.PersistentFlags().BoolVarP(&debugArg, "debug", "d", false, "output the debug log")
	rootCmd.PersistentFlags().StringVarP(&pluginArg, "plugin", "p", "", "plugin directory, loaded before running")
}

// Execute main command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitError an error has been reported, the process exits with code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// exception the string form of a JavaScript exception,
// the error message for other errors.
func exception(err error) string {
	var ex *sobek.Exception
	if errors.As(err, &ex) {
		return ex.Value().String()
	}
	return err.Error()
}

// setup reads the configuration, applies the flags, then
// initializes the logger, the module loader and the plugins.
func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" || cmd.Name() == "config" {
		return nil
	}
	cfg, err := config.ReadConfig(configArg)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	if err = applyFlags(cmd, cfg); err != nil {
		return err
	}

	log, err := logger.New(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	base, err := baseURL(cfg.JS.Base)
	if err != nil {
		return err
	}
	js.SetLoader(modules.NewLoader(
		modules.WithBase(base),
		modules.WithNativeLoader(plugin.Open),
	))

	if cfg.Plugin.Dir != "" {
		dir, err := utils.ExpandPath(cfg.Plugin.Dir)
		if err != nil {
			return err
		}
		size, err := plugin.LoadDir(dir)
		if err != nil {
			log.Warn("error loading plugins", "dir", dir, "error", err)
		}
		log.Debug("plugins loaded", "dir", dir, "size", size)
	}

	ctx := js.WithLogger(cmd.Context(), log)
	cmd.SetContext(config.NewContext(ctx, *cfg))
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("timeout") {
		timeout, err := cast.ToDurationE(timeoutArg)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", timeoutArg, err)
		}
		cfg.JS.Timeout = timeout
	}
	if debugArg {
		cfg.Log.Level = "debug"
	}
	if pluginArg != "" {
		cfg.Plugin.Dir = pluginArg
	}
	return nil
}

// baseURL the file URL of the directory, relative module
// specifiers of scripts are resolved against it.
func baseURL(dir string) (*url.URL, error) {
	dir, err := utils.ExpandPath(utils.ZeroOr(dir, "."))
	if err != nil {
		return nil, err
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(dir) + "/"}, nil
}

// runContext the context of a run with the configured timeout.
func runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := config.FromContext(ctx).JS.Timeout; timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// newVM the VM of the command writes console to the command output.
func newVM(cmd *cobra.Command) js.VM {
	cfg := config.FromContext(cmd.Context())
	return js.NewVM(
		js.WithStrict(cfg.JS.Strict),
		js.WithStdout(cmd.OutOrStdout()),
		js.WithStderr(cmd.ErrOrStderr()),
	)
}
