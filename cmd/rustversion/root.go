package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	rustversion "github.com/albertocavalcante/go-rustversion"
	"github.com/albertocavalcante/go-rustversion/rustc"
)

const configName = ".rustversion"

// app is the state shared by every subcommand of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	logger  *slog.Logger
	engine  *rustversion.Engine
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "rustversion",
		Short: "Select code by the version of the Rust compiler.",
		Long: `rustversion evaluates selectors such as since(1.31), nightly(2019-04-27) or
all(stable, before(1.40)) against the installed rustc.

It can rewrite #[rustversion::...] attributes in Rust sources and filter
BUILD and MODULE.bazel statements annotated with "# rustversion:" comments.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.rustversion.yaml)")
	flags.String("rustc", "", "compiler to run (default is $RUSTC, then rustc on PATH)")
	flags.String("version-text", "", "evaluate against this rustc --version output instead of running the compiler")
	flags.Bool("verbose-probe", false, "probe with rustc -vV instead of rustc --version")
	flags.Duration("timeout", 30*time.Second, "bound on each compiler run")
	flags.StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error")

	for _, name := range []string{"rustc", "version-text", "verbose-probe", "timeout", "loglevel"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newVersionCmd(a),
		newEvalCmd(a),
		newExpandCmd(a),
		newBazelFilterCmd(a),
	)
	return root
}

// setup reads the configuration and builds the logger and Engine.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.readConfig(); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("loglevel"))); err != nil {
		return fmt.Errorf("invalid log level %q", a.v.GetString("loglevel"))
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("using config file", "path", used)
	}

	opts := []rustversion.Option{
		rustversion.WithLogger(a.logger),
		rustversion.WithVerbose(a.v.GetBool("verbose-probe")),
		rustversion.WithTimeout(a.v.GetDuration("timeout")),
	}
	switch text, path := a.v.GetString("version-text"), a.v.GetString("rustc"); {
	case text != "":
		opts = append(opts, rustversion.WithVersionText(text))
	case path != "":
		opts = append(opts, rustversion.WithRustc(path))
	}

	engine, err := rustversion.New(opts...)
	if err != nil {
		return err
	}
	a.engine = engine
	return nil
}

// readConfig reads the config file and binds the environment. A missing
// default config file is not an error.
func (a *app) readConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return err
		}
		a.v.AddConfigPath(home)
		a.v.SetConfigName(configName)
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix("RUSTVERSION")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindEnv("rustc", "RUSTVERSION_RUSTC", rustc.EnvVar); err != nil {
		return err
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}
