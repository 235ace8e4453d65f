package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/nuavm/nua/errz"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var red = color.New(color.FgRed).SprintFunc()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nua",
		Short:         "Run and inspect precompiled Lua 5.2 chunks",
		Version:       fmt.Sprintf("%s (%s, %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.nua.yaml)")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	viper.BindPFlag("config", flags.Lookup("config"))
	viper.BindPFlag("no-color", flags.Lookup("no-color"))
	viper.BindPFlag("log-level", flags.Lookup("log-level"))

	root.AddCommand(newRunCmd(), newDisCmd(), newDumpCmd())
	return root
}

// initConfig reads the config file and NUA_ environment variables.
func initConfig() error {
	viper.SetEnvPrefix("nua")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".nua")
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("failed to read config: %w", err)
			}
		}
	}
	processGlobalFlags()
	return nil
}

// newLogger builds the console logger used for VM events.
func newLogger() (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return zerolog.Nop(), err
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: color.NoColor}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	var execErr *errz.ExecutionError
	if errors.As(err, &execErr) {
		fmt.Fprint(os.Stderr, execErr.FriendlyErrorMessage())
	} else {
		fmt.Fprintf(os.Stderr, "%s\n", red(err.Error()))
	}
	os.Exit(1)
}
