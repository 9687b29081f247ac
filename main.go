package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	app "github.com/rocketscienceinc/connectfour-client/internal"
	"github.com/rocketscienceinc/connectfour-client/internal/config"
)

const defaultConfigPath = "./config.yml"

type flags struct {
	configPath string
	username   string
}

// main - is the entry point of the application. It initializes the configuration, logger, and runs the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	cobra.CheckErr(newCmd(&flags{}).Execute())
}

func newCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connectfour",
		Short: "Terminal client for real-time Connect Four.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := initConfig(f.configPath)
			logger := initLogger(conf)

			return app.RunApp(logger, conf, app.Options{
				Username: f.username,
				In:       cmd.InOrStdin(),
				Out:      cmd.OutOrStdout(),
			})
		},
	}

	flagSet := cmd.Flags()

	flagSet.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	flagSet.StringVarP(&f.configPath, "config", "c", defaultConfigPath, "path to the YAML config, environment variables take precedence")
	flagSet.StringVarP(&f.username, "username", "u", "", "join right away with this username")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SilenceUsage = true

	return cmd
}

// initialize config; a missing file falls back to environment variables only.
func initConfig(path string) *config.Config {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config.MustLoadEnv()
	}

	return config.MustLoad(path)
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
