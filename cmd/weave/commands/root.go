package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/weave/internal/config"
	"github.com/MikeSquared-Agency/weave/internal/printer"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "weave",
	Short: "Weave - conversation to cultural artifact extraction service",
	Long: `Weave turns conversations with a cultural companion into structured
artifacts, concepts and taste patterns.

Run "weave serve" to start the HTTP API. The other commands are operator
tools that share the same configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Errors are printed by the printer package.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
}

// loadConfig reads configuration and installs the JSON logger on logOut.
// Tools that print results to stdout log to stderr.
func loadConfig(logOut io.Writer) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, printer.Error("Failed to load configuration", err.Error(), []string{
			"Check the --config path and the file's YAML syntax",
		})
	}
	setupLogging(cfg.LogLevel, logOut)
	return cfg, nil
}

func setupLogging(level string, out io.Writer) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
