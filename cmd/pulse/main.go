package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arbhalerao/sse-demo/internal/config"
	"github.com/arbhalerao/sse-demo/internal/logging"
	"github.com/arbhalerao/sse-demo/internal/server"
	"github.com/arbhalerao/sse-demo/internal/ui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "pulse",
		Short:        "Pulse is a terminal viewer for server-sent events",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger, closeLog, err := logging.OpenFile(cfg.LogFile, level)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			noColor, _ := cmd.Flags().GetBool("no-color")
			return ui.Run(cfg, noColor, logger)
		},
	}

	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().String("config", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("no-color", false, "Disable color output")
	rootCmd.Flags().String("events-url", "", "Event stream URL")
	rootCmd.Flags().String("trigger-url", "", "Action endpoint URL")
	rootCmd.Flags().String("action", "", "Action name sent by the send key")
	rootCmd.Flags().String("log-file", "", "Diagnostics log path (- to discard)")

	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the push server that feeds the viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger := logging.New(os.Stdout, level)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := server.NewHub(server.HubOptions{
				HeartbeatInterval: cfg.Server.HeartbeatInterval,
				ClientBuffer:      cfg.Server.ClientBuffer,
				Logger:            logger.With("component", "hub"),
			})
			return server.ListenAndServe(ctx, cfg.Server.Addr, hub, logger)
		},
	}
	cmd.Flags().String("addr", "", "Listen address")
	cmd.Flags().Duration("heartbeat", 0, "Heartbeat interval")
	return cmd
}

// loadConfig layers explicitly set flags over the file and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	overrideString := func(name string, dst *string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	overrideString("events-url", &cfg.EventsURL)
	overrideString("trigger-url", &cfg.TriggerURL)
	overrideString("action", &cfg.Action)
	overrideString("log-file", &cfg.LogFile)
	overrideString("log-level", &cfg.LogLevel)
	overrideString("addr", &cfg.Server.Addr)
	if flags.Lookup("heartbeat") != nil && flags.Changed("heartbeat") {
		cfg.Server.HeartbeatInterval, _ = flags.GetDuration("heartbeat")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
