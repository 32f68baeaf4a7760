package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"goforge/internal/app"
	"goforge/internal/config"
	"goforge/internal/logging"
)

var (
	version  = "0.1.0"
	headless bool
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "goforge [request]",
		Short: "Plan-and-apply coding assistant",
		Long: `Goforge turns a free-text request into an implementation plan,
generates the planned files one at a time, and applies them only after
you approve each one. Provider fallback, project memory, and shell
actions are built in.`,
		Args: cobra.MinimumNArgs(1),
		RunE: run,
	}

	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "auto-accept every gate and log instead of prompting")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("goforge version %s\n", version)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the config file path and write defaults if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetConfigPath()
			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := config.Save(config.DefaultConfig()); err != nil {
					return err
				}
				fmt.Printf("wrote default config to %s\n", path)
				return nil
			}
			fmt.Println(path)
			return nil
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Version = version
	if headless {
		cfg.UI.Mode = "headless"
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	if cfg.Memory.Enabled {
		logDir := filepath.Join(workDir, cfg.Memory.Dir)
		if err := logging.EnableFileLogging(logDir, logging.ParseLevel(cfg.Logging.Level)); err != nil {
			fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
		}
	}

	application, err := app.New(cmd.Context(), cfg, workDir)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Run(cmd.Context(), strings.Join(args, " "))
}
