// Package cmd implements the telemetry command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/openadapt/telemetry/app"
	"github.com/openadapt/telemetry/config"
	"github.com/openadapt/telemetry/infra/logger"
)

var (
	cfgPath string
	envFile string
	gw      *config.GatewayConfig
)

var rootCmd = &cobra.Command{
	Use:               "telemetry",
	Short:             "Privacy-first telemetry gateway",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "gateway configuration file (.json, .yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before resolving settings")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// setup loads the dotenv file, if present, and the gateway configuration.
// Variables already set in the environment win over the file.
func setup(*cobra.Command, []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	cfg, err := config.LoadGateway(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gw = cfg
	return nil
}

func run(*cobra.Command, []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.New(app.Options{Gateway: gw})
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}

func storePath() (string, error) {
	if gw == nil {
		return config.DefaultPath()
	}
	return gw.StorePath()
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
