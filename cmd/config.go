package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openadapt/telemetry/config"
)

var (
	showStored bool
	saveOut    string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the persisted telemetry settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := storePath()
		if err != nil {
			return err
		}
		cfg, err := (&config.Loader{Path: path, StoreOnly: showStored}).Load()
		if err != nil {
			return err
		}
		return printJSON(cmd, cfg)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := storePath()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one persisted setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := storePath()
		if err != nil {
			return err
		}
		cfg, err := (&config.Loader{Path: path, StoreOnly: true}).Load()
		if err != nil {
			return err
		}
		cfg, err = cfg.Set(args[0], args[1])
		if err != nil {
			return err
		}
		if err := config.Save(path, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		return printJSON(cmd, cfg)
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Persist the resolved settings, environment included",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := storePath()
		if err != nil {
			return err
		}
		cfg, err := config.NewLoader(path).Load()
		if err != nil {
			return err
		}
		out := saveOut
		if out == "" {
			out = path
		}
		if err := config.Save(out, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", out)
		return err
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&showStored, "stored", false, "ignore environment overrides")
	configSaveCmd.Flags().StringVarP(&saveOut, "out", "o", "", "destination file (default: settings path)")
	configCmd.AddCommand(configShowCmd, configPathCmd, configSetCmd, configSaveCmd)
	rootCmd.AddCommand(configCmd)
}
