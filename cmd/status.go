package cmd

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/openadapt/telemetry/config"
	"github.com/openadapt/telemetry/core/gate"
)

type statusReport struct {
	Enabled    bool           `json:"enabled"`
	DoNotTrack bool           `json:"do_not_track"`
	Internal   bool           `json:"internal"`
	CI         bool           `json:"ci"`
	StorePath  string         `json:"store_path"`
	Config     *config.Config `json:"config,omitempty"`
	Error      string         `json:"error,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether telemetry would run and with which settings",
	Args:  cobra.NoArgs,
	RunE:  status,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func status(cmd *cobra.Command, _ []string) error {
	path, err := storePath()
	if err != nil {
		return err
	}
	rep := statusReport{
		Enabled:    gate.Enabled(nil),
		DoNotTrack: gate.DoNotTrack(nil),
		Internal:   gate.Probe{}.IsInternal(),
		CI:         gate.IsCI(nil),
		StorePath:  path,
	}
	cfg, err := config.NewLoader(path).Load()
	if err != nil {
		rep.Error = err.Error()
	} else {
		cfg.DSN = maskDSN(cfg.DSN)
		rep.Config = &cfg
	}
	return printJSON(cmd, rep)
}

// maskDSN hides the key part of a DSN.
func maskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "***"
	}
	if u.User != nil {
		u.User = url.User("redacted")
	}
	return u.String()
}
