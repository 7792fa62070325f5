package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/openadapt/telemetry/infra/spool"
)

var (
	spoolLimit int
	spoolLevel string
	spoolSince time.Duration
)

var spoolCmd = &cobra.Command{
	Use:   "spool",
	Short: "Inspect the local copy of sent events",
}

var spoolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List spooled events, oldest first",
	Args:  cobra.NoArgs,
	RunE:  listSpool,
}

func init() {
	spoolListCmd.Flags().IntVarP(&spoolLimit, "limit", "n", 20, "number of most recent events; 0 lists all")
	spoolListCmd.Flags().StringVarP(&spoolLevel, "level", "l", "", "only events with this level")
	spoolListCmd.Flags().DurationVar(&spoolSince, "since", 0, "only events newer than this duration")
	spoolCmd.AddCommand(spoolListCmd)
	rootCmd.AddCommand(spoolCmd)
}

func listSpool(cmd *cobra.Command, _ []string) error {
	if gw == nil || !gw.Spool.Enabled() {
		return errors.New("no spool configured")
	}
	store, err := spool.Open(gw.Spool)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	q := spool.Query{Level: spoolLevel, Limit: spoolLimit}
	if spoolSince > 0 {
		q.Start = time.Now().Add(-spoolSince)
	}
	recs, err := store.Query(context.Background(), q)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []spool.Record{}
	}
	return printJSON(cmd, recs)
}
