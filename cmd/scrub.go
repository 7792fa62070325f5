package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/openadapt/telemetry/core/privacy"
	"github.com/openadapt/telemetry/core/sanitize"
)

var scrubCmd = &cobra.Command{
	Use:   "scrub [FILE]",
	Short: "Sanitize a JSON event read from FILE or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE:  scrub,
}

func init() {
	rootCmd.AddCommand(scrubCmd)
}

func scrub(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	var ev privacy.Mapping
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	return printJSON(cmd, sanitize.Event(ev))
}
