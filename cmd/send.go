package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openadapt/telemetry/app"
	"github.com/openadapt/telemetry/core/event"
	"github.com/openadapt/telemetry/core/telemetry"
)

var (
	sendLevel string
	sendEvent bool
	sendProps []string
)

var sendCmd = &cobra.Command{
	Use:   "send MESSAGE",
	Short: "Send one message, or a named event with --event, through the gateway",
	Args:  cobra.ExactArgs(1),
	RunE:  send,
}

func init() {
	sendCmd.Flags().StringVarP(&sendLevel, "level", "l", "info", "message level")
	sendCmd.Flags().BoolVar(&sendEvent, "event", false, "treat MESSAGE as an event name")
	sendCmd.Flags().StringSliceVarP(&sendProps, "prop", "p", nil, "event property as key=value")
	rootCmd.AddCommand(sendCmd)
}

func send(cmd *cobra.Command, args []string) error {
	svc, err := app.New(app.Options{Gateway: gw})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	if !svc.Client.Initialized() {
		return telemetry.ErrNotInitialized
	}

	ctx := context.Background()
	var id string
	if sendEvent {
		props := map[string]any{}
		for _, p := range sendProps {
			k, v, ok := strings.Cut(p, "=")
			if !ok {
				return fmt.Errorf("property %q: expected key=value", p)
			}
			props[k] = v
		}
		id, err = svc.Client.CaptureEvent(ctx, args[0], props)
	} else {
		id, err = svc.Client.CaptureMessage(ctx, args[0], event.ParseLevel(sendLevel))
	}
	if err != nil {
		return err
	}
	if id == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "dropped")
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
	return err
}
