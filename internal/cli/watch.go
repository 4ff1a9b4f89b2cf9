package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sharify/internal/notifications"

	"github.com/spf13/cobra"
)

func (a *app) newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow live changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.client.Session.Identity() == nil {
				fmt.Fprintln(cmd.OutOrStdout(), signInPrompt)
				return nil
			}
			out := cmd.OutOrStdout()
			err := a.client.Watch(cmd.Context(), func(ev notifications.Event) {
				switch ev.Type {
				case notifications.EventInvalidate:
					var payload notifications.InvalidatePayload
					if json.Unmarshal(ev.Payload, &payload) == nil {
						fmt.Fprintf(out, "changed: %s\n", strings.Join(payload.Keys, " "))
					}
				case notifications.EventSignedOut:
					fmt.Fprintln(out, "Signed out elsewhere.")
				case notifications.EventMessagesDropped:
					fmt.Fprintln(out, "Missed some updates; refreshing everything.")
				case notifications.EventHello:
					fmt.Fprintln(out, "Watching for changes. Press Ctrl-C to stop.")
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
