// Package cli implements the sharify command-line client.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"sharify/internal/client"
	"sharify/internal/config"

	"github.com/spf13/cobra"
)

// ClientFactory builds the API client for one invocation.
type ClientFactory func(cmd *cobra.Command, toaster client.Toaster) (*client.Client, error)

type app struct {
	factory ClientFactory
	client  *client.Client
	asJSON  bool
}

// DefaultClientFactory reads SHARIFY_* configuration and persists the
// session to the configured file.
func DefaultClientFactory(cmd *cobra.Command, toaster client.Toaster) (*client.Client, error) {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	return client.NewFromConfig(cfg, client.WithToaster(toaster), client.WithLogger(logger)), nil
}

// writerToaster prints toasts the way a terminal user expects them.
type writerToaster struct {
	w io.Writer
}

func (t writerToaster) Toast(toast client.Toast) {
	if toast.Destructive {
		fmt.Fprintf(t.w, "%s: %s\n", toast.Title, toast.Description)
		return
	}
	fmt.Fprintln(t.w, toast.Description)
}

// NewRootCmd creates the root command. A nil factory uses
// DefaultClientFactory.
func NewRootCmd(factory ClientFactory) *cobra.Command {
	if factory == nil {
		factory = DefaultClientFactory
	}
	a := &app{factory: factory}

	rootCmd := &cobra.Command{
		Use:           "sharify",
		Short:         "Read and share placement experiences",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.factory(cmd, writerToaster{w: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			a.client = c
			if err := c.Init(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not restore session: %v\n", err)
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.client != nil {
				a.client.Close()
			}
		},
	}
	rootCmd.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(
		a.newSignupCommand(),
		a.newLoginCommand(),
		a.newLogoutCommand(),
		a.newWhoamiCommand(),
		a.newHomeCommand(),
		a.newPostsCommand(),
		a.newPostCommand(),
		a.newLikeCommand(),
		a.newBookmarkCommand(),
		a.newCommentCommand(),
		a.newCommentsCommand(),
		a.newSearchCommand(),
		a.newProfileCommand(),
		a.newResourcesCommand(),
		a.newWatchCommand(),
	)
	return rootCmd
}

// Execute runs the CLI with the process arguments.
func Execute(ctx context.Context) int {
	cmd := NewRootCmd(nil)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !IsReported(err) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return 1
	}
	return 0
}

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
