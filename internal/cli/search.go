package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"sharify/internal/client"

	"github.com/spf13/cobra"
)

func (a *app) newSearchCommand() *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search posts by title, company or content",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				return a.searchInteractive(cmd)
			}
			posts, err := a.client.Search(cmd.Context(), strings.Join(args, " "))
			if errors.Is(err, client.ErrQueryDisabled) {
				return errors.New("search needs a query")
			}
			if err != nil {
				return err
			}
			return a.printPosts(cmd.OutOrStdout(), posts)
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "read queries line by line and search as they settle")
	return cmd
}

// searchInteractive treats each stdin line as an edit of the query. Results
// are printed once typing pauses.
func (a *app) searchInteractive(cmd *cobra.Command) error {
	searcher := a.client.Searcher()
	defer searcher.Close()

	out := cmd.OutOrStdout()
	searcher.Subscribe(func(r client.SearchResult) {
		if strings.TrimSpace(r.Query) == "" {
			return
		}
		fmt.Fprintf(out, "results for %q:\n", r.Query)
		if r.Err != nil {
			fmt.Fprintf(out, "  search failed: %v\n", r.Err)
			return
		}
		_ = a.printPosts(out, r.Posts)
	})

	sc := bufio.NewScanner(cmd.InOrStdin())
	for sc.Scan() {
		searcher.SetQuery(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return err
	}
	searcher.Flush()
	return nil
}
