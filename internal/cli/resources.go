package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sharify/internal/client"

	"github.com/spf13/cobra"
)

func (a *app) newResourcesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resources",
		Aliases: []string{"resource"},
		Short:   "Browse curated preparation resources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.client.Resources(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResources(cmd.OutOrStdout(), list)
		},
	}
	cmd.AddCommand(a.newResourceShowCommand(), a.newResourceCreateCommand())
	return cmd
}

func (a *app) newResourceShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(cmd, args)
			if err != nil {
				return err
			}
			r, err := a.client.Resource(cmd.Context(), id)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), r)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "#%d %s [%s]\n%s\n\n%s\n", r.ID, r.Title, r.ResourceType, r.Description, r.Content)
			for _, link := range []string{r.Link, r.Link2, r.Link3, r.FileURL} {
				if link != "" {
					fmt.Fprintf(out, "-> %s\n", link)
				}
			}
			if len(r.Tags) > 0 {
				fmt.Fprintf(out, "tags: %s\n", strings.Join(r.Tags, ", "))
			}
			return nil
		},
	}
}

func (a *app) newResourceCreateCommand() *cobra.Command {
	var draft client.ResourceDraft
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Submit a resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file != "" {
				content, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				draft.File = content
				draft.FileName = filepath.Base(file)
			}
			r, err := a.client.CreateResource(cmd.Context(), draft)
			if err != nil {
				return reported(err)
			}
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), r)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created resource %d\n", r.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&draft.Title, "title", "", "title")
	f.StringVar(&draft.Description, "description", "", "one-line description")
	f.StringVar(&draft.Content, "content", "", "body text")
	f.StringVar(&draft.ResourceType, "type", "Link", "PDF, Video, Link, Image, Note or Slide")
	f.StringVar(&draft.Link, "link", "", "primary link")
	f.StringVar(&draft.Link2, "link2", "", "second link")
	f.StringVar(&draft.Link3, "link3", "", "third link")
	f.StringVar(&draft.Author, "author", "", "original author")
	f.StringSliceVar(&draft.Tags, "tags", nil, "comma separated tags")
	f.StringVar(&file, "file", "", "attach a file")
	return cmd
}
