package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"sharify/internal/models"

	"github.com/spf13/cobra"
)

const signInPrompt = "You are not signed in. Run `sharify login --email <email> --password <password>` to share and react to experiences."

func parseID(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(v), nil
}

func idArg(cmd *cobra.Command, args []string) (uint, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s needs an id", cmd.Name())
	}
	return parseID(args[0])
}

func (a *app) printPosts(w io.Writer, posts []models.Post) error {
	if a.asJSON {
		return a.printJSON(w, posts)
	}
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts yet.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCOMPANY\tROLE\tAUTHOR\tLIKES\tCOMMENTS")
	for _, p := range posts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			p.ID, p.Title, p.Company, p.Role, p.Author.Name, likes(p), p.CommentsCount)
	}
	return tw.Flush()
}

func likes(p models.Post) string {
	s := strconv.Itoa(p.LikesCount)
	if p.IsLiked {
		s += " ♥"
	}
	return s
}

func (a *app) printPost(w io.Writer, p *models.Post, comments []models.Comment) error {
	if a.asJSON {
		return a.printJSON(w, struct {
			*models.Post
			Comments []models.Comment `json:"comments"`
		}{p, comments})
	}
	fmt.Fprintf(w, "#%d %s\n", p.ID, p.Title)
	fmt.Fprintf(w, "%s · %s", p.Company, p.Role)
	if p.College != "" {
		fmt.Fprintf(w, " · %s", p.College)
	}
	fmt.Fprintf(w, "\nby %s on %s\n", p.Author.Name, p.CreatedAt.Format("2 Jan 2006"))
	if len(p.Tags) > 0 {
		fmt.Fprintf(w, "tags: %s\n", strings.Join(p.Tags, ", "))
	}
	fmt.Fprintf(w, "\n%s\n\n", p.Content)
	fmt.Fprintf(w, "likes: %s  comments: %d", likes(*p), p.CommentsCount)
	if p.IsBookmarked {
		fmt.Fprint(w, "  (bookmarked)")
	}
	fmt.Fprintln(w)
	if len(comments) > 0 {
		fmt.Fprintln(w)
		printCommentList(w, comments)
	}
	return nil
}

func printCommentList(w io.Writer, comments []models.Comment) {
	for _, c := range comments {
		fmt.Fprintf(w, "- %s (%s): %s\n", c.Author.Name, c.CreatedAt.Format("2 Jan 15:04"), c.Content)
	}
}

func (a *app) printProfile(w io.Writer, p *models.PublicProfile) error {
	if a.asJSON {
		return a.printJSON(w, p)
	}
	fmt.Fprintf(w, "%s (id %d)\n", p.Name, p.ID)
	for _, line := range [][2]string{{"bio", p.Bio}, {"location", p.Location}, {"website", p.Website}, {"avatar", p.AvatarURL}} {
		if line[1] != "" {
			fmt.Fprintf(w, "%s: %s\n", line[0], line[1])
		}
	}
	fmt.Fprintf(w, "joined %s\n", p.CreatedAt.Format("Jan 2006"))
	return nil
}

func (a *app) printResources(w io.Writer, resources []models.Resource) error {
	if a.asJSON {
		return a.printJSON(w, resources)
	}
	if len(resources) == 0 {
		fmt.Fprintln(w, "No resources yet.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tTAGS")
	for _, r := range resources {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.ResourceType, r.Title, strings.Join(r.Tags, ","))
	}
	return tw.Flush()
}
