package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"sharify/internal/client"
	"sharify/internal/models"

	"github.com/spf13/cobra"
)

func (a *app) newHomeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show the latest experiences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if a.client.Session.Identity() == nil {
				fmt.Fprintln(out, signInPrompt)
			}
			posts, err := a.client.Posts(cmd.Context())
			if err != nil {
				return err
			}
			return a.printPosts(out, posts)
		},
	}
}

func (a *app) newPostsCommand() *cobra.Command {
	var mine, liked, bookmarked bool
	var user uint
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var posts []models.Post
			var err error
			switch {
			case mine:
				posts, err = a.client.MyPosts(ctx)
			case liked:
				posts, err = a.client.LikedPosts(ctx)
			case bookmarked:
				posts, err = a.client.Bookmarks(ctx)
			case user != 0:
				posts, err = a.client.UserPosts(ctx, user)
			default:
				posts, err = a.client.Posts(ctx)
			}
			if errors.Is(err, client.ErrQueryDisabled) {
				fmt.Fprintln(cmd.OutOrStdout(), signInPrompt)
				return nil
			}
			if err != nil {
				return err
			}
			return a.printPosts(cmd.OutOrStdout(), posts)
		},
	}
	cmd.Flags().BoolVar(&mine, "mine", false, "only my posts")
	cmd.Flags().BoolVar(&liked, "liked", false, "posts I liked")
	cmd.Flags().BoolVar(&bookmarked, "bookmarked", false, "posts I bookmarked")
	cmd.Flags().UintVar(&user, "user", 0, "posts by this user id")
	cmd.MarkFlagsMutuallyExclusive("mine", "liked", "bookmarked", "user")
	return cmd
}

func (a *app) newPostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Read, write and delete posts",
	}
	cmd.AddCommand(
		a.newPostShowCommand(),
		a.newPostCreateCommand(),
		a.newPostEditCommand(),
		a.newPostDeleteCommand(),
	)
	return cmd
}

func (a *app) newPostShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a post with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(cmd, args)
			if err != nil {
				return err
			}
			post, err := a.client.Post(cmd.Context(), id)
			if err != nil {
				return err
			}
			comments, err := a.client.Comments(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.printPost(cmd.OutOrStdout(), post, comments)
		},
	}
}

func postFlags(cmd *cobra.Command, d *client.PostDraft, tags *[]string) {
	cmd.Flags().StringVar(&d.Title, "title", "", "title")
	cmd.Flags().StringVar(&d.Company, "company", "", "company")
	cmd.Flags().StringVar(&d.Role, "role", "", "role")
	cmd.Flags().StringVar(&d.College, "college", "", "college")
	cmd.Flags().StringVar(&d.Content, "content", "", "the experience; - reads it from stdin")
	cmd.Flags().StringSliceVar(tags, "tags", nil, "comma separated tags")
}

func readContent(cmd *cobra.Command, content string) (string, error) {
	if content != "-" {
		return content, nil
	}
	var b strings.Builder
	sc := bufio.NewScanner(cmd.InOrStdin())
	for sc.Scan() {
		b.WriteString(sc.Text())
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String()), sc.Err()
}

func (a *app) newPostCreateCommand() *cobra.Command {
	var draft client.PostDraft
	var tags []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Share an experience",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			content, err := readContent(cmd, draft.Content)
			if err != nil {
				return err
			}
			draft.Content = content
			draft.Tags = tags
			post, err := a.client.CreatePost(cmd.Context(), draft)
			if err != nil {
				return reported(err)
			}
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), post)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created post %d\n", post.ID)
			return nil
		},
	}
	postFlags(cmd, &draft, &tags)
	return cmd
}

func (a *app) newPostEditCommand() *cobra.Command {
	var draft client.PostDraft
	var tags []string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit one of your posts; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(cmd, args)
			if err != nil {
				return err
			}
			current, err := a.client.Post(cmd.Context(), id)
			if err != nil {
				return err
			}
			merged := client.PostDraft{
				Title:   current.Title,
				Content: current.Content,
				Company: current.Company,
				College: current.College,
				Role:    current.Role,
				Tags:    current.Tags,
			}
			flags := cmd.Flags()
			if flags.Changed("title") {
				merged.Title = draft.Title
			}
			if flags.Changed("company") {
				merged.Company = draft.Company
			}
			if flags.Changed("role") {
				merged.Role = draft.Role
			}
			if flags.Changed("college") {
				merged.College = draft.College
			}
			if flags.Changed("tags") {
				merged.Tags = tags
			}
			if flags.Changed("content") {
				if merged.Content, err = readContent(cmd, draft.Content); err != nil {
					return err
				}
			}
			post, err := a.client.UpdatePost(cmd.Context(), id, merged)
			if err != nil {
				return reported(err)
			}
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), post)
			}
			return nil
		},
	}
	postFlags(cmd, &draft, &tags)
	return cmd
}

func (a *app) newPostDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(cmd, args)
			if err != nil {
				return err
			}
			confirmed := yes
			if !confirmed {
				fmt.Fprintf(cmd.OutOrStdout(), "Delete post %d? This cannot be undone. [y/N] ", id)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				confirmed = answer == "y" || answer == "yes"
			}
			err = a.client.DeletePost(cmd.Context(), id, confirmed)
			if errors.Is(err, client.ErrNotConfirmed) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			return reported(err)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) newLikeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like or unlike a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(cmd, args)
			if err != nil {
				return err
			}
			post, err := a.client.Post(cmd.Context(), id)
			if err != nil {
				return err
			}
			res, err := a.client.ToggleLike(cmd.Context(), id, post.IsLiked)
			if err != nil {
				return reported(err)
			}
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), res)
			}
			verb := "Unliked"
			if res.Active {
				verb = "Liked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s post %d (%d likes)\n", verb, id, res.LikesCount)
			return nil
		},
	}
}

func (a *app) newBookmarkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bookmark <post-id>",
		Short: "Bookmark or un-bookmark a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(cmd, args)
			if err != nil {
				return err
			}
			post, err := a.client.Post(cmd.Context(), id)
			if err != nil {
				return err
			}
			res, err := a.client.ToggleBookmark(cmd.Context(), id, post.IsBookmarked)
			if err != nil {
				return reported(err)
			}
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), res)
			}
			if res.Active {
				fmt.Fprintf(cmd.OutOrStdout(), "Bookmarked post %d\n", id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed bookmark on post %d\n", id)
			}
			return nil
		},
	}
}

func (a *app) newCommentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <post-id> <text>...",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(cmd, args)
			if err != nil {
				return err
			}
			draft := a.client.NewCommentDraft(id)
			draft.SetText(strings.Join(args[1:], " "))
			comment, err := draft.Submit(cmd.Context())
			if errors.Is(err, client.ErrEmptyComment) {
				return err
			}
			if err != nil {
				return reported(err)
			}
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), comment)
			}
			return nil
		},
	}
}

func (a *app) newCommentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "comments <post-id>",
		Short: "List comments on a post, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(cmd, args)
			if err != nil {
				return err
			}
			comments, err := a.client.Comments(cmd.Context(), id)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), comments)
			}
			if len(comments) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No comments yet.")
				return nil
			}
			printCommentList(cmd.OutOrStdout(), comments)
			return nil
		},
	}
}
