package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sharify/internal/client"
	"sharify/internal/models"

	"github.com/spf13/cobra"
)

func (a *app) newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile [user-id]",
		Short: "Show your profile or another user's",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				p   *models.PublicProfile
				err error
			)
			if len(args) == 1 {
				id, perr := parseID(args[0])
				if perr != nil {
					return perr
				}
				p, err = a.client.Profile(cmd.Context(), id)
			} else {
				p, err = a.client.MyProfile(cmd.Context())
			}
			if errors.Is(err, client.ErrQueryDisabled) {
				fmt.Fprintln(cmd.OutOrStdout(), signInPrompt)
				return nil
			}
			if err != nil {
				return err
			}
			return a.printProfile(cmd.OutOrStdout(), p)
		},
	}
	cmd.AddCommand(a.newProfileEditCommand(), a.newAvatarCommand())
	return cmd
}

func (a *app) newProfileEditCommand() *cobra.Command {
	var in client.ProfileUpdate
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Update your profile; unset flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := a.client.MyProfile(cmd.Context())
			if errors.Is(err, client.ErrQueryDisabled) {
				fmt.Fprintln(cmd.OutOrStdout(), signInPrompt)
				return reported(client.ErrNotAuthenticated)
			}
			if err != nil {
				return err
			}
			merged := client.ProfileUpdate{Name: current.Name, Bio: current.Bio, Location: current.Location, Website: current.Website}
			flags := cmd.Flags()
			if flags.Changed("name") {
				merged.Name = in.Name
			}
			if flags.Changed("bio") {
				merged.Bio = in.Bio
			}
			if flags.Changed("location") {
				merged.Location = in.Location
			}
			if flags.Changed("website") {
				merged.Website = in.Website
			}
			p, err := a.client.UpdateProfile(cmd.Context(), merged)
			if err != nil {
				return reported(err)
			}
			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Bio, "bio", "", "short bio")
	cmd.Flags().StringVar(&in.Location, "location", "", "location")
	cmd.Flags().StringVar(&in.Website, "website", "", "website URL")
	return cmd
}

func (a *app) newAvatarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "avatar <image-file>",
		Short: "Upload a new avatar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			p, err := a.client.UploadAvatar(cmd.Context(), filepath.Base(args[0]), content)
			if err != nil {
				return reported(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Avatar: %s\n", p.AvatarURL)
			return nil
		},
	}
}
