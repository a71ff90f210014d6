package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var (
	profileAddTo      string
	profileRemoveFrom string
)

func init() {
	profilesAddCmd.Flags().StringVar(&profileAddTo, "to", "", "Profile to add the pack to")
	_ = profilesAddCmd.MarkFlagRequired("to")
	profilesRemoveCmd.Flags().StringVar(&profileRemoveFrom, "from", "", "Profile to remove the pack from")
	_ = profilesRemoveCmd.MarkFlagRequired("from")

	profilesCmd.AddCommand(profilesCreateCmd)
	profilesCmd.AddCommand(profilesDeleteCmd)
	profilesCmd.AddCommand(profilesAddCmd)
	profilesCmd.AddCommand(profilesRemoveCmd)
	profilesCmd.AddCommand(profilesListCmd)
	rootCmd.AddCommand(profilesCmd)
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage named groups of installed packs",
	Long: `Profiles are ordered subsets of the installed packs. Sync a profile with
'project sync --profile <name>' to compose only its packs, in profile order.`,
}

var profilesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		if err := p.CreateProfile(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created profile '%s'.\n", args[0])
		return nil
	},
}

var profilesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		if err := p.DeleteProfile(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile '%s'.\n", args[0])
		return nil
	},
}

var profilesAddCmd = &cobra.Command{
	Use:   "add <pack> --to <profile>",
	Short: "Add an installed pack to a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		if err := p.AddPackToProfile(args[0], profileAddTo); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added pack '%s' to profile '%s'.\n", args[0], profileAddTo)
		return nil
	},
}

var profilesRemoveCmd = &cobra.Command{
	Use:   "remove <pack> --from <profile>",
	Short: "Remove a pack from a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		if err := p.RemovePackFromProfile(args[0], profileRemoveFrom); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed pack '%s' from profile '%s'.\n", args[0], profileRemoveFrom)
		return nil
	},
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles and their packs",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		profiles, err := p.Profiles()
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No profiles defined.")
			return nil
		}

		names := make([]string, 0, len(profiles))
		for name := range profiles {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, strings.Join(profiles[name], ", "))
		}
		return nil
	},
}
