package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rulebook-labs/rulebook/internal/branding"
	"github.com/rulebook-labs/rulebook/internal/community"
	"github.com/rulebook-labs/rulebook/internal/scaffold"
	"github.com/rulebook-labs/rulebook/internal/state"
	"github.com/spf13/cobra"
)

var (
	listBuiltIn   bool
	listCommunity bool

	searchQuery  string
	searchLimit  int
	searchUpdate bool

	createDir     string
	createSummary string
	createAuthor  string
)

func init() {
	packsListCmd.Flags().BoolVar(&listBuiltIn, "built-in", false, "Show only built-in packs")
	packsListCmd.Flags().BoolVar(&listCommunity, "community", false, "Show only community packs")
	packsListCmd.MarkFlagsMutuallyExclusive("built-in", "community")

	packsSearchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Search query")
	packsSearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of results")
	packsSearchCmd.Flags().BoolVar(&searchUpdate, "update", false, "Refresh the community index first")
	_ = packsSearchCmd.MarkFlagRequired("query")

	packsCreateCmd.Flags().StringVar(&createDir, "dir", "", "Output directory (default: ./<name>)")
	packsCreateCmd.Flags().StringVar(&createSummary, "summary", "", "One-line pack summary")
	packsCreateCmd.Flags().StringVar(&createAuthor, "author", "", "Pack author")

	packsCmd.AddCommand(packsListCmd)
	packsCmd.AddCommand(packsAddCmd)
	packsCmd.AddCommand(packsRemoveCmd)
	packsCmd.AddCommand(packsUpdateCmd)
	packsCmd.AddCommand(packsSearchCmd)
	packsCmd.AddCommand(packsStatusCmd)
	packsCmd.AddCommand(packsCreateCmd)
	rootCmd.AddCommand(packsCmd)
}

var packsCmd = &cobra.Command{
	Use:   "packs",
	Short: "Manage the packs installed in a project",
}

// listEntry is one line of "packs list".
type listEntry struct {
	Name    string
	Source  state.SourceKind
	Version string
	Summary string
	Slug    string
}

var packsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available packs",
	RunE: func(cmd *cobra.Command, args []string) error {
		var entries []listEntry

		if !listCommunity {
			available, err := newRepository().Available()
			if err != nil {
				return fmt.Errorf("listing built-in packs: %w", err)
			}
			for _, p := range available {
				entries = append(entries, listEntry{Name: p.Name, Source: state.SourceBuiltin, Version: p.Version, Summary: p.Summary})
			}
		}

		hasCommunity := false
		if !listBuiltIn {
			idx, err := newCommunityClient().LoadIndex()
			if err != nil {
				return fmt.Errorf("loading community index: %w", err)
			}
			for _, e := range idx.Packs {
				entries = append(entries, listEntry{Name: e.Name, Source: state.SourceCommunity, Summary: e.Description, Slug: e.Slug()})
				hasCommunity = true
			}
		}

		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		printPackList(cmd.OutOrStdout(), entries)

		if !listBuiltIn && !hasCommunity {
			fmt.Fprintf(cmd.OutOrStdout(), "\nTo see community packs, run '%s packs update'.\n", branding.CLIName())
		}
		return nil
	},
}

func printPackList(w io.Writer, entries []listEntry) {
	fmt.Fprintln(w, "Available packs:")
	for _, e := range entries {
		switch e.Source {
		case state.SourceBuiltin:
			fmt.Fprintf(w, "  - %s (built-in, v%s) - %s\n", e.Name, e.Version, e.Summary)
		default:
			fmt.Fprintf(w, "  - %s (community) - %s\n", e.Name, e.Summary)
			if url := readmeURL(e.Slug); url != "" {
				fmt.Fprintf(w, "    └─ Learn more: %s\n", url)
			}
		}
	}
}

// readmeURL links a community slug to its README on GitHub.
func readmeURL(slug string) string {
	s, err := community.ParseSlug(slug)
	if err != nil {
		return ""
	}
	path := ""
	if s.Path != "" {
		path = "/" + s.Path
	}
	return fmt.Sprintf("https://github.com/%s/%s/blob/HEAD%s/README.md", s.Username, s.Repo, path)
}

var packsAddCmd = &cobra.Command{
	Use:   "add <pack>...",
	Short: "Install one or more packs into the project",
	Long: `Install packs into the project. Each argument is one of:

  <name>                 a built-in pack, or a community pack by index name
  local:<path>           a pack directory on disk
  github:<user>/<repo>[/<path>]
                         a community pack fetched from GitHub

Installing a pack that is already installed from the same source refreshes
it in place. Run 'project sync' afterwards to apply the changes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		installed, err := p.InstallPacks(cmd.Context(), args)
		for _, pack := range installed {
			fmt.Fprintf(cmd.OutOrStdout(), "Added pack '%s' (%s, v%s). Run 'project sync' to apply changes.\n", pack.Name, pack.Source, pack.Version)
		}
		return err
	},
}

var packsRemoveCmd = &cobra.Command{
	Use:   "remove <name>...",
	Short: "Remove one or more packs from the project",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		removed, err := p.UninstallPacks(args)
		for _, name := range removed {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed pack '%s'. Remember to run 'project sync' to update rules.\n", name)
		}
		return err
	},
}

var packsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh the community pack index",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newCommunityClient()
		idx, err := client.Update(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Community index updated: %d packs cached at %s\n", len(idx.Packs), client.CachePath())
		return nil
	},
}

var packsSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the community pack index",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newCommunityClient()
		if searchUpdate {
			if _, err := client.Update(cmd.Context()); err != nil {
				return err
			}
		}
		results, err := client.Search(searchQuery, searchLimit)
		if err != nil {
			return err
		}
		printSearchResults(cmd.OutOrStdout(), results)
		return nil
	},
}

func printSearchResults(w io.Writer, results []community.Entry) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No community packs matched your query.")
		return
	}
	fmt.Fprintln(w, "Community pack matches:")
	for _, e := range results {
		fmt.Fprintf(w, "  - %s: %s\n", e.Name, e.Description)
	}
}

var packsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installed packs and profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		packs, sel, err := p.PacksStatus()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(packs) == 0 {
			fmt.Fprintln(out, "No packs are configured.")
			return nil
		}

		fmt.Fprintln(out, "Pack library:")
		for i, ps := range packs {
			fmt.Fprintf(out, "  %d. %s (v%s, %s)\n", i+1, ps.Name, ps.Version, ps.Source)
			fmt.Fprintf(out, "    └─ README: %s\n", filepath.Join(branding.StateDir(), state.PacksDir, ps.Name, "README.md"))
			if ps.Slug != "" {
				fmt.Fprintf(out, "    └─ Source: %s\n", ps.Slug)
			}
			if ps.Update != "" {
				fmt.Fprintf(out, "    └─ Update available: v%s (run 'packs add %s')\n", ps.Update, ps.Name)
			}
		}

		if names := sel.ProfileNames(); len(names) > 0 {
			fmt.Fprintln(out, "\nProfiles:")
			for _, name := range names {
				fmt.Fprintf(out, "  - %s: %s\n", name, strings.Join(sel.Profiles[name], ", "))
			}
		}
		return nil
	},
}

var packsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Scaffold a new pack",
	Long: `Create a new pack skeleton with a manifest, a README, a first rule file
and an empty memory starter directory.

Examples:
  rulebook packs create go-service
  rulebook packs create go-service --dir ./packs/go-service --summary "Go service conventions"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		data := scaffold.NewData(name)
		if createSummary != "" {
			data.Summary = createSummary
		}
		data.Author = createAuthor

		outDir := createDir
		if outDir == "" {
			outDir = filepath.Join(".", name)
		}

		result, err := scaffold.Generate(data, outDir)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created pack %q in %s\n", name, result.OutputDir)
		for _, f := range result.Files {
			fmt.Fprintf(out, "  %s\n", f)
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}
		fmt.Fprintf(out, "\nInstall it with: %s packs add local:%s\n", branding.CLIName(), outDir)
		return nil
	},
}
