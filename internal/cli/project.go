package cli

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rulebook-labs/rulebook/internal/assistants"
	"github.com/rulebook-labs/rulebook/internal/branding"
	"github.com/rulebook-labs/rulebook/internal/cleanup"
	"github.com/rulebook-labs/rulebook/internal/config"
	"github.com/rulebook-labs/rulebook/internal/project"
	"github.com/rulebook-labs/rulebook/internal/state"
	"github.com/spf13/cobra"
)

var (
	syncProfile    string
	syncPacks      []string
	syncAssistants []string
	syncAll        bool

	cleanYes bool

	contextAction string
	contextForce  bool
)

func init() {
	projectSyncCmd.Flags().StringVar(&syncProfile, "profile", "", "Sync only the packs of this profile")
	projectSyncCmd.Flags().StringArrayVar(&syncPacks, "pack", nil, "Sync only this installed pack (repeatable)")
	projectSyncCmd.Flags().StringSliceVarP(&syncAssistants, "assistant", "a", nil,
		"Generate rules for these assistants ("+strings.Join(assistants.Names(), ", ")+")")
	projectSyncCmd.Flags().BoolVar(&syncAll, "all", false, "Generate rules for all supported assistants")
	projectSyncCmd.MarkFlagsMutuallyExclusive("assistant", "all")

	projectCleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Do not ask for confirmation")

	projectCleanContextCmd.Flags().StringVar(&contextAction, "action", "", "What to do with orphaned files (delete or keep)")
	projectCleanContextCmd.Flags().BoolVar(&contextForce, "force", false, "Do not ask for confirmation")

	projectCmd.AddCommand(projectSyncCmd)
	projectCmd.AddCommand(projectStatusCmd)
	projectCmd.AddCommand(projectCleanCmd)
	projectCmd.AddCommand(projectCleanRulesCmd)
	projectCmd.AddCommand(projectCleanContextCmd)
	rootCmd.AddCommand(projectCmd)
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Compose and generate assistant rules for a project",
}

var projectSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Compose installed packs and generate assistant rules",
	Long: `Compose the installed packs into a staging tree, seed starter files into
memory/ and tools/, and render the rules for each assistant.

Without --profile or --pack every installed pack is composed, in install
order. Without --assistant or --all the assistants listed in the
'assistants' config key are used, or every assistant when it is empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}

		opts := project.SyncOptions{Profile: syncProfile, Packs: syncPacks, Assistants: syncAssistants}
		if !syncAll && len(opts.Assistants) == 0 {
			opts.Assistants = config.DefaultAssistants()
		}
		if syncAll {
			opts.Assistants = nil
		}

		report, err := p.Sync(opts)
		if report != nil {
			printSyncReport(cmd.OutOrStdout(), report)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Sync complete.")
		return nil
	},
}

func printSyncReport(w io.Writer, r *project.SyncReport) {
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped packs that are not installed: %s\n", strings.Join(r.Skipped, ", "))
	}
	if len(r.Starters) > 0 {
		fmt.Fprintf(w, "Copied %d new starter files into memory/ and tools/\n", len(r.Starters))
	}
	for _, res := range r.Results {
		spec, _ := assistants.Lookup(string(res.Assistant))
		for _, n := range res.Notices {
			fmt.Fprintf(w, "  -> %s\n", n)
		}
		if len(res.Files) == 0 {
			continue
		}
		switch res.Strategy {
		case assistants.Concatenate:
			fmt.Fprintf(w, "  -> Generated %s instructions at %s\n", spec.DisplayName, res.Files[0])
		case assistants.ModePartitioned:
			for _, mode := range modeCounts(spec, res.Files) {
				fmt.Fprintf(w, "  -> Generated %d %s '%s' rules in %s\n", mode.count, spec.DisplayName, mode.name, path.Join(spec.RulePath, mode.name))
			}
		default:
			fmt.Fprintf(w, "  -> Generated %d %s rule files in %s\n", len(res.Files), spec.DisplayName, spec.RulePath)
		}
	}
}

type modeCount struct {
	name  string
	count int
}

// modeCounts groups mode-partitioned outputs by their mode directory.
func modeCounts(spec assistants.Spec, files []string) []modeCount {
	counts := map[string]int{}
	for _, f := range files {
		rel := strings.TrimPrefix(f, spec.RulePath+"/")
		mode, _, _ := strings.Cut(rel, "/")
		counts[mode]++
	}
	out := make([]modeCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, modeCount{name: name, count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

var projectStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show when each assistant was last synced",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		status, err := p.Status()
		if err != nil {
			return err
		}
		printSyncStatus(cmd.OutOrStdout(), status)
		return nil
	},
}

func printSyncStatus(w io.Writer, status state.SyncStatus) {
	if len(status) == 0 {
		fmt.Fprintln(w, "No sync status found.")
		return
	}

	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Project Sync Status:")
	for _, name := range names {
		rec := status[name]
		var from string
		switch rec.Mode {
		case state.ModeProfile:
			from = fmt.Sprintf("profile '%s'", rec.Profile)
		case state.ModePack:
			from = "ad-hoc packs"
		default:
			from = "all configured packs"
		}
		fmt.Fprintf(w, "  - %s: Last synced at %s from %s (%d packs total).\n",
			name, rec.Timestamp.Format(time.RFC3339), from, rec.PackCount)

		if len(rec.Packs) > 0 {
			fmt.Fprintln(w, "    Packs included in last sync:")
			packs := append([]string(nil), rec.Packs...)
			sort.Strings(packs)
			for _, pack := range packs {
				fmt.Fprintf(w, "      - %s (docs: %s)\n", pack, filepath.Join(branding.StateDir(), state.PacksDir, pack, "README.md"))
			}
		}
	}
}

var projectCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated rules, project state, memory/ and tools/",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}

		if !cleanYes {
			fmt.Fprintf(cmd.OutOrStdout(), "WARNING: This will remove %s/, memory/, tools/, and generated rules.\n", branding.StateDir())
			ok, err := confirm(cmd, "Are you sure? (yes/No):", "yes")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Clean cancelled by user.")
				return nil
			}
		}

		report, err := p.Clean()
		if err != nil {
			return err
		}
		printRemoved(cmd.OutOrStdout(), report.Removed)
		return nil
	},
}

var projectCleanRulesCmd = &cobra.Command{
	Use:   "clean-rules",
	Short: "Remove generated rules and project state, keeping memory/ and tools/",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		report, err := p.CleanRules()
		if err != nil {
			return err
		}
		printRemoved(cmd.OutOrStdout(), report.Removed)
		return nil
	},
}

func printRemoved(w io.Writer, removed []string) {
	if len(removed) == 0 {
		fmt.Fprintln(w, "Nothing to remove.")
		return
	}
	for _, r := range removed {
		fmt.Fprintf(w, "- Removed: %s\n", r)
	}
}

var projectCleanContextCmd = &cobra.Command{
	Use:   "clean-context",
	Short: "Handle starter files whose pack is no longer installed",
	Long: `Find files in memory/ and tools/ that were seeded by packs which are no
longer installed. Without --force the orphans are listed and you are asked
to confirm. With --force and no --action the files are kept and only
forgotten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		action, err := cleanup.ParseAction(contextAction)
		if err != nil {
			return err
		}
		p, err := openProject()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		report, err := p.CleanContext(cleanup.Options{
			Action: action,
			Force:  contextForce,
			Confirm: func(orphans []cleanup.Orphan, action cleanup.Action) (bool, error) {
				fmt.Fprintln(out, "Orphaned context files:")
				for _, o := range orphans {
					fmt.Fprintf(out, "  - %s (from %s)\n", o.Path, o.Pack)
				}
				if action == cleanup.ActionNone {
					return confirm(cmd, "Delete these files? [y/N]:", "y", "yes")
				}
				return confirm(cmd, fmt.Sprintf("Proceed to %s these files? [y/N]:", action), "y", "yes")
			},
		})
		if err != nil {
			return err
		}

		switch {
		case len(report.Orphans) == 0:
			fmt.Fprintln(out, "No orphaned context files found.")
		case report.Cancelled:
			fmt.Fprintln(out, "Cleanup cancelled by user.")
		default:
			for _, r := range report.Removed {
				fmt.Fprintf(out, "- Removed: %s\n", r)
			}
			fmt.Fprintln(out, "Context cleanup complete.")
		}
		return nil
	},
}
