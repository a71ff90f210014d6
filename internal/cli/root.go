package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rulebook-labs/rulebook/internal/branding"
	"github.com/rulebook-labs/rulebook/internal/community"
	"github.com/rulebook-labs/rulebook/internal/config"
	"github.com/rulebook-labs/rulebook/internal/logging"
	"github.com/rulebook-labs/rulebook/internal/project"
	"github.com/rulebook-labs/rulebook/internal/registry"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// Global flags.
var (
	projectDir string
	verbosity  int
	noColor    bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project-dir", "p", "", "Project directory (default: current directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` manages composable packs of AI assistant rules. Install packs into a
project, group them into profiles, and sync them into the rule layout each
assistant (Cursor, Windsurf, Cline, Claude Code, Copilot and others) expects.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
		stderr := cmd.ErrOrStderr()
		color := !noColor
		if f, ok := stderr.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
			color = false
		}
		logging.Setup(verbosity, stderr, !color)
	},
}

// Execute runs the root command with build info injected via ldflags. The
// error, if any, has already been printed.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

func newRepository() *registry.Repository {
	return registry.New(config.PacksDir(), registry.WithProvider(newCommunityClient()))
}

func newCommunityClient() *community.Client {
	return community.New(config.IndexURL(), community.WithArchiveURL(config.ArchiveURL()))
}

// openProject opens the --project-dir project, defaulting to the working
// directory.
func openProject() (*project.Project, error) {
	dir := projectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		dir = wd
	}
	return project.New(dir, newRepository())
}
