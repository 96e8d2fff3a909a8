package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/siyuan-infoblox/import-reorder/pkg/config"
	"github.com/siyuan-infoblox/import-reorder/pkg/driver"
	"github.com/siyuan-infoblox/import-reorder/pkg/errors"
	"github.com/siyuan-infoblox/import-reorder/pkg/formatter"
	"github.com/siyuan-infoblox/import-reorder/pkg/logging"
	"github.com/siyuan-infoblox/import-reorder/pkg/utils"
	"github.com/siyuan-infoblox/import-reorder/pkg/version"
)

const (
	UseDescription   = "import-reorder [flags] [PATH...]"
	ShortDescription = "Import reorderer - groups and sorts JavaScript/TypeScript imports"
	LongDescription  = `import-reorder rewrites the import and require statements at the top of
JavaScript and TypeScript files.

Imports are sorted into the configured groups (first matching pattern wins,
unmatched imports go to the default group), alphabetized within each group,
and destructured members are alphabetized too. Everything after the last
import is left untouched.

Files are given as PATH arguments (directories are searched recursively) or,
without arguments, as a newline separated list on stdin, e.g.

  git diff --name-only --cached | import-reorder

Configuration is read from the built-in defaults, the user config file
($XDG_CONFIG_HOME/import-reorder/config.yaml), the nearest
.import-reorder.yaml/.yml/.toml (or --config) and IMPORT_REORDER_*
environment variables, in that order.`
)

// options holds the flag values and the environment of one command
type options struct {
	configPath  string
	dryRun      bool
	jobs        int
	verbosity   int
	showVersion bool

	fs            afero.Fs
	workDir       string // defaults to the current working directory
	userConfigDir string // defaults to the xdg config directory
}

var rootCmd = newRootCmd(&options{fs: afero.NewOsFs()})

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:          UseDescription,
		Short:        ShortDescription,
		Long:         LongDescription,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file to use instead of the discovered .import-reorder.yaml")
	cmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "Report the files that would change without writing them")
	cmd.PersistentFlags().IntVarP(&opts.jobs, "jobs", "j", 0, "Number of files processed concurrently (default: number of CPUs)")
	cmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
	cmd.PersistentFlags().BoolVar(&opts.showVersion, "version", false, "Show version information")
	return cmd
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	if opts.showVersion {
		fmt.Fprintln(cmd.OutOrStdout(), version.Get())
		return nil
	}

	logging.SetupLogger(cmd.ErrOrStderr(), opts.verbosity)
	logger := logging.GetLogger("cmd")

	workDir := opts.workDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("%s: %w", errors.ErrMsgFailedToGetWorkingDir, err)
		}
		workDir = wd
	}

	loadOpts := config.LoadOptions{
		ConfigPath:    opts.configPath,
		WorkDir:       workDir,
		UserConfigDir: opts.userConfigDir,
	}
	if cmd.Flags().Changed("jobs") {
		loadOpts.Overrides = map[string]interface{}{"jobs": opts.jobs}
	}
	cfg, err := config.Load(loadOpts)
	if err != nil {
		return err
	}
	for _, source := range cfg.Sources {
		logger.Debug().Str("file", source).Msg("Loaded config")
	}

	fopts, err := cfg.FormatterOptions()
	if err != nil {
		return err
	}
	filter, err := cfg.PathFilter()
	if err != nil {
		return err
	}

	paths := args
	expandDirs := true
	if len(paths) == 0 {
		in := cmd.InOrStdin()
		if isTerminal(in) {
			return cmd.Usage()
		}
		paths, err = utils.ParseChangeList(in)
		if err != nil {
			return fmt.Errorf("%s: %w", errors.ErrMsgFailedToReadList, err)
		}
		// a change list names files, never directories to search
		expandDirs = false
	}
	if len(paths) == 0 {
		logger.Info().Msg(errors.InfoMsgNoInput)
		return nil
	}

	d := driver.New(opts.fs, formatter.New(fopts), driver.Options{
		Root:       workDir,
		Filter:     filter,
		Jobs:       cfg.Workers(),
		DryRun:     opts.dryRun,
		ExpandDirs: expandDirs,
	})
	summary := d.Run(cmd.Context(), paths)

	if opts.dryRun {
		for _, r := range summary.Results {
			if r.Status == driver.StatusProcessed {
				fmt.Fprintln(cmd.OutOrStdout(), r.Path)
			}
		}
	}

	logger.Info().
		Int("processed", summary.Processed).
		Int("unchanged", summary.Unchanged).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Bool("dry_run", opts.dryRun).
		Msg(errors.InfoMsgSummary)
	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Execute runs the root command with the given build version. Files not yet
// started when ctx is cancelled are skipped
func Execute(ctx context.Context, v string) error {
	version.Set(v)
	return rootCmd.ExecuteContext(ctx)
}
