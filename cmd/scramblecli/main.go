package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"crosswarped.com/scramble"
	"crosswarped.com/scramble/pkg/config"
	"crosswarped.com/scramble/pkg/primitives"
)

type globalFlags struct {
	configPath string
	timeout    time.Duration
	verbosity  string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:          "scramblecli",
		Short:        "Build phase tables and solve puzzle patterns",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML or JSON config file")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 0, "Overall timeout (default: search.timeout from the config)")
	root.PersistentFlags().StringVar(&g.verbosity, "verbosity", "", "Override logging verbosity (silent, error, warning, info, extra)")

	root.AddCommand(
		newBuildCommand(&g),
		newSolveCommand(&g),
		newPhaseSolveCommand(&g),
		newStatsCommand(&g),
	)
	return root
}

// openEngine loads the config and returns an engine plus a context bounded by the timeout.
func openEngine(cmd *cobra.Command, g *globalFlags) (*scramble.Engine, context.Context, context.CancelFunc, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if g.verbosity != "" {
		cfg.Logging.Verbosity = g.verbosity
	}
	e, err := scramble.NewEngine(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	timeout := g.timeout
	if timeout == 0 {
		timeout = cfg.Search.Timeout
	}
	if timeout > 0 {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		return e, ctx, cancel, nil
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	return e, ctx, cancel, nil
}

func newBuildCommand(g *globalFlags) *cobra.Command {
	var export bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build every configured phase table",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			e, ctx, cancel, err := openEngine(cmd, g)
			if err != nil {
				return err
			}
			defer cancel()
			defer e.Close()

			stats, err := e.BuildAll(ctx)
			if err != nil {
				return err
			}
			for _, s := range stats {
				fmt.Fprintf(out, "%-24s %-6s states=%d moves=%d max_depth=%d took=%s\n",
					s.Phase, s.Source, s.States, s.Moves, s.MaxDepth, s.Duration.Round(time.Millisecond))
			}

			if export {
				buildID, err := scramble.ExportBuildStats(ctx, e.Config().Cloud, stats)
				if err != nil {
					return fmt.Errorf("export build stats: %w", err)
				}
				fmt.Fprintln(out, "Exported build", buildID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&export, "export", false, "Export build statistics to BigQuery")
	return cmd
}

func newSolveCommand(g *globalFlags) *cobra.Command {
	var (
		firstOnly bool
		doAll     bool
		opts      scramble.SolveOptions
	)
	cmd := &cobra.Command{
		Use:   "solve <scramble>",
		Short: "Search for full solutions of a scrambled pattern",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if firstOnly && doAll {
				return fmt.Errorf("cannot use both --first and --all")
			}
			alg, err := primitives.ParseAlg(strings.Join(args, " "))
			if err != nil {
				return err
			}
			e, ctx, cancel, err := openEngine(cmd, g)
			if err != nil {
				return err
			}
			defer cancel()
			defer e.Close()

			solutions, err := e.Solve(ctx, alg, opts)
			if err != nil {
				return err
			}

			found := 0
			for solution := range solutions {
				found++
				fmt.Fprintln(out, "--------------------------------")
				fmt.Fprintf(out, "%s (%d)\n", solution, solution.Length())

				if firstOnly {
					break
				}
				if doAll {
					continue
				}

				// Wait for user input and determine if they want to continue.
				// Continue (any key), or stop (n)
				fmt.Fprint(out, "Continue? [Y/n]: ")
				var input string
				fmt.Fscanln(cmd.InOrStdin(), &input)
				if input == "n" || input == "N" {
					break
				}
			}

			fmt.Fprintln(out, "--------------------------------")
			fmt.Fprintf(out, "Done (%d solutions)\n", found)
			if ctx.Err() != nil {
				fmt.Fprintln(out, "Context error:", ctx.Err())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&firstOnly, "first", false, "Only print the first solution")
	cmd.Flags().BoolVar(&doAll, "all", false, "Print every solution without prompting")
	cmd.Flags().StringVar(&opts.PruneWithPhase, "phase-prune", "", "Prune with the named phase table instead of a hash prune table")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "Override search.max_depth")
	return cmd
}

func newPhaseSolveCommand(g *globalFlags) *cobra.Command {
	var (
		phaseName string
		setup     bool
	)
	cmd := &cobra.Command{
		Use:   "phase-solve <scramble>",
		Short: "Print a shortest solution of one phase",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			alg, err := primitives.ParseAlg(strings.Join(args, " "))
			if err != nil {
				return err
			}
			e, ctx, cancel, err := openEngine(cmd, g)
			if err != nil {
				return err
			}
			defer cancel()
			defer e.Close()

			names := []string{phaseName}
			if phaseName == "" {
				names = e.PhaseNames()
			}
			for _, name := range names {
				solution, err := e.SolvePhase(ctx, name, alg)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-24s %s (%d)\n", name, solution, solution.Length())
				if setup {
					fmt.Fprintf(out, "%-24s setup %s\n", "", solution.Invert())
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&phaseName, "phase", "", "Phase to solve (default: every configured phase)")
	cmd.Flags().BoolVar(&setup, "setup", false, "Also print the shortest alg that sets up the same phase state from solved")
	return cmd
}

func newStatsCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the depth distribution of every phase table",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			e, ctx, cancel, err := openEngine(cmd, g)
			if err != nil {
				return err
			}
			defer cancel()
			defer e.Close()

			for _, name := range e.PhaseNames() {
				table, err := e.Table(ctx, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d states, %d moves\n", name, table.Len(), table.MoveCount())
				for depth, count := range scramble.DepthDistribution(table) {
					fmt.Fprintf(out, "  %2d: %d\n", depth, count)
				}
			}
			cs := e.CacheStats()
			fmt.Fprintf(out, "cache: %d built, %d loaded, %d hits\n", cs.Builds, cs.Loads, cs.Hits)
			return nil
		},
	}
}
