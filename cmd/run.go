package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moritz-zoellner/pyrope/internal/engine"
	"github.com/moritz-zoellner/pyrope/internal/examples"
	"github.com/moritz-zoellner/pyrope/internal/exercise"
	"github.com/moritz-zoellner/pyrope/internal/frontend"
	"github.com/moritz-zoellner/pyrope/internal/pool"
	"github.com/moritz-zoellner/pyrope/internal/runner"
	"github.com/moritz-zoellner/pyrope/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run [quiz.json]",
	Short: "Run a quiz of exercises",
	Long: "Run a quiz: either the built-in exercises or a quiz file " +
		"referencing them by name. Every finished attempt is recorded.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuiz(cmd, args)
	},
}

func init() {
	runCmd.Flags().Bool("debug", false, "Show solutions alongside the problem")
	runCmd.Flags().Float64("difficulty", 0, "Force a fixed difficulty in [0, 1] instead of sampling")
	runCmd.Flags().Bool("no-store", false, "Do not record attempts")

	// The root command doubles as "run".
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}

// runQuiz loads the quiz pool, opens the store, and walks the pool's
// exposed items running one attempt each.
func runQuiz(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := cfg.SetupLogger()

	quiz, err := loadPool(args)
	if err != nil {
		return err
	}
	if err := quiz.Validate(); err != nil {
		return err
	}

	var rec runner.Recorder
	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		rec = st
	}

	debug, _ := cmd.Flags().GetBool("debug")
	var difficulty *float64
	if cmd.Flags().Changed("difficulty") {
		d, _ := cmd.Flags().GetFloat64("difficulty")
		difficulty = &d
	}

	opts := runner.Options{
		Debug: debug,
		Globals: engine.Globals{
			MinDifficulty: cfg.MinDifficulty,
			MaxDifficulty: cfg.MaxDifficulty,
			UserName:      cfg.UserName,
		},
		Difficulty: difficulty,
		Recorder:   rec,
		Logger:     log,
	}

	outcomes := map[*exercise.Definition]pool.Outcome{}
	aborted, err := walkPool(quiz, opts, outcomes)
	if err != nil {
		return err
	}

	agg := quiz.Aggregate(outcomes)
	if aborted {
		fmt.Fprintln(os.Stdout, "quiz aborted")
	}
	fmt.Fprintf(os.Stdout, "quiz score: %g / %g\n", agg.Total, agg.MaxTotal)
	return nil
}

// loadPool builds the quiz pool: a quiz file when given, the built-in
// exercises otherwise.
func loadPool(args []string) (*pool.Pool, error) {
	if len(args) == 0 {
		p := pool.New("Built-in exercises")
		p.Navigation = pool.NavigationSequential
		for _, def := range examples.All() {
			p.Add(def)
		}
		return p, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read quiz file: %w", err)
	}
	p, err := pool.Load(data, examples.Registry())
	if err != nil {
		return nil, fmt.Errorf("load quiz %s: %w", args[0], err)
	}
	return p, nil
}

// walkPool runs one attempt per exposed item, recursing into sub-pools.
// An abort stops the traversal; everything finished so far still counts.
func walkPool(p *pool.Pool, opts runner.Options, outcomes map[*exercise.Definition]pool.Outcome) (bool, error) {
	for _, i := range p.Exposed(opts.Globals.Rand) {
		it := p.Items[i]
		if it.IsPool() {
			aborted, err := walkPool(it.Sub, opts, outcomes)
			if err != nil || aborted {
				return aborted, err
			}
			continue
		}

		if !it.Exercise.Meta.CompatibleWith(version) {
			opts.Logger.Warn().
				Str("exercise", it.Exercise.Name).
				Str("version", version).
				Msg("definition declares engine version bounds this build does not satisfy")
		}
		r, err := runner.New(it.Exercise, opts)
		if err != nil {
			return false, err
		}
		aborted, err := frontend.Run(r)
		if err != nil {
			return false, err
		}
		if aborted {
			return true, nil
		}
		total, err := r.Engine().TotalScore()
		if err != nil {
			return false, err
		}
		maxTotal, err := r.Engine().MaxTotalScore()
		if err != nil {
			return false, err
		}
		outcomes[it.Exercise] = pool.Outcome{Total: total, MaxTotal: maxTotal}
	}
	return false, nil
}
