package cmd

import (
	"github.com/spf13/cobra"

	"github.com/moritz-zoellner/pyrope/internal/config"
	"github.com/moritz-zoellner/pyrope/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "pyrope",
	Short: "Randomized auto-graded exercises in the terminal",
	Long:  "Pyrope runs parametrized, automatically graded exercises and quizzes in the terminal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuiz(cmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PYROPE_DB env var)")
	rootCmd.PersistentFlags().String("user", "", "User name attempts are recorded under")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig builds the runtime configuration from the environment,
// overridden by flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		cfg.UserName = u
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		cfg.LogLevel = l
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then PYROPE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
