package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moritz-zoellner/pyrope/internal/engine"
)

var testCmd = &cobra.Command{
	Use:   "test [quiz.json]",
	Short: "Self-test exercises without running them interactively",
	Long: "Exercise every definition in the quiz against all input " +
		"combinations (empty, trivial, dummy, solution) and report " +
		"ill-posed definitions.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		quiz, err := loadPool(args)
		if err != nil {
			return err
		}
		if err := quiz.Validate(); err != nil {
			return err
		}

		globals := engine.Globals{
			MinDifficulty: cfg.MinDifficulty,
			MaxDifficulty: cfg.MaxDifficulty,
			UserName:      cfg.UserName,
		}

		failed := 0
		for _, we := range quiz.Flatten() {
			def := we.Definition
			if err := engine.SelfTest(def, globals); err != nil {
				failed++
				fmt.Printf("FAIL %s: %v\n", def.Name, err)
				continue
			}
			fmt.Printf("ok   %s\n", def.Name)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d exercises failed", failed, len(quiz.Flatten()))
		}
		return nil
	},
}
