package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moritz-zoellner/pyrope/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recorded attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")
		rows, err := st.History(cmd.Context(), user, limit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("no attempts recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "EXERCISE\tUSER\tSUBMITTED\tSCORE")
		for _, row := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%g / %g\n",
				row.Label, row.UserName,
				row.SubmittedAt.Local().Format("2006-01-02 15:04"),
				row.Score, row.MaxScore)
		}
		return w.Flush()
	},
}

func init() {
	statsCmd.Flags().Int("limit", 20, "Maximum number of attempts to list (0 for all)")
}
