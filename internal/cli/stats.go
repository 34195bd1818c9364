package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()

	st, err := a.store.Stats(cmd.Context(), a.cfg.DBPath)
	if err != nil {
		exitErr("stats", err)
	}
	printJSON(st)
}
