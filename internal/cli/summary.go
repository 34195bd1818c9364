package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize the user's active modules",
		Run:   runSummary,
	}

	RootCmd.AddCommand(cmd)
}

func runSummary(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()

	sum := a.svc.Summarize(a.load(cmd))
	if formatFlag != "text" {
		printJSON(sum)
		return
	}

	fmt.Printf("%d active, %d archived\n", sum.TotalActive, sum.Archived)
	for t, n := range sum.CountsByType {
		if n > 0 {
			fmt.Printf("  %-9s %d\n", t, n)
		}
	}
	if len(sum.TopActive) > 0 {
		fmt.Println("top:")
		for _, e := range sum.TopActive {
			fmt.Printf("  p%-2d %s (%s)\n", e.Priority, e.Key, e.Type)
		}
	}
	if len(sum.RecentlyUpdated) > 0 {
		fmt.Println("recently updated:")
		for _, e := range sum.RecentlyUpdated {
			fmt.Printf("  %s %s\n", e.LastUpdated.Format("2006-01-02 15:04"), e.Key)
		}
	}
}
