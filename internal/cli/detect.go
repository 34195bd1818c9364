package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "detect [query]",
		Short: "Show suggested module actions for a query",
		Long:  "Score a free-text query against the user's modules. Nothing is changed.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runDetect,
	}

	cmd.Flags().StringP("query", "q", "", "Query text (or pass as argument)")

	RootCmd.AddCommand(cmd)
}

func queryArg(cmd *cobra.Command, args []string) string {
	q, _ := cmd.Flags().GetString("query")
	if q == "" && len(args) > 0 {
		q = args[0]
	}
	if q == "" {
		exitErr("query", fmt.Errorf("provide --query or an argument"))
	}
	return q
}

func runDetect(cmd *cobra.Command, args []string) {
	query := queryArg(cmd, args)

	a := openApp()
	defer a.Close()

	printJSON(a.svc.Detect(query, a.load(cmd)))
}
