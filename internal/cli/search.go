package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-modules/internal/model"
	"github.com/rcliao/agent-modules/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search modules by key, identifier or data",
		Args:  cobra.MaximumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("query", "q", "", "Search text (or pass as argument)")
	cmd.Flags().StringP("type", "t", "", "Filter by module type")
	cmd.Flags().Bool("all-users", false, "Search across every user")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	query := queryArg(cmd, args)
	typeStr, _ := cmd.Flags().GetString("type")
	allUsers, _ := cmd.Flags().GetBool("all-users")
	limit, _ := cmd.Flags().GetInt("limit")

	p := store.SearchParams{Query: query, Limit: limit}
	if !allUsers {
		p.User = userFlag
	}
	if typeStr != "" {
		t, err := model.ParseType(typeStr)
		if err != nil {
			exitErr("search", err)
		}
		p.Type = t
	}

	a := openApp()
	defer a.Close()

	records, err := a.store.Search(cmd.Context(), p)
	if err != nil {
		exitErr("search", err)
	}

	if formatFlag == "text" {
		for _, r := range records {
			fmt.Printf("%s/%s\t%s\t%s\n", r.User, r.Key, r.Module.Type, r.Module.Identifier)
		}
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	printJSON(records)
}
