package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-modules/internal/model"
	"github.com/rcliao/agent-modules/internal/modules"
	"github.com/rcliao/agent-modules/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List modules",
		Run:   runList,
	}

	cmd.Flags().StringP("type", "t", "", "Filter by module type")
	cmd.Flags().String("service", "", "Only modules whose identifier was minted by this service")
	cmd.Flags().String("tags", "", "Filter by tags (comma-separated)")
	cmd.Flags().Bool("archived", false, "Only archived modules")
	cmd.Flags().Bool("active", false, "Only active modules")
	cmd.Flags().Bool("all-users", false, "List across every user")
	cmd.Flags().IntP("limit", "l", 50, "Max results")
	cmd.Flags().Bool("keys-only", false, "Only output user/key pairs")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	typeStr, _ := cmd.Flags().GetString("type")
	service, _ := cmd.Flags().GetString("service")
	tagsStr, _ := cmd.Flags().GetString("tags")
	archivedOnly, _ := cmd.Flags().GetBool("archived")
	activeOnly, _ := cmd.Flags().GetBool("active")
	allUsers, _ := cmd.Flags().GetBool("all-users")
	limit, _ := cmd.Flags().GetInt("limit")
	keysOnly, _ := cmd.Flags().GetBool("keys-only")

	p := store.ListParams{Tags: splitList(tagsStr), Limit: limit}
	if !allUsers {
		p.User = userFlag
	}
	if typeStr != "" {
		t, err := model.ParseType(typeStr)
		if err != nil {
			exitErr("list", err)
		}
		p.Type = t
	}
	switch {
	case archivedOnly && activeOnly:
		exitErr("list", fmt.Errorf("--archived and --active are exclusive"))
	case archivedOnly:
		v := true
		p.Archived = &v
	case activeOnly:
		v := false
		p.Archived = &v
	}

	if service != "" {
		p.Limit = -1
	}

	a := openApp()
	defer a.Close()

	records, err := a.store.List(cmd.Context(), p)
	if err != nil {
		exitErr("list", err)
	}
	if service != "" {
		records = filterService(records, service)
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}
	}

	if keysOnly || formatFlag == "text" {
		for _, r := range records {
			if keysOnly {
				fmt.Printf("%s/%s\n", r.User, r.Key)
				continue
			}
			state := "active"
			if r.Module.Metadata.Archived {
				state = "archived"
			}
			fmt.Printf("%s/%s\t%s\tp%d\t%s\n", r.User, r.Key, r.Module.Type, r.Module.Metadata.Priority, state)
		}
		return
	}

	if records == nil {
		records = []store.Record{}
	}
	printJSON(records)
}

// filterService keeps the records minted by service, in their original order.
func filterService(records []store.Record, service string) []store.Record {
	byUser := map[string]model.Collection{}
	for _, r := range records {
		if byUser[r.User] == nil {
			byUser[r.User] = model.Collection{}
		}
		byUser[r.User][r.Key] = r.Module
	}
	keep := map[string]map[string]bool{}
	for user, c := range byUser {
		keep[user] = map[string]bool{}
		for _, key := range modules.ByService(c, service) {
			keep[user][key] = true
		}
	}
	out := []store.Record{}
	for _, r := range records {
		if keep[r.User][r.Key] {
			out = append(out, r)
		}
	}
	return out
}
