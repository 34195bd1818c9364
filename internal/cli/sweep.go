package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-modules/internal/lifecycle"
	"github.com/rcliao/agent-modules/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Archive and remove idle modules",
		Long: "Archive modules not accessed within lifecycle.archive_after and delete archived\n" +
			"modules not accessed within lifecycle.remove_after.",
		Run: runSweep,
	}

	cmd.Flags().Bool("all-users", false, "Sweep every user's modules")
	cmd.Flags().Bool("dry-run", false, "Report without changing anything")
	cmd.Flags().String("now", "", "Evaluate as of this RFC 3339 time (default: now)")

	RootCmd.AddCommand(cmd)
}

func runSweep(cmd *cobra.Command, args []string) {
	allUsers, _ := cmd.Flags().GetBool("all-users")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	nowStr, _ := cmd.Flags().GetString("now")
	now := parseNow(nowStr)

	a := openApp()
	defer a.Close()

	user := userFlag
	if allUsers {
		user = ""
	}
	colls, err := a.store.LoadAll(cmd.Context(), user)
	if err != nil {
		exitErr("load modules", err)
	}

	results := map[string]lifecycle.Result{}
	for u, c := range colls {
		if dryRun {
			results[u] = lifecycle.Due(c, now, a.svc.Policy())
			continue
		}
		res := a.svc.Sweep(c, now)
		results[u] = res
		if res.Empty() {
			continue
		}
		if err := a.store.Save(cmd.Context(), u, c); err != nil {
			exitErr("save modules", err)
		}
		var events []store.Event
		for _, k := range res.Archived {
			events = append(events, store.Event{User: u, Key: k, Kind: store.EventArchived, CreatedAt: now})
		}
		for _, k := range res.Removed {
			events = append(events, store.Event{User: u, Key: k, Kind: store.EventRemoved, Detail: "sweep", CreatedAt: now})
		}
		if err := a.store.RecordEvents(cmd.Context(), events); err != nil {
			a.logger.Warn("record events", "error", err)
		}
	}
	printJSON(results)
}
