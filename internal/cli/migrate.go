package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-modules/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Rekey legacy modules to identifiers",
		Long:  "Move every module stored under a non-identifier key to a generated identifier.",
		Run:   runMigrate,
	}

	cmd.Flags().Bool("dry-run", false, "Report without saving")

	RootCmd.AddCommand(cmd)
}

func runMigrate(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	a := openApp()
	defer a.Close()

	c := a.load(cmd)
	res, err := a.svc.MigrateLegacy(c)
	if err != nil {
		exitErr("migrate", err)
	}
	if !dryRun && res.Migrated > 0 {
		var events []store.Event
		for old, id := range res.Mapping {
			events = append(events, store.Event{Key: id, Kind: store.EventMigrated, Detail: old})
		}
		a.save(cmd, c, events...)
	}
	printJSON(res)
}
