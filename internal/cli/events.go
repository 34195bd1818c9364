package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-modules/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the module event log",
		Run:   runEvents,
	}

	cmd.Flags().StringP("key", "k", "", "Only events for this module key")
	cmd.Flags().IntP("limit", "l", 50, "Max results")

	RootCmd.AddCommand(cmd)
}

func runEvents(cmd *cobra.Command, args []string) {
	key, _ := cmd.Flags().GetString("key")
	limit, _ := cmd.Flags().GetInt("limit")

	a := openApp()
	defer a.Close()

	events, err := a.store.Events(cmd.Context(), store.EventParams{User: userFlag, Key: key, Limit: limit})
	if err != nil {
		exitErr("events", err)
	}
	if events == nil {
		events = []store.Event{}
	}
	printJSON(events)
}
