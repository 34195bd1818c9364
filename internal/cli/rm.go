package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-modules/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Delete a module",
		Run:   runRm,
	}

	cmd.Flags().StringP("key", "k", "", "Module key (required)")

	cmd.MarkFlagRequired("key")

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	key, _ := cmd.Flags().GetString("key")

	a := openApp()
	defer a.Close()

	ok, err := a.store.Remove(cmd.Context(), userFlag, key)
	if err != nil {
		exitErr("rm", err)
	}
	if !ok {
		exitErr("rm", fmt.Errorf("module not found: %s/%s", userFlag, key))
	}
	if err := a.store.RecordEvents(cmd.Context(), []store.Event{{User: userFlag, Key: key, Kind: store.EventRemoved, Detail: "manual"}}); err != nil {
		a.logger.Warn("record events", "error", err)
	}
	printJSON(map[string]string{"status": "deleted", "user": userFlag, "key": key})
}
