package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-modules/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Retrieve a module",
		Long:  "Retrieve a module and mark it accessed, which also un-archives it. Use --peek to leave it untouched.",
		Run:   runGet,
	}

	cmd.Flags().StringP("key", "k", "", "Module key (required)")
	cmd.Flags().Bool("peek", false, "Do not record the access")

	cmd.MarkFlagRequired("key")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	key, _ := cmd.Flags().GetString("key")
	peek, _ := cmd.Flags().GetBool("peek")

	a := openApp()
	defer a.Close()

	if peek {
		m, err := a.store.Get(cmd.Context(), userFlag, key)
		if err != nil {
			exitErr("get", err)
		}
		if m == nil {
			exitErr("get", fmt.Errorf("module not found: %s/%s", userFlag, key))
		}
		printJSON(m)
		return
	}

	c := a.load(cmd)
	m := a.svc.Access(c, key)
	if m == nil {
		exitErr("get", fmt.Errorf("module not found: %s/%s", userFlag, key))
	}
	a.save(cmd, c, store.Event{Key: key, Kind: store.EventAccessed})
	printJSON(m)
}
