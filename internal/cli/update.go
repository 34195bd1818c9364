package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-modules/internal/model"
	"github.com/rcliao/agent-modules/internal/store"
	"github.com/rcliao/agent-modules/internal/update"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Merge data into a module",
		Long: "Merge a JSON patch into a module using its type's rules. For lists, --query decides\n" +
			"between adding and removing; a JSON array with no clue replaces the list.",
		Run: runUpdate,
	}

	cmd.Flags().StringP("key", "k", "", "Module key (required)")
	cmd.Flags().String("data", "", "Patch as JSON (required)")
	cmd.Flags().StringP("query", "q", "", "Originating query")

	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("data")

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	key, _ := cmd.Flags().GetString("key")
	dataStr, _ := cmd.Flags().GetString("data")
	query, _ := cmd.Flags().GetString("query")

	a := openApp()
	defer a.Close()

	c := a.load(cmd)
	existing := c[key]
	if existing == nil {
		// Not an error: nothing to update.
		fmt.Fprintf(os.Stderr, "no module %q for user %q\n", key, userFlag)
		printJSON(nil)
		return
	}

	patch, err := update.DecodePatch(existing.Type, []byte(dataStr))
	if err != nil {
		exitErr("parse --data", err)
	}
	m, err := a.svc.Update(c, key, patch, model.Context{Query: query})
	if err != nil {
		exitErr("update", err)
	}
	a.save(cmd, c, store.Event{Key: key, Kind: store.EventUpdated, Detail: dataStr})
	printJSON(m)
}
