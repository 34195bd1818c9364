package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users with stored modules",
		Run:   runUsers,
	}

	RootCmd.AddCommand(cmd)
}

func runUsers(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()

	users, err := a.store.Users(cmd.Context())
	if err != nil {
		exitErr("list users", err)
	}
	if users == nil {
		users = []string{}
	}
	printJSON(users)
}
