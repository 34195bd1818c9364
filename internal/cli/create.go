package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-modules/internal/model"
	"github.com/rcliao/agent-modules/internal/modules"
	"github.com/rcliao/agent-modules/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a module",
		Long:  "Create a typed module. Without --key the generated identifier is the key.",
		Run:   runCreate,
	}

	cmd.Flags().StringP("type", "t", "", "Module type: list, planner, calendar, interest, tracker, goal (required)")
	cmd.Flags().StringP("key", "k", "", "Module key (default: generated identifier)")
	cmd.Flags().String("data", "", "Initial data as JSON in the type's shape")
	cmd.Flags().StringP("query", "q", "", "Originating query, used for tags and keywords")
	cmd.Flags().String("keywords", "", "Context keywords (comma-separated)")
	cmd.Flags().IntP("priority", "p", model.DefaultPriority, "Priority 1-10")

	cmd.MarkFlagRequired("type")

	RootCmd.AddCommand(cmd)
}

func runCreate(cmd *cobra.Command, args []string) {
	typeStr, _ := cmd.Flags().GetString("type")
	key, _ := cmd.Flags().GetString("key")
	dataStr, _ := cmd.Flags().GetString("data")
	query, _ := cmd.Flags().GetString("query")
	keywords, _ := cmd.Flags().GetString("keywords")
	priority, _ := cmd.Flags().GetInt("priority")

	typ, err := model.ParseType(typeStr)
	if err != nil {
		exitErr("create", err)
	}
	var data model.Data
	if dataStr != "" {
		data, err = model.DecodeData(typ, []byte(dataStr))
		if err != nil {
			exitErr("parse --data", err)
		}
	}

	a := openApp()
	defer a.Close()

	c := a.load(cmd)
	m, err := a.svc.Create(c, modules.CreateParams{
		Key:      key,
		Type:     typ,
		Data:     data,
		Context:  model.Context{Query: query},
		Priority: priority,
		Keywords: splitList(keywords),
	})
	var dup *modules.DuplicateKeyError
	if errors.As(err, &dup) {
		exitErr("create", fmt.Errorf("%w (use update, or omit --key)", err))
	}
	if err != nil {
		exitErr("create", err)
	}
	if key == "" {
		key = m.Identifier
	}
	a.save(cmd, c, store.Event{Key: key, Kind: store.EventCreated, Detail: query})

	printJSON(struct {
		Key    string        `json:"key"`
		Module *model.Module `json:"module"`
	}{key, m})
}
