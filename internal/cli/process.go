package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-modules/internal/detect"
	"github.com/rcliao/agent-modules/internal/model"
	"github.com/rcliao/agent-modules/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "process [query]",
		Short: "Detect and apply module actions for a query",
		Long: "Apply every update/access suggestion at or above --min-confidence. When no existing\n" +
			"module was updated, the strongest create suggestion is applied instead.",
		Args: cobra.MaximumNArgs(1),
		Run:  runProcess,
	}

	cmd.Flags().StringP("query", "q", "", "Query text (or pass as argument)")
	cmd.Flags().Float64("min-confidence", 0.7, "Minimum confidence to act on")
	cmd.Flags().Bool("dry-run", false, "Show what would be applied without saving")

	RootCmd.AddCommand(cmd)
}

type processOutput struct {
	Detected detect.Result       `json:"detected"`
	Applied  []detect.Suggestion `json:"applied"`
	Modules  []*model.Module     `json:"modules"`
}

func runProcess(cmd *cobra.Command, args []string) {
	query := queryArg(cmd, args)
	minConf, _ := cmd.Flags().GetFloat64("min-confidence")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	a := openApp()
	defer a.Close()

	c := a.load(cmd)
	res := a.svc.Detect(query, c)
	out := processOutput{Detected: res, Applied: []detect.Suggestion{}, Modules: []*model.Module{}}

	picked := pick(res.Suggestions, minConf)
	if dryRun {
		out.Applied = append(out.Applied, picked...)
		printJSON(out)
		return
	}

	ctx := model.Context{Query: query}
	var events []store.Event
	for _, sg := range picked {
		m, err := a.svc.Apply(c, sg, ctx)
		if err != nil {
			exitErr("apply suggestion", err)
		}
		if m == nil {
			continue
		}
		out.Applied = append(out.Applied, sg)
		out.Modules = append(out.Modules, m)
		key := sg.ModuleKey
		if sg.Action == detect.ActionCreate {
			key = m.Identifier
		}
		events = append(events, store.Event{Key: key, Kind: eventKind(sg.Action), Detail: query})
	}
	a.save(cmd, c, events...)
	printJSON(out)
}

// pick chooses the suggestions to act on: all confident updates and
// accesses, or else the single strongest confident create.
func pick(suggestions []detect.Suggestion, minConf float64) []detect.Suggestion {
	var (
		out    []detect.Suggestion
		create *detect.Suggestion
	)
	for i, sg := range suggestions {
		if sg.Confidence < minConf {
			continue
		}
		if sg.Action == detect.ActionCreate {
			if create == nil {
				create = &suggestions[i]
			}
			continue
		}
		out = append(out, sg)
	}
	updated := false
	for _, sg := range out {
		if sg.Action == detect.ActionUpdate {
			updated = true
		}
	}
	if !updated && create != nil {
		out = append(out, *create)
	}
	return out
}

func eventKind(a detect.Action) store.EventKind {
	switch a {
	case detect.ActionCreate:
		return store.EventCreated
	case detect.ActionUpdate:
		return store.EventUpdated
	}
	return store.EventAccessed
}
