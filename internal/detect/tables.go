package detect

import "github.com/rcliao/agent-modules/internal/model"

// Signal weights. A module's confidence is the capped sum of the weights of
// the signals that fired for it.
const (
	WeightKeyMention  = 0.8
	WeightTypeVerb    = 0.6
	WeightTypeKeyword = 0.3
	WeightDataMatch   = 0.2
	WeightTagMatch    = 0.2
)

// updateVerbs turn a relevant module into an update suggestion.
var updateVerbs = []string{"add", "remove", "update", "change", "modify", "delete", "complete"}

// listEditVerbs gate proposed list items on an update. Without one the query
// names no change to make.
var listEditVerbs = []string{"add", "include", "remove", "delete"}

// typeRule is the relevance heuristic for one module type.
type typeRule struct {
	// keywords mark a query as being about this kind of module.
	keywords []string
	// verbs add WeightTypeVerb when present.
	verbs []string
	// terms returns the stored data elements a query may quote.
	terms func(model.Data) []string
}

var typeRules = map[model.Type]typeRule{
	model.TypeList: {
		keywords: []string{"list", "items", "shopping", "grocery", "groceries", "todo", "to do"},
		verbs:    []string{"add", "remove", "list"},
		terms: func(d model.Data) []string {
			l, _ := d.(model.ListData)
			return l
		},
	},
	model.TypePlanner: {
		keywords: []string{"party", "event", "plan", "planning", "guest", "guests", "invite", "celebration"},
		verbs:    []string{"party", "event", "plan"},
		terms: func(d model.Data) []string {
			p, ok := d.(*model.PlannerData)
			if !ok {
				return nil
			}
			return append(append([]string{}, p.Guests...), p.Tasks...)
		},
	},
	model.TypeCalendar: {
		keywords: []string{"schedule", "calendar", "appointment", "appointments", "meeting", "meetings", "date"},
		terms: func(d model.Data) []string {
			c, _ := d.(model.CalendarData)
			out := make([]string, 0, len(c))
			for _, ev := range c {
				out = append(out, ev)
			}
			return out
		},
	},
	model.TypeInterest: {
		terms: func(d model.Data) []string {
			i, ok := d.(*model.InterestData)
			if !ok {
				return nil
			}
			return append(append([]string{}, i.Keywords...), i.RelatedTopics...)
		},
	},
	model.TypeTracker: {
		keywords: []string{"track", "tracking", "progress", "target", "metric", "log"},
		terms: func(d model.Data) []string {
			tr, ok := d.(*model.TrackerData)
			if !ok || tr.Metric == "" || tr.Metric == model.UnknownMetric {
				return nil
			}
			return []string{tr.Metric}
		},
	},
	model.TypeGoal: {
		keywords: []string{"goal", "achieve", "progress", "milestone", "milestones", "target"},
		terms: func(d model.Data) []string {
			g, ok := d.(*model.GoalData)
			if !ok {
				return nil
			}
			out := []string{g.Title}
			for _, m := range g.Milestones {
				out = append(out, m.Title)
			}
			return out
		},
	},
}

// opportunity is a phrase set that proposes creating a new module.
type opportunity struct {
	moduleType model.Type
	phrases    []string
	confidence float64
	// propose builds the context keywords and initial data from the query.
	propose func(query string) ([]string, model.Data)
}

var opportunities = []opportunity{
	{
		moduleType: model.TypeList,
		phrases:    []string{"shopping list", "grocery list", "todo list", "to do list", "need to buy", "need to get"},
		confidence: 0.8,
		propose: func(q string) ([]string, model.Data) {
			items := ExtractListItems(q)
			kw := append([]string{"shopping", "groceries"}, firstN(items, 2)...)
			return kw, model.ListData(items)
		},
	},
	{
		moduleType: model.TypePlanner,
		phrases:    []string{"party", "birthday", "celebration", "event planning"},
		confidence: 0.7,
		propose: func(q string) ([]string, model.Data) {
			p := ExtractPlanner(q)
			kw := []string{"party", "planning"}
			kw = append(kw, firstN(p.Guests, 2)...)
			return kw, p
		},
	},
	{
		moduleType: model.TypeCalendar,
		phrases:    []string{"schedule", "calendar", "appointments", "meetings"},
		confidence: 0.6,
		propose: func(q string) ([]string, model.Data) {
			return []string{"calendar", "schedule"}, ExtractCalendar(q)
		},
	},
	{
		moduleType: model.TypeTracker,
		phrases:    []string{"keep track of", "track my", "log my"},
		confidence: 0.6,
		propose: func(q string) ([]string, model.Data) {
			tr := ExtractTracker(q)
			return []string{"tracker", tr.Metric}, tr
		},
	},
	{
		moduleType: model.TypeGoal,
		phrases:    []string{"my goal", "goal is", "i want to achieve"},
		confidence: 0.6,
		propose: func(q string) ([]string, model.Data) {
			g := ExtractGoal(q)
			return append([]string{"goal"}, firstN(significantWords(g.Title), 2)...), g
		},
	},
	{
		moduleType: model.TypeInterest,
		phrases:    []string{"interested in", "learning about", "studying", "fascinated by"},
		confidence: 0.5,
		propose: func(q string) ([]string, model.Data) {
			in := ExtractInterest(q)
			kw := firstN(in.Keywords, 3)
			if len(kw) == 0 {
				kw = []string{"learning"}
			}
			return kw, in
		},
	},
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		s = s[:n]
	}
	return append([]string(nil), s...)
}
