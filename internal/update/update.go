// Package update merges patches into module payloads.
//
// Every merge works on a copy: Apply returns a new payload and leaves the
// module untouched, so a failed update never leaves a half-written record.
package update

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rcliao/agent-modules/internal/model"
)

var (
	// ErrTypeMismatch is returned when a patch targets a different module type.
	ErrTypeMismatch = errors.New("patch type does not match module type")
	// ErrInvalidStatus is returned for an unknown planner status.
	ErrInvalidStatus = errors.New("invalid planner status")
)

var (
	addClues    = []string{"add", "include"}
	removeClues = []string{"remove", "delete"}
)

// Apply merges p into a copy of m's payload and returns the result.
func Apply(m *model.Module, p Patch, ctx model.Context, now time.Time) (model.Data, error) {
	if p == nil {
		return nil, errors.New("nil patch")
	}
	if p.ModuleType() != m.Type {
		return nil, fmt.Errorf("%w: %s patch for %s module", ErrTypeMismatch, p.ModuleType(), m.Type)
	}

	cur := m.Data
	if model.IsNil(cur) || cur.ModuleType() != m.Type {
		d, err := model.DefaultData(m.Type)
		if err != nil {
			return nil, err
		}
		cur = d
	}
	cur = model.CloneData(cur)

	var out model.Data
	switch v := p.(type) {
	case ListPatch:
		out = applyList(cur.(model.ListData), v, ctx)
	case PlannerPatch:
		d, err := applyPlanner(cur.(*model.PlannerData), v)
		if err != nil {
			return nil, err
		}
		out = d
	case CalendarPatch:
		out = applyCalendar(cur.(model.CalendarData), v)
	case InterestPatch:
		out = applyInterest(cur.(*model.InterestData), v, now)
	case TrackerPatch:
		out = applyTracker(cur.(*model.TrackerData), v, ctx, now)
	case GoalPatch:
		out = applyGoal(cur.(*model.GoalData), v)
	default:
		return nil, fmt.Errorf("unsupported patch %T", p)
	}
	return model.Normalize(out), nil
}

func applyList(cur model.ListData, p ListPatch, ctx model.Context) model.ListData {
	vals := p.values()
	if vals == nil {
		return cur
	}
	switch c := firstClue(ctx.Query); {
	case c == clueAdd:
		return model.ListData(model.Dedupe(append([]string(cur), vals...)))
	case c == clueRemove:
		return removeItems(cur, vals)
	case p.Items != nil:
		return model.ListData(model.Dedupe(p.Items))
	default:
		return model.ListData(model.Dedupe(append([]string(cur), vals...)))
	}
}

// removeItems drops every entry equal to or containing one of drop,
// ignoring case.
func removeItems(cur model.ListData, drop []string) model.ListData {
	out := make(model.ListData, 0, len(cur))
next:
	for _, it := range cur {
		li := strings.ToLower(it)
		for _, d := range drop {
			d = strings.ToLower(strings.TrimSpace(d))
			if d != "" && (li == d || strings.Contains(li, d)) {
				continue next
			}
		}
		out = append(out, it)
	}
	return out
}

func applyPlanner(cur *model.PlannerData, p PlannerPatch) (*model.PlannerData, error) {
	if p.Status != nil {
		if !model.ValidStatuses[*p.Status] {
			return nil, fmt.Errorf("%w %q", ErrInvalidStatus, *p.Status)
		}
		cur.Status = *p.Status
	}
	if p.Date != nil {
		cur.Date = *p.Date
	}
	if p.Location != nil {
		cur.Location = *p.Location
	}
	if p.Budget != nil {
		b := *p.Budget
		cur.Budget = &b
	}
	cur.Guests = model.Dedupe(append(cur.Guests, p.Guests...))
	cur.Tasks = model.Dedupe(append(cur.Tasks, p.Tasks...))
	return cur, nil
}

func applyCalendar(cur model.CalendarData, p CalendarPatch) model.CalendarData {
	for date, ev := range p {
		cur[date] = ev
	}
	return cur
}

func applyInterest(cur *model.InterestData, p InterestPatch, now time.Time) *model.InterestData {
	cur.Keywords = model.Dedupe(append(cur.Keywords, p.Keywords...))
	if len(p.RelatedTopics) > 0 {
		cur.RelatedTopics = model.Dedupe(append(cur.RelatedTopics, p.RelatedTopics...))
	}
	if p.EngagementLevel != nil {
		cur.EngagementLevel = model.ClampEngagement(*p.EngagementLevel)
	}
	t := now
	cur.LastEngagement = &t
	return cur
}

func applyTracker(cur *model.TrackerData, p TrackerPatch, ctx model.Context, now time.Time) *model.TrackerData {
	if p.Metric != nil {
		cur.Metric = *p.Metric
	}
	if p.Unit != nil {
		cur.Unit = *p.Unit
	}
	if p.Target != nil {
		x := *p.Target
		cur.Target = &x
	}
	if p.CurrentValue != nil {
		entry := model.TrackerEntry{Date: now, Value: *p.CurrentValue, Notes: ctx.Query}
		if p.Date != nil {
			entry.Date = *p.Date
		}
		if p.Notes != nil {
			entry.Notes = *p.Notes
		}
		cur.History = append(cur.History, entry)
		x := *p.CurrentValue
		cur.CurrentValue = &x
	}
	return cur
}

func applyGoal(cur *model.GoalData, p GoalPatch) *model.GoalData {
	if p.Title != nil {
		cur.Title = *p.Title
	}
	if p.Description != nil {
		cur.Description = *p.Description
	}
	if p.Deadline != nil {
		cur.Deadline = *p.Deadline
	}
	if p.Milestones != nil {
		cur.Milestones = append([]model.Milestone{}, p.Milestones...)
	}
	if p.Progress != nil {
		cur.Progress = model.ClampProgress(*p.Progress)
	}
	return cur
}

type clue int

const (
	clueNone clue = iota
	clueAdd
	clueRemove
)

// firstClue returns the kind of the earliest add or remove clue that appears
// as a whole word in query.
func firstClue(query string) clue {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	for _, w := range words {
		if slices.Contains(addClues, w) {
			return clueAdd
		}
		if slices.Contains(removeClues, w) {
			return clueRemove
		}
	}
	return clueNone
}
