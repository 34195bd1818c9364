package update

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/rcliao/agent-modules/internal/model"
)

// Patch is the update payload for one module type. Nil and absent fields
// leave the stored value untouched.
type Patch interface {
	ModuleType() model.Type
}

// ListPatch carries either a whole sequence or a single item. A sequence
// without an add/remove clue in the query replaces the list; a single item
// is always merged.
type ListPatch struct {
	Items []string
	Item  string
}

func (ListPatch) ModuleType() model.Type { return model.TypeList }

// UnmarshalJSON accepts either a JSON array (Items) or a string (Item).
func (p *ListPatch) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &p.Item)
	}
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return fmt.Errorf("list patch must be a string or an array of strings: %w", err)
	}
	if items == nil {
		items = []string{}
	}
	p.Items = items
	return nil
}

func (p ListPatch) values() []string {
	if p.Items != nil {
		return p.Items
	}
	if p.Item != "" {
		return []string{p.Item}
	}
	return nil
}

// PlannerPatch merges guests and tasks and overwrites the scalar fields.
type PlannerPatch struct {
	Date     *string              `json:"date,omitempty"`
	Guests   []string             `json:"guests,omitempty"`
	Tasks    []string             `json:"tasks,omitempty"`
	Budget   *float64             `json:"budget,omitempty"`
	Location *string              `json:"location,omitempty"`
	Status   *model.PlannerStatus `json:"status,omitempty"`
}

func (PlannerPatch) ModuleType() model.Type { return model.TypePlanner }

// CalendarPatch upserts events by date.
type CalendarPatch map[string]string

func (CalendarPatch) ModuleType() model.Type { return model.TypeCalendar }

// InterestPatch unions keywords and related topics.
type InterestPatch struct {
	Keywords        []string `json:"keywords,omitempty"`
	EngagementLevel *int     `json:"engagementLevel,omitempty"`
	RelatedTopics   []string `json:"relatedTopics,omitempty"`
}

func (InterestPatch) ModuleType() model.Type { return model.TypeInterest }

// TrackerPatch records a new value and overwrites metric settings.
type TrackerPatch struct {
	Metric       *string    `json:"metric,omitempty"`
	Unit         *string    `json:"unit,omitempty"`
	Target       *float64   `json:"target,omitempty"`
	CurrentValue *float64   `json:"currentValue,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	Date         *time.Time `json:"date,omitempty"`
}

func (TrackerPatch) ModuleType() model.Type { return model.TypeTracker }

// GoalPatch overwrites scalar fields; a non-nil Milestones replaces the
// whole milestone list.
type GoalPatch struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Deadline    *string           `json:"deadline,omitempty"`
	Milestones  []model.Milestone `json:"milestones,omitempty"`
	Progress    *int              `json:"progress,omitempty"`
}

func (GoalPatch) ModuleType() model.Type { return model.TypeGoal }

// DecodePatch decodes raw JSON into the patch type for t.
func DecodePatch(t model.Type, raw []byte) (Patch, error) {
	var (
		p   Patch
		err error
	)
	switch t {
	case model.TypeList:
		var lp ListPatch
		err = json.Unmarshal(raw, &lp)
		p = lp
	case model.TypePlanner:
		var pp PlannerPatch
		err = json.Unmarshal(raw, &pp)
		p = pp
	case model.TypeCalendar:
		var cp CalendarPatch
		err = json.Unmarshal(raw, &cp)
		p = cp
	case model.TypeInterest:
		var ip InterestPatch
		err = json.Unmarshal(raw, &ip)
		p = ip
	case model.TypeTracker:
		var tp TrackerPatch
		err = json.Unmarshal(raw, &tp)
		p = tp
	case model.TypeGoal:
		var gp GoalPatch
		err = json.Unmarshal(raw, &gp)
		p = gp
	default:
		return nil, fmt.Errorf("%w %q", model.ErrUnknownType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s patch: %w", t, err)
	}
	return p, nil
}

// FromData converts a proposed payload into a patch, for payloads that carry
// enough to merge. It returns nil otherwise.
func FromData(d model.Data) Patch {
	switch v := d.(type) {
	case model.ListData:
		if len(v) == 0 {
			return nil
		}
		return ListPatch{Items: append([]string(nil), v...)}
	case model.CalendarData:
		if len(v) == 0 {
			return nil
		}
		cp := CalendarPatch{}
		for k, e := range v {
			cp[k] = e
		}
		return cp
	case *model.InterestData:
		if v == nil || len(v.Keywords) == 0 {
			return nil
		}
		return InterestPatch{Keywords: v.Keywords}
	}
	return nil
}
