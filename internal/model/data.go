package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Data is the type-specific module payload. Each implementation reports the
// module type it belongs to.
type Data interface {
	ModuleType() Type
}

// ListData is an ordered sequence of unique items.
type ListData []string

func (ListData) ModuleType() Type { return TypeList }

// MarshalJSON encodes a nil list as [].
func (d ListData) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(d))
}

// PlannerStatus is the state of a planned event.
type PlannerStatus string

const (
	StatusPlanning   PlannerStatus = "planning"
	StatusInProgress PlannerStatus = "in-progress"
	StatusCompleted  PlannerStatus = "completed"
	StatusCancelled  PlannerStatus = "cancelled"
)

// ValidStatuses are the allowed planner statuses.
var ValidStatuses = map[PlannerStatus]bool{
	StatusPlanning:   true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
}

// PlannerData tracks an event being organised.
type PlannerData struct {
	Date     string        `json:"date,omitempty"`
	Guests   []string      `json:"guests"`
	Tasks    []string      `json:"tasks"`
	Budget   *float64      `json:"budget,omitempty"`
	Location string        `json:"location,omitempty"`
	Status   PlannerStatus `json:"status"`
}

func (*PlannerData) ModuleType() Type { return TypePlanner }

// CalendarData maps a date to an event description.
type CalendarData map[string]string

func (CalendarData) ModuleType() Type { return TypeCalendar }

// MarshalJSON encodes a nil calendar as {}.
func (d CalendarData) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(d))
}

const (
	MinEngagement     = 1
	MaxEngagement     = 10
	DefaultEngagement = 5
)

// InterestData records a topic the user keeps coming back to.
type InterestData struct {
	Keywords        []string   `json:"keywords"`
	EngagementLevel int        `json:"engagementLevel"`
	RelatedTopics   []string   `json:"relatedTopics,omitempty"`
	LastEngagement  *time.Time `json:"lastEngagement,omitempty"`
}

func (*InterestData) ModuleType() Type { return TypeInterest }

// TrackerEntry is one recorded measurement.
type TrackerEntry struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Notes string    `json:"notes,omitempty"`
}

// UnknownMetric names a tracker whose metric was not given.
const UnknownMetric = "unknown"

// TrackerData records a metric over time.
type TrackerData struct {
	Metric       string         `json:"metric"`
	Unit         string         `json:"unit,omitempty"`
	Target       *float64       `json:"target,omitempty"`
	CurrentValue *float64       `json:"currentValue,omitempty"`
	History      []TrackerEntry `json:"history"`
}

func (*TrackerData) ModuleType() Type { return TypeTracker }

// Milestone is a step towards a goal.
type Milestone struct {
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

const (
	MinProgress = 0
	MaxProgress = 100
)

// GoalData tracks progress towards an objective.
type GoalData struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Deadline    string      `json:"deadline,omitempty"`
	Milestones  []Milestone `json:"milestones"`
	Progress    int         `json:"progress"`
}

func (*GoalData) ModuleType() Type { return TypeGoal }

// DefaultData returns the empty payload for t.
func DefaultData(t Type) (Data, error) {
	switch t {
	case TypeList:
		return ListData{}, nil
	case TypePlanner:
		return &PlannerData{Guests: []string{}, Tasks: []string{}, Status: StatusPlanning}, nil
	case TypeCalendar:
		return CalendarData{}, nil
	case TypeInterest:
		return &InterestData{Keywords: []string{}, EngagementLevel: DefaultEngagement}, nil
	case TypeTracker:
		return &TrackerData{Metric: UnknownMetric, History: []TrackerEntry{}}, nil
	case TypeGoal:
		return &GoalData{Title: "New Goal", Milestones: []Milestone{}}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownType, t)
}

// DecodeData decodes raw into the payload shape for t. Missing fields keep
// the defaults from DefaultData.
func DecodeData(t Type, raw []byte) (Data, error) {
	d, err := DefaultData(t)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return d, nil
	}
	switch v := d.(type) {
	case ListData:
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", t, err)
		}
		d = v
	case CalendarData:
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", t, err)
		}
		d = v
	default:
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", t, err)
		}
	}
	return Normalize(d), nil
}

// Normalize enforces the payload invariants in place: no nil sequences,
// bounded engagement and progress, a known planner status and unique list
// items.
func Normalize(d Data) Data {
	switch v := d.(type) {
	case ListData:
		return ListData(Dedupe(v))
	case CalendarData:
		if v == nil {
			return CalendarData{}
		}
	case *PlannerData:
		v.Guests = Dedupe(v.Guests)
		v.Tasks = Dedupe(v.Tasks)
		if !ValidStatuses[v.Status] {
			v.Status = StatusPlanning
		}
	case *InterestData:
		v.Keywords = Dedupe(v.Keywords)
		v.EngagementLevel = ClampEngagement(v.EngagementLevel)
	case *TrackerData:
		if v.History == nil {
			v.History = []TrackerEntry{}
		}
	case *GoalData:
		if v.Milestones == nil {
			v.Milestones = []Milestone{}
		}
		v.Progress = ClampProgress(v.Progress)
	}
	return d
}

// CloneData returns a deep copy of d.
func CloneData(d Data) Data {
	switch v := d.(type) {
	case ListData:
		return ListData(cloneStrings(v))
	case CalendarData:
		c := make(CalendarData, len(v))
		for k, e := range v {
			c[k] = e
		}
		return c
	case *PlannerData:
		c := *v
		c.Guests = cloneStrings(v.Guests)
		c.Tasks = cloneStrings(v.Tasks)
		if v.Budget != nil {
			b := *v.Budget
			c.Budget = &b
		}
		return &c
	case *InterestData:
		c := *v
		c.Keywords = cloneStrings(v.Keywords)
		c.RelatedTopics = cloneStrings(v.RelatedTopics)
		if v.LastEngagement != nil {
			t := *v.LastEngagement
			c.LastEngagement = &t
		}
		return &c
	case *TrackerData:
		c := *v
		c.History = append([]TrackerEntry(nil), v.History...)
		if v.Target != nil {
			x := *v.Target
			c.Target = &x
		}
		if v.CurrentValue != nil {
			x := *v.CurrentValue
			c.CurrentValue = &x
		}
		return &c
	case *GoalData:
		c := *v
		c.Milestones = append([]Milestone(nil), v.Milestones...)
		for i, ms := range c.Milestones {
			if ms.CompletedAt != nil {
				t := *ms.CompletedAt
				c.Milestones[i].CompletedAt = &t
			}
		}
		return &c
	}
	return d
}

// ClampEngagement bounds an interest engagement level to [1, 10].
func ClampEngagement(v int) int { return clamp(v, MinEngagement, MaxEngagement) }

// ClampProgress bounds goal progress to [0, 100].
func ClampProgress(v int) int { return clamp(v, MinProgress, MaxProgress) }

// Dedupe drops blank and repeated (case-insensitive) entries, keeping the
// first spelling and the original order. It never returns nil.
func Dedupe(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		k := strings.ToLower(strings.TrimSpace(it))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, strings.TrimSpace(it))
	}
	return out
}

// IsNil reports whether d is nil or a nil pointer payload.
func IsNil(d Data) bool {
	switch v := d.(type) {
	case nil:
		return true
	case *PlannerData:
		return v == nil
	case *InterestData:
		return v == nil
	case *TrackerData:
		return v == nil
	case *GoalData:
		return v == nil
	}
	return false
}
