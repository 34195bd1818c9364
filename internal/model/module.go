// Package model defines the module record types shared by every layer.
package model

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// Type is the module kind. It is fixed at creation.
type Type string

const (
	TypeList     Type = "list"
	TypePlanner  Type = "planner"
	TypeCalendar Type = "calendar"
	TypeInterest Type = "interest"
	TypeTracker  Type = "tracker"
	TypeGoal     Type = "goal"
)

// Types lists every module type in display order.
var Types = []Type{TypeList, TypePlanner, TypeCalendar, TypeInterest, TypeTracker, TypeGoal}

// ValidTypes are the allowed module types.
var ValidTypes = map[Type]bool{
	TypeList:     true,
	TypePlanner:  true,
	TypeCalendar: true,
	TypeInterest: true,
	TypeTracker:  true,
	TypeGoal:     true,
}

// ErrUnknownType is returned for a type outside ValidTypes.
var ErrUnknownType = errors.New("unknown module type")

// ParseType validates s as a module type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !ValidTypes[t] {
		return "", fmt.Errorf("%w %q (valid: list, planner, calendar, interest, tracker, goal)", ErrUnknownType, s)
	}
	return t, nil
}

const (
	DefaultPriority = 5
	MinPriority     = 1
	MaxPriority     = 10
)

// Metadata is the envelope shared by all module types.
type Metadata struct {
	CreatedAt       time.Time `json:"createdAt"`
	LastUpdated     time.Time `json:"lastUpdated"`
	LastAccessed    time.Time `json:"lastAccessed"`
	Priority        int       `json:"priority"`
	Tags            []string  `json:"tags"`
	Archived        bool      `json:"archived"`
	ContextKeywords []string  `json:"contextKeywords,omitempty"`
	MigratedFrom    string    `json:"migratedFrom,omitempty"`
}

// Module is a typed knowledge record tracked for one user.
type Module struct {
	Identifier string   `json:"identifier"`
	Type       Type     `json:"type"`
	Data       Data     `json:"data"`
	Metadata   Metadata `json:"metadata"`
}

// UnmarshalJSON decodes the data payload according to the type field.
func (m *Module) UnmarshalJSON(b []byte) error {
	var aux struct {
		Identifier string          `json:"identifier"`
		Type       Type            `json:"type"`
		Data       json.RawMessage `json:"data"`
		Metadata   Metadata        `json:"metadata"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	data, err := DecodeData(aux.Type, aux.Data)
	if err != nil {
		return err
	}
	m.Identifier = aux.Identifier
	m.Type = aux.Type
	m.Data = data
	m.Metadata = aux.Metadata
	return nil
}

// Clone returns a deep copy of m.
func (m *Module) Clone() *Module {
	c := *m
	c.Data = CloneData(m.Data)
	c.Metadata.Tags = cloneStrings(m.Metadata.Tags)
	c.Metadata.ContextKeywords = cloneStrings(m.Metadata.ContextKeywords)
	return &c
}

// LastSeen returns the access time used for aging, falling back to the
// update and creation times for records that were never accessed.
func (m *Module) LastSeen() time.Time {
	switch {
	case !m.Metadata.LastAccessed.IsZero():
		return m.Metadata.LastAccessed
	case !m.Metadata.LastUpdated.IsZero():
		return m.Metadata.LastUpdated
	default:
		return m.Metadata.CreatedAt
	}
}

// Touch marks the module accessed at now and clears the archived flag.
func (m *Module) Touch(now time.Time) {
	if now.Before(m.Metadata.CreatedAt) {
		now = m.Metadata.CreatedAt
	}
	m.Metadata.LastAccessed = now
	m.Metadata.Archived = false
}

// Collection is one user's modules keyed by module key.
type Collection map[string]*Module

// Keys returns the collection keys in sorted order.
func (c Collection) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ActiveCount returns the number of non-archived modules.
func (c Collection) ActiveCount() int {
	n := 0
	for _, m := range c {
		if m != nil && !m.Metadata.Archived {
			n++
		}
	}
	return n
}

// Context carries the free-text query that triggered an operation.
// All fields are optional.
type Context struct {
	Query     string   `json:"query,omitempty"`
	QueryType string   `json:"queryType,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
}

// ClampPriority bounds p to [MinPriority, MaxPriority]; zero means default.
func ClampPriority(p int) int {
	if p == 0 {
		return DefaultPriority
	}
	return clamp(p, MinPriority, MaxPriority)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
