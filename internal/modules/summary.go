package modules

import (
	"sort"
	"time"

	"github.com/rcliao/agent-modules/internal/model"
)

// SummaryOptions bounds the lists in a Summary.
type SummaryOptions struct {
	TopActive    int
	RecentWindow time.Duration
	RecentLimit  int
}

// DefaultSummaryOptions returns the top-10 / last-week / 5 defaults.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{TopActive: 10, RecentWindow: 7 * 24 * time.Hour, RecentLimit: 5}
}

// Entry is a compact view of one module.
type Entry struct {
	Key          string     `json:"key"`
	Identifier   string     `json:"identifier"`
	Type         model.Type `json:"type"`
	Priority     int        `json:"priority"`
	LastAccessed time.Time  `json:"lastAccessed"`
	LastUpdated  time.Time  `json:"lastUpdated"`
}

// Summary describes the active part of a collection.
type Summary struct {
	Total           int                `json:"total"`
	TotalActive     int                `json:"totalActive"`
	Archived        int                `json:"archived"`
	CountsByType    map[model.Type]int `json:"countsByType"`
	TopActive       []Entry            `json:"topActive"`
	RecentlyUpdated []Entry            `json:"recentlyUpdated"`
}

// Summarize reports counts and the most important active modules of c.
// Top modules are ordered by priority, then by last access. Recently updated
// modules are those updated within the recent window, newest first.
func (s *Service) Summarize(c model.Collection) Summary {
	now := s.now().UTC()
	sum := Summary{
		Total:           len(c),
		CountsByType:    make(map[model.Type]int, len(model.Types)),
		TopActive:       []Entry{},
		RecentlyUpdated: []Entry{},
	}
	for _, t := range model.Types {
		sum.CountsByType[t] = 0
	}

	var active []Entry
	for _, key := range c.Keys() {
		m := c[key]
		if m == nil {
			continue
		}
		if m.Metadata.Archived {
			sum.Archived++
			continue
		}
		sum.CountsByType[m.Type]++
		active = append(active, Entry{
			Key:          key,
			Identifier:   m.Identifier,
			Type:         m.Type,
			Priority:     m.Metadata.Priority,
			LastAccessed: m.LastSeen(),
			LastUpdated:  m.Metadata.LastUpdated,
		})
	}
	sum.TotalActive = c.ActiveCount()

	top := append([]Entry(nil), active...)
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Priority != top[j].Priority {
			return top[i].Priority > top[j].Priority
		}
		return top[i].LastAccessed.After(top[j].LastAccessed)
	})
	sum.TopActive = append(sum.TopActive, limit(top, s.summary.TopActive)...)

	var recent []Entry
	for _, e := range active {
		if now.Sub(e.LastUpdated) <= s.summary.RecentWindow {
			recent = append(recent, e)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].LastUpdated.After(recent[j].LastUpdated)
	})
	sum.RecentlyUpdated = append(sum.RecentlyUpdated, limit(recent, s.summary.RecentLimit)...)
	return sum
}

func limit(e []Entry, n int) []Entry {
	if n > 0 && len(e) > n {
		return e[:n]
	}
	return e
}
