// Package lifecycle ages module collections: stale modules are archived,
// and archived modules that stay untouched are removed.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/rcliao/agent-modules/internal/model"
)

// Default aging thresholds.
const (
	DefaultArchiveAfter = 30 * 24 * time.Hour
	DefaultRemoveAfter  = 90 * 24 * time.Hour
)

// Policy holds the aging thresholds. Both are measured from the module's
// last access. Priority does not extend them.
type Policy struct {
	ArchiveAfter time.Duration
	RemoveAfter  time.Duration
}

// DefaultPolicy returns the 30/90 day policy.
func DefaultPolicy() Policy {
	return Policy{ArchiveAfter: DefaultArchiveAfter, RemoveAfter: DefaultRemoveAfter}
}

// Validate checks that the thresholds are positive and ordered.
func (p Policy) Validate() error {
	if p.ArchiveAfter <= 0 || p.RemoveAfter <= 0 {
		return fmt.Errorf("lifecycle thresholds must be positive (archive %s, remove %s)", p.ArchiveAfter, p.RemoveAfter)
	}
	if p.RemoveAfter < p.ArchiveAfter {
		return fmt.Errorf("remove threshold %s is shorter than archive threshold %s", p.RemoveAfter, p.ArchiveAfter)
	}
	return nil
}

// Result reports the keys transitioned by one sweep, in key order.
type Result struct {
	Archived []string `json:"archived"`
	Removed  []string `json:"removed"`
}

// Empty reports whether the sweep changed nothing.
func (r Result) Empty() bool {
	return len(r.Archived) == 0 && len(r.Removed) == 0
}

// Sweep archives active modules idle longer than ArchiveAfter and deletes
// archived modules idle longer than RemoveAfter. A module idle past both
// thresholds is archived and removed in the same call, so a second sweep at
// the same now changes nothing. Nil entries are dropped silently.
func Sweep(c model.Collection, now time.Time, p Policy) Result {
	res := Due(c, now, p)
	for _, key := range res.Archived {
		c[key].Metadata.Archived = true
	}
	for _, key := range res.Removed {
		delete(c, key)
	}
	for key, m := range c {
		if m == nil {
			delete(c, key)
		}
	}
	return res
}

// Due reports what Sweep would do at now without changing c. A module
// removed straight from the active state is listed under both Archived and
// Removed.
func Due(c model.Collection, now time.Time, p Policy) Result {
	res := Result{Archived: []string{}, Removed: []string{}}
	for _, key := range c.Keys() {
		m := c[key]
		if m == nil {
			continue
		}
		idle := now.Sub(m.LastSeen())
		archived := m.Metadata.Archived
		if !archived && idle > p.ArchiveAfter {
			res.Archived = append(res.Archived, key)
			archived = true
		}
		if archived && idle > p.RemoveAfter {
			res.Removed = append(res.Removed, key)
		}
	}
	return res
}
