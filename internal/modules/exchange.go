package modules

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/rcliao/agent-modules/internal/model"
	"github.com/rcliao/agent-modules/internal/umid"
)

// ByType returns the keys of modules of type t, sorted.
func ByType(c model.Collection, t model.Type) []string {
	keys := []string{}
	for _, key := range c.Keys() {
		if m := c[key]; m != nil && m.Type == t {
			keys = append(keys, key)
		}
	}
	return keys
}

// ByService returns the keys of modules whose identifier was minted by
// service, sorted. Modules with unparseable identifiers are left out.
func ByService(c model.Collection, service string) []string {
	keys := []string{}
	for _, key := range c.Keys() {
		m := c[key]
		if m == nil {
			continue
		}
		if svc, ok := umid.ExtractService(m.Identifier); ok && svc == service {
			keys = append(keys, key)
		}
	}
	return keys
}

// Envelope is the cross-service transfer format.
type Envelope struct {
	ID            string                   `json:"id" yaml:"id"`
	SourceService string                   `json:"sourceService" yaml:"sourceService"`
	TargetService string                   `json:"targetService" yaml:"targetService"`
	ExportedAt    time.Time                `json:"exportedAt" yaml:"exportedAt"`
	Modules       map[string]*model.Module `json:"modules" yaml:"modules"`
}

// Export packs the modules this service minted into an envelope addressed
// to target. Modules from other services, or with malformed identifiers,
// stay behind.
func (s *Service) Export(c model.Collection, target string) (*Envelope, error) {
	if !umid.ValidService(target) {
		return nil, fmt.Errorf("export: %w %q", umid.ErrInvalidService, target)
	}
	env := &Envelope{
		ID:            uuid.NewString(),
		SourceService: s.ServiceID(),
		TargetService: target,
		ExportedAt:    s.now().UTC(),
		Modules:       make(map[string]*model.Module),
	}
	own := ByService(c, s.ServiceID())
	for _, key := range own {
		env.Modules[key] = c[key].Clone()
	}
	if skipped := len(c) - len(own); skipped > 0 {
		s.logger.Debug("export skipped foreign modules", "count", skipped, "target", target)
	}
	return env, nil
}

// Skipped names a module that Import left out and why.
type Skipped struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// ImportResult reports what Import did.
type ImportResult struct {
	Imported []string  `json:"imported"`
	Skipped  []Skipped `json:"skipped"`
}

// Import adds the envelope's modules to c. Modules with an invalid
// identifier, a broken invariant or a key already in c are skipped.
func (s *Service) Import(c model.Collection, env *Envelope) ImportResult {
	res := ImportResult{Imported: []string{}, Skipped: []Skipped{}}
	if env == nil {
		return res
	}
	in := model.Collection(env.Modules)
	for _, key := range in.Keys() {
		m := in[key]
		switch {
		case m == nil:
			res.Skipped = append(res.Skipped, Skipped{key, "empty record"})
		case !umid.Validate(m.Identifier):
			res.Skipped = append(res.Skipped, Skipped{key, "invalid identifier"})
		case c[key] != nil:
			res.Skipped = append(res.Skipped, Skipped{key, "key exists"})
		default:
			if err := Verify(m); err != nil {
				res.Skipped = append(res.Skipped, Skipped{key, err.Error()})
				continue
			}
			c[key] = m.Clone()
			res.Imported = append(res.Imported, key)
		}
	}
	s.logger.Debug("import complete", "source", env.SourceService, "imported", len(res.Imported), "skipped", len(res.Skipped))
	return res
}

// MigrationResult reports a legacy-key migration.
type MigrationResult struct {
	Total    int               `json:"total"`
	Migrated int               `json:"migrated"`
	Skipped  int               `json:"skipped"`
	Mapping  map[string]string `json:"mapping"`
}

const maxLegacyKeywords = 5

// MigrateLegacy rekeys every module whose key is not an identifier. A module
// that already carries a valid identifier is moved under it; otherwise a new
// one is minted from keywords found in its data, tags and old key. The old
// key is kept in metadata.migratedFrom.
func (s *Service) MigrateLegacy(c model.Collection) (MigrationResult, error) {
	res := MigrationResult{Total: len(c), Mapping: map[string]string{}}
	for _, key := range c.Keys() {
		m := c[key]
		if m == nil || umid.Validate(key) {
			res.Skipped++
			continue
		}
		id := m.Identifier
		if !umid.Validate(id) || c[id] != nil {
			var err error
			id, err = s.gen.Generate(string(m.Type), legacyKeywords(key, m))
			if err != nil {
				return res, fmt.Errorf("migrate %s: %w", key, err)
			}
		}
		delete(c, key)
		m.Identifier = id
		m.Metadata.MigratedFrom = key
		c[id] = m
		res.Mapping[key] = id
		res.Migrated++
	}
	if res.Migrated > 0 {
		s.logger.Info("legacy modules migrated", "migrated", res.Migrated, "skipped", res.Skipped)
	}
	return res, nil
}

func legacyKeywords(key string, m *model.Module) []string {
	var src []string
	switch d := m.Data.(type) {
	case *model.GoalData:
		if d != nil {
			src = append(src, d.Title, d.Description)
		}
	case *model.TrackerData:
		if d != nil && d.Metric != model.UnknownMetric {
			src = append(src, d.Metric)
		}
	case *model.InterestData:
		if d != nil {
			src = append(src, d.Keywords...)
		}
	case *model.PlannerData:
		if d != nil {
			src = append(src, d.Location)
		}
	}
	src = append(src, m.Metadata.Tags...)
	src = append(src, key)

	var words []string
	for _, s := range src {
		words = append(words, strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
			return !unicode.IsLetter(r)
		})...)
	}
	words = model.Dedupe(words)
	if len(words) == 0 {
		return []string{"module"}
	}
	return firstN(words, maxLegacyKeywords)
}
