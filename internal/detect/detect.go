// Package detect proposes module actions for a free-text query.
//
// Detection is table driven: per-type keyword tables and data-term
// extractors feed a scoring fold over the caller's modules, and a phrase
// table proposes new modules. Nothing here mutates its inputs.
package detect

import (
	"math"
	"sort"

	"github.com/rcliao/agent-modules/internal/model"
)

// Action is the kind of change a suggestion proposes.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionAccess Action = "access"
)

// Suggestion is one proposed action with its confidence in [0, 1].
type Suggestion struct {
	Action     Action     `json:"action"`
	ModuleKey  string     `json:"moduleKey,omitempty"`
	ModuleType model.Type `json:"moduleType,omitempty"`
	Confidence float64    `json:"confidence"`
	// Signals names the heuristics that fired, strongest first.
	Signals []string `json:"signals,omitempty"`
	// Keywords and Proposed are set on create suggestions, and Proposed on
	// list updates whose items could be extracted.
	Keywords []string   `json:"keywords,omitempty"`
	Proposed model.Data `json:"proposed,omitempty"`
}

// Result is the outcome of one detection pass.
type Result struct {
	RelevantModules []string     `json:"relevantModules"`
	Suggestions     []Suggestion `json:"suggestions"`
}

// Detector scores queries against module collections. The zero value is not
// usable; call New.
type Detector struct {
	rules         map[model.Type]typeRule
	opportunities []opportunity
}

// New returns a detector using the built-in tables.
func New() *Detector {
	return &Detector{rules: typeRules, opportunities: opportunities}
}

type signal struct {
	name   string
	weight float64
}

// Detect scores query against every non-archived module in c and scans it
// for new-module phrases. It never fails: an empty or unusable query yields
// an empty result.
func (d *Detector) Detect(query string, c model.Collection) Result {
	res := Result{RelevantModules: []string{}, Suggestions: []Suggestion{}}
	q := normalize(query)
	if q.empty() {
		return res
	}

	_, wantsUpdate := q.any(updateVerbs)
	_, editsList := q.any(listEditVerbs)

	for _, key := range c.Keys() {
		m := c[key]
		if m == nil || m.Metadata.Archived {
			continue
		}
		signals := d.score(q, key, m)
		if len(signals) == 0 {
			continue
		}
		s := Suggestion{
			Action:     ActionAccess,
			ModuleKey:  key,
			ModuleType: m.Type,
			Confidence: fold(signals),
			Signals:    names(signals),
		}
		if wantsUpdate {
			s.Action = ActionUpdate
			if m.Type == model.TypeList && editsList {
				if items := ExtractListItems(query); len(items) > 0 {
					s.Proposed = model.ListData(items)
				}
			}
		}
		res.RelevantModules = append(res.RelevantModules, key)
		res.Suggestions = append(res.Suggestions, s)
	}

	for _, o := range d.opportunities {
		if _, ok := q.any(o.phrases); !ok {
			continue
		}
		kw, data := o.propose(query)
		res.Suggestions = append(res.Suggestions, Suggestion{
			Action:     ActionCreate,
			ModuleType: o.moduleType,
			Confidence: o.confidence,
			Signals:    []string{"phrase"},
			Keywords:   model.Dedupe(kw),
			Proposed:   data,
		})
	}

	sort.SliceStable(res.Suggestions, func(i, j int) bool {
		return res.Suggestions[i].Confidence > res.Suggestions[j].Confidence
	})
	return res
}

// Relevant reports whether query touches module m stored under key.
func (d *Detector) Relevant(query, key string, m *model.Module) bool {
	return len(d.score(normalize(query), key, m)) > 0
}

func (d *Detector) score(q text, key string, m *model.Module) []signal {
	var out []signal
	if q.has(key) {
		out = append(out, signal{"key", WeightKeyMention})
	}

	rule := d.rules[m.Type]
	if _, ok := q.any(rule.verbs); ok {
		out = append(out, signal{"verb", WeightTypeVerb})
	}
	if _, ok := q.any(rule.keywords); ok {
		out = append(out, signal{"keyword", WeightTypeKeyword})
	}
	if rule.terms != nil && m.Data != nil {
		if _, ok := q.any(rule.terms(m.Data)); ok {
			out = append(out, signal{"data", WeightDataMatch})
		}
	}
	if _, ok := q.any(m.Metadata.Tags); ok {
		out = append(out, signal{"tag", WeightTagMatch})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].weight > out[j].weight })
	return out
}

// fold sums signal weights, capped at 1 and rounded to two places.
func fold(signals []signal) float64 {
	var sum float64
	for _, s := range signals {
		sum += s.weight
	}
	return math.Round(math.Min(sum, 1)*100) / 100
}

func names(signals []signal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.name
	}
	return out
}
