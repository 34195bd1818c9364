// Package modules is the module store facade. A Service ties identity,
// detection, updates and aging together over a caller-owned collection.
//
// A Service never locks and never does I/O. Callers serialize operations on
// one user's collection; different collections are independent.
package modules

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rcliao/agent-modules/internal/detect"
	"github.com/rcliao/agent-modules/internal/lifecycle"
	"github.com/rcliao/agent-modules/internal/logging"
	"github.com/rcliao/agent-modules/internal/model"
	"github.com/rcliao/agent-modules/internal/umid"
	"github.com/rcliao/agent-modules/internal/update"
)

// DuplicateKeyError is returned by Create when the key is already taken.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("module key %q already exists", e.Key)
}

// Service is the facade for one service id.
type Service struct {
	gen      *umid.Generator
	detector *detect.Detector
	policy   lifecycle.Policy
	summary  SummaryOptions
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source for timestamps and identifiers.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPolicy sets the lifecycle thresholds.
func WithPolicy(p lifecycle.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithSummaryOptions sets the Summarize limits.
func WithSummaryOptions(o SummaryOptions) Option {
	return func(s *Service) { s.summary = o }
}

// New returns a Service minting identifiers for serviceID.
func New(serviceID string, opts ...Option) (*Service, error) {
	s := &Service{
		detector: detect.New(),
		policy:   lifecycle.DefaultPolicy(),
		summary:  DefaultSummaryOptions(),
		logger:   logging.Discard(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.policy.Validate(); err != nil {
		return nil, err
	}
	gen, err := umid.NewGenerator(serviceID, umid.WithClock(func() time.Time { return s.now() }))
	if err != nil {
		return nil, err
	}
	s.gen = gen
	return s, nil
}

// ServiceID returns the service id embedded in new identifiers.
func (s *Service) ServiceID() string { return s.gen.Service() }

// Policy returns the lifecycle thresholds in use.
func (s *Service) Policy() lifecycle.Policy { return s.policy }

// Detect proposes actions for query against c. It never fails and never
// mutates c.
func (s *Service) Detect(query string, c model.Collection) detect.Result {
	return s.detector.Detect(query, c)
}

// CreateParams describes a new module.
type CreateParams struct {
	// Key is the collection key. Empty means use the generated identifier.
	Key  string
	Type model.Type
	// Data is the initial payload; nil means the type's default payload.
	Data     model.Data
	Context  model.Context
	Priority int
	// Keywords feed the identifier's context hash. When empty they are
	// taken from Context.Keywords or derived from the query.
	Keywords []string
}

// Create adds a new module to c and returns it.
func (s *Service) Create(c model.Collection, p CreateParams) (*model.Module, error) {
	if !model.ValidTypes[p.Type] {
		return nil, fmt.Errorf("create module: %w %q", model.ErrUnknownType, p.Type)
	}
	if p.Key != "" {
		if _, ok := c[p.Key]; ok {
			return nil, &DuplicateKeyError{Key: p.Key}
		}
	}

	data := p.Data
	if model.IsNil(data) {
		d, err := model.DefaultData(p.Type)
		if err != nil {
			return nil, err
		}
		data = d
	} else if data.ModuleType() != p.Type {
		return nil, fmt.Errorf("create module: %w: %s data for %s module", update.ErrTypeMismatch, data.ModuleType(), p.Type)
	}
	data = model.Normalize(model.CloneData(data))

	keywords := s.keywordsFor(p)
	id, err := s.gen.Generate(string(p.Type), keywords)
	if err != nil {
		return nil, fmt.Errorf("create module: %w", err)
	}
	key := p.Key
	if key == "" {
		key = id
		if _, ok := c[key]; ok {
			return nil, &DuplicateKeyError{Key: key}
		}
	}

	now := s.now().UTC()
	tags := append(detect.ExtractTags(p.Context.Query), firstN(keywords, 3)...)
	m := &model.Module{
		Identifier: id,
		Type:       p.Type,
		Data:       data,
		Metadata: model.Metadata{
			CreatedAt:       now,
			LastUpdated:     now,
			LastAccessed:    now,
			Priority:        model.ClampPriority(p.Priority),
			Tags:            model.Dedupe(tags),
			ContextKeywords: keywords,
		},
	}
	c[key] = m
	s.logger.Debug("module created", "key", key, "type", p.Type, "identifier", id)
	return m, nil
}

// CreateFromSuggestion creates the module a create suggestion proposes.
func (s *Service) CreateFromSuggestion(c model.Collection, sg detect.Suggestion, ctx model.Context) (*model.Module, error) {
	if sg.Action != detect.ActionCreate {
		return nil, fmt.Errorf("suggestion action is %q, not create", sg.Action)
	}
	return s.Create(c, CreateParams{
		Type:     sg.ModuleType,
		Data:     sg.Proposed,
		Context:  ctx,
		Keywords: sg.Keywords,
	})
}

// Update merges p into the module stored under key. A missing key is not an
// error: Update returns (nil, nil) and leaves c unchanged.
func (s *Service) Update(c model.Collection, key string, p update.Patch, ctx model.Context) (*model.Module, error) {
	m, ok := c[key]
	if !ok || m == nil {
		s.logger.Warn("update on missing module", "key", key)
		return nil, nil
	}
	now := s.now().UTC()
	data, err := update.Apply(m, p, ctx, now)
	if err != nil {
		return nil, fmt.Errorf("update module %s: %w", key, err)
	}
	m.Data = data
	m.Metadata.LastUpdated = now
	m.Touch(now)
	s.logger.Debug("module updated", "key", key, "type", m.Type)
	return m, nil
}

// Access marks the module under key as read, which also clears its archived
// flag. It returns nil when the key is absent.
func (s *Service) Access(c model.Collection, key string) *model.Module {
	m, ok := c[key]
	if !ok || m == nil {
		return nil
	}
	wasArchived := m.Metadata.Archived
	m.Touch(s.now().UTC())
	if wasArchived {
		s.logger.Debug("module resurrected", "key", key)
	}
	return m
}

// Apply carries out one suggestion. Update suggestions without a mergeable
// proposal fall back to an access.
func (s *Service) Apply(c model.Collection, sg detect.Suggestion, ctx model.Context) (*model.Module, error) {
	switch sg.Action {
	case detect.ActionCreate:
		return s.CreateFromSuggestion(c, sg, ctx)
	case detect.ActionUpdate:
		if p := update.FromData(sg.Proposed); p != nil {
			return s.Update(c, sg.ModuleKey, p, ctx)
		}
		return s.Access(c, sg.ModuleKey), nil
	case detect.ActionAccess:
		return s.Access(c, sg.ModuleKey), nil
	}
	return nil, fmt.Errorf("unknown suggestion action %q", sg.Action)
}

// Sweep ages c under the service's policy.
func (s *Service) Sweep(c model.Collection, now time.Time) lifecycle.Result {
	res := lifecycle.Sweep(c, now, s.policy)
	s.logger.Info("sweep complete", "archived", len(res.Archived), "removed", len(res.Removed), "remaining", len(c))
	return res
}

// Errors reported by Verify.
var (
	ErrIdentityType = errors.New("identifier type segment does not match module type")
	ErrAccessOrder  = errors.New("lastAccessed is before createdAt")
	ErrOutOfBounds  = errors.New("value out of bounds")
)

// Verify checks the record invariants of m.
func Verify(m *model.Module) error {
	if m == nil {
		return errors.New("nil module")
	}
	if !model.ValidTypes[m.Type] {
		return fmt.Errorf("%w %q", model.ErrUnknownType, m.Type)
	}
	if t, ok := umid.ExtractType(m.Identifier); ok && t != string(m.Type) {
		return fmt.Errorf("%w: %s vs %s", ErrIdentityType, t, m.Type)
	}
	if !m.Metadata.LastAccessed.IsZero() && m.Metadata.LastAccessed.Before(m.Metadata.CreatedAt) {
		return ErrAccessOrder
	}
	if p := m.Metadata.Priority; p < model.MinPriority || p > model.MaxPriority {
		return fmt.Errorf("%w: priority %d", ErrOutOfBounds, p)
	}
	if model.IsNil(m.Data) || m.Data.ModuleType() != m.Type {
		return fmt.Errorf("%w: payload does not match type %s", update.ErrTypeMismatch, m.Type)
	}
	switch d := m.Data.(type) {
	case *model.GoalData:
		if d.Progress != model.ClampProgress(d.Progress) {
			return fmt.Errorf("%w: progress %d", ErrOutOfBounds, d.Progress)
		}
	case *model.InterestData:
		if d.EngagementLevel != model.ClampEngagement(d.EngagementLevel) {
			return fmt.Errorf("%w: engagement %d", ErrOutOfBounds, d.EngagementLevel)
		}
	}
	return nil
}

func (s *Service) keywordsFor(p CreateParams) []string {
	kw := p.Keywords
	if len(kw) == 0 {
		kw = p.Context.Keywords
	}
	if len(kw) == 0 && p.Context.Query != "" {
		kw = detect.ExtractInterest(p.Context.Query).Keywords
	}
	kw = model.Dedupe(kw)
	if len(kw) == 0 {
		kw = []string{string(p.Type)}
	}
	return kw
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
