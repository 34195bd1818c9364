// Package umid generates and parses universal module identifiers.
//
// A UMID has five dot-separated fields:
//
//	{service}.{moduleType}.{contextHash}.{timestamp}.{random}
//	agent-modules.list.a1b2c3d4.1721737200.x7z9
//
// The context hash groups identifiers minted from the same keyword set. It is
// a clustering aid, not a security property; the random suffix only avoids
// collisions within the same second.
package umid

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Pattern is the full-identifier grammar. Other services can validate a UMID
// with this expression alone.
const Pattern = `^([a-z0-9-]{3,20})\.([a-z]{1,20})\.([a-f0-9]{8})\.(\d{10})\.([a-z0-9]{4})$`

const (
	hashLen        = 8
	randomLen      = 4
	randomAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	defaultKeyword = "default"
)

var (
	umidRegex    = regexp.MustCompile(Pattern)
	serviceRegex = regexp.MustCompile(`^[a-z0-9-]{3,20}$`)
	typeRegex    = regexp.MustCompile(`^[a-z]{1,20}$`)
)

var (
	// ErrInvalidService is returned when a generator is built for a malformed service id.
	ErrInvalidService = errors.New("invalid service id")
	// ErrInvalidModuleType is returned when a module type cannot appear in a UMID.
	ErrInvalidModuleType = errors.New("invalid module type")
)

// ValidService reports whether s is 3-20 chars of [a-z0-9-].
func ValidService(s string) bool { return serviceRegex.MatchString(s) }

// ValidModuleType reports whether s is 1-20 lowercase letters.
func ValidModuleType(s string) bool { return typeRegex.MatchString(s) }

// Generator mints identifiers for one service. It holds no mutable state and
// is safe for concurrent use.
type Generator struct {
	service string
	now     func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the time source used for the timestamp field.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator returns a generator for service.
func NewGenerator(service string, opts ...Option) (*Generator, error) {
	if !ValidService(service) {
		return nil, fmt.Errorf("%w %q: must be 3-20 chars of lowercase letters, digits or hyphens", ErrInvalidService, service)
	}
	g := &Generator{service: service, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// Service returns the service id embedded in generated identifiers.
func (g *Generator) Service() string { return g.service }

// Generate returns a new identifier for a module of moduleType described by keywords.
func (g *Generator) Generate(moduleType string, keywords []string) (string, error) {
	if !ValidModuleType(moduleType) {
		return "", fmt.Errorf("%w %q: must be 1-20 lowercase letters", ErrInvalidModuleType, moduleType)
	}
	ts := g.now().Unix()
	if ts < 0 || ts > 9999999999 {
		return "", fmt.Errorf("timestamp %d does not fit in 10 digits", ts)
	}
	return fmt.Sprintf("%s.%s.%s.%010d.%s", g.service, moduleType, ContextHash(keywords), ts, randomSuffix()), nil
}

// Request describes one identifier in a batch.
type Request struct {
	ModuleType string   `json:"type"`
	Keywords   []string `json:"keywords"`
}

// GenerateBatch generates one identifier per request, failing on the first
// invalid module type.
func (g *Generator) GenerateBatch(reqs []Request) ([]string, error) {
	ids := make([]string, 0, len(reqs))
	for i, r := range reqs {
		id, err := g.Generate(r.ModuleType, r.Keywords)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ContextHash returns the first 8 hex chars of the SHA-256 of the normalized
// keyword set: trimmed, lowercased, blanks dropped, sorted and space-joined.
// An empty set hashes as the single keyword "default".
func ContextHash(keywords []string) string {
	norm := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			norm = append(norm, k)
		}
	}
	if len(norm) == 0 {
		norm = append(norm, defaultKeyword)
	}
	sort.Strings(norm)
	sum := sha256.Sum256([]byte(strings.Join(norm, " ")))
	return hex.EncodeToString(sum[:])[:hashLen]
}

func randomSuffix() string {
	b := make([]byte, randomLen)
	for i := range b {
		b[i] = randomAlphabet[rand.Intn(len(randomAlphabet))]
	}
	return string(b)
}

// Parsed holds the decoded fields of an identifier.
type Parsed struct {
	Service     string    `json:"service"`
	ModuleType  string    `json:"moduleType"`
	ContextHash string    `json:"contextHash"`
	Timestamp   int64     `json:"timestamp"`
	CreatedAt   time.Time `json:"createdAt"`
	Random      string    `json:"random"`
	Full        string    `json:"full"`
}

// ISOTime returns CreatedAt in RFC 3339.
func (p Parsed) ISOTime() string { return p.CreatedAt.Format(time.RFC3339) }

// Parse decodes s. It reports false for anything that does not match Pattern;
// foreign and legacy identifiers are expected, so this is not an error.
func Parse(s string) (Parsed, bool) {
	m := umidRegex.FindStringSubmatch(s)
	if m == nil {
		return Parsed{}, false
	}
	ts, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return Parsed{}, false
	}
	return Parsed{
		Service:     m[1],
		ModuleType:  m[2],
		ContextHash: m[3],
		Timestamp:   ts,
		CreatedAt:   time.Unix(ts, 0).UTC(),
		Random:      m[5],
		Full:        s,
	}, true
}

// Validate reports whether s is a well-formed identifier.
func Validate(s string) bool { return umidRegex.MatchString(s) }

// ExtractService returns the service field of s.
func ExtractService(s string) (string, bool) {
	p, ok := Parse(s)
	return p.Service, ok
}

// ExtractType returns the module type field of s.
func ExtractType(s string) (string, bool) {
	p, ok := Parse(s)
	return p.ModuleType, ok
}

// ExtractTimestamp returns the creation time encoded in s.
func ExtractTimestamp(s string) (time.Time, bool) {
	p, ok := Parse(s)
	return p.CreatedAt, ok
}
