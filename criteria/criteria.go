// Package criteria implements the multi-clause matching predicate used
// by every batch tool. A Criteria is a set of optional clauses (age,
// last access, size range, metadata, filename pattern) combined with
// ALL or ANY semantics. Clauses that are not configured are skipped;
// a Criteria with zero configured clauses is rejected at construction.
package criteria

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/happyfish100/fdfs-batch/model"
)

// Mode selects how configured clauses are combined.
type Mode int

const (
	// ModeAll matches when every configured clause holds.
	ModeAll Mode = iota
	// ModeAny matches when at least one configured clause holds.
	ModeAny
)

func (m Mode) String() string {
	if m == ModeAny {
		return "any"
	}
	return "all"
}

// Config describes which clauses are configured. Zero values mean
// "clause not configured".
type Config struct {
	Mode Mode

	// MinAge matches objects created at least this long ago.
	MinAge time.Duration
	// MinIdle matches objects not accessed for at least this long.
	// Falls back to creation time when the cluster has no access hint.
	MinIdle time.Duration
	// MinSize/MaxSize bound the object size inclusively; a zero bound
	// means no bound on that side. The clause is configured when
	// either bound is set.
	MinSize int64
	MaxSize int64
	// MetaKey/MetaValue match a metadata entry. Key comparison is
	// case-insensitive; value comparison is exact unless MetaSubstring
	// is set.
	MetaKey       string
	MetaValue     string
	MetaSubstring bool
	// NamePattern is a shell glob applied to the last path segment of
	// the identifier only.
	NamePattern string
}

// Criteria is an immutable compiled predicate.
type Criteria struct {
	cfg Config
	now func() time.Time
}

// New compiles cfg into a Criteria. It fails when no clause is
// configured or when the name pattern is malformed.
func New(cfg Config) (*Criteria, error) {
	if cfg.MinAge < 0 || cfg.MinIdle < 0 {
		return nil, fmt.Errorf("age and idle thresholds must be >= 0")
	}
	if cfg.MinSize < 0 || cfg.MaxSize < 0 {
		return nil, fmt.Errorf("size bounds must be >= 0")
	}
	if cfg.MinSize > 0 && cfg.MaxSize > 0 && cfg.MinSize > cfg.MaxSize {
		return nil, fmt.Errorf("min size %d exceeds max size %d", cfg.MinSize, cfg.MaxSize)
	}
	if cfg.NamePattern != "" {
		if _, err := path.Match(cfg.NamePattern, "probe"); err != nil {
			return nil, fmt.Errorf("invalid name pattern %q: %w", cfg.NamePattern, err)
		}
	}
	c := &Criteria{cfg: cfg, now: time.Now}
	if len(c.clauses()) == 0 {
		return nil, fmt.Errorf("criteria has no configured clauses")
	}
	return c, nil
}

// WithClock returns a copy evaluating age and idle clauses against the
// given clock. Used by tests; production code keeps time.Now.
func (c *Criteria) WithClock(now func() time.Time) *Criteria {
	return &Criteria{cfg: c.cfg, now: now}
}

// Mode reports the configured combinator.
func (c *Criteria) Mode() Mode { return c.cfg.Mode }

// NeedsMetadata reports whether evaluation requires the metadata map,
// so callers can skip the extra fetch when it does not.
func (c *Criteria) NeedsMetadata() bool { return c.cfg.MetaKey != "" }

// clause is one configured check. Evaluation order is fixed: age,
// last access, size, metadata, pattern.
type clause struct {
	name string
	eval func(id string, attrs *model.Attributes) (bool, string)
}

func (c *Criteria) clauses() []clause {
	var out []clause
	if c.cfg.MinAge > 0 {
		out = append(out, clause{name: "age", eval: c.evalAge})
	}
	if c.cfg.MinIdle > 0 {
		out = append(out, clause{name: "last-access", eval: c.evalIdle})
	}
	if c.cfg.MinSize > 0 || c.cfg.MaxSize > 0 {
		out = append(out, clause{name: "size", eval: c.evalSize})
	}
	if c.cfg.MetaKey != "" {
		out = append(out, clause{name: "metadata", eval: c.evalMeta})
	}
	if c.cfg.NamePattern != "" {
		out = append(out, clause{name: "pattern", eval: c.evalPattern})
	}
	return out
}

// Evaluate runs every configured clause against the item and returns
// whether it matched plus a human-readable reason. ALL mode is true
// iff every configured clause holds; the reason concatenates the
// satisfied clause descriptions. ANY mode is true iff at least one
// clause holds; the reason is the first matching clause's description
// in declaration order.
func (c *Criteria) Evaluate(id string, attrs *model.Attributes) (bool, string) {
	var satisfied []string
	allHold := true

	for _, cl := range c.clauses() {
		ok, desc := cl.eval(id, attrs)
		if ok {
			satisfied = append(satisfied, desc)
			if c.cfg.Mode == ModeAny {
				return true, desc
			}
		} else {
			allHold = false
		}
	}

	if c.cfg.Mode == ModeAny {
		return false, ""
	}
	if !allHold {
		return false, ""
	}
	return true, strings.Join(satisfied, "; ")
}

func (c *Criteria) evalAge(id string, attrs *model.Attributes) (bool, string) {
	age := c.now().Sub(attrs.CreatedAt)
	if age >= c.cfg.MinAge {
		return true, fmt.Sprintf("age %s >= %s", age.Round(time.Second), c.cfg.MinAge)
	}
	return false, ""
}

func (c *Criteria) evalIdle(id string, attrs *model.Attributes) (bool, string) {
	// No access hint: fall back to creation time rather than failing
	// the clause.
	last := attrs.LastAccessedAt
	if last.IsZero() {
		last = attrs.CreatedAt
	}
	idle := c.now().Sub(last)
	if idle >= c.cfg.MinIdle {
		return true, fmt.Sprintf("idle %s >= %s", idle.Round(time.Second), c.cfg.MinIdle)
	}
	return false, ""
}

func (c *Criteria) evalSize(id string, attrs *model.Attributes) (bool, string) {
	// Bounds are inclusive; a zero bound is open on that side.
	if c.cfg.MinSize > 0 && attrs.Size < c.cfg.MinSize {
		return false, ""
	}
	if c.cfg.MaxSize > 0 && attrs.Size > c.cfg.MaxSize {
		return false, ""
	}
	return true, fmt.Sprintf("size %d in [%d, %d]", attrs.Size, c.cfg.MinSize, c.cfg.MaxSize)
}

func (c *Criteria) evalMeta(id string, attrs *model.Attributes) (bool, string) {
	for k, v := range attrs.Metadata {
		if !strings.EqualFold(k, c.cfg.MetaKey) {
			continue
		}
		if c.cfg.MetaSubstring {
			if strings.Contains(v, c.cfg.MetaValue) {
				return true, fmt.Sprintf("metadata %s contains %q", k, c.cfg.MetaValue)
			}
		} else if v == c.cfg.MetaValue {
			return true, fmt.Sprintf("metadata %s = %q", k, v)
		}
	}
	return false, ""
}

func (c *Criteria) evalPattern(id string, attrs *model.Attributes) (bool, string) {
	// Glob applies to the last path segment only, never the full
	// identifier.
	base := id
	if i := strings.LastIndex(id, "/"); i >= 0 {
		base = id[i+1:]
	}
	ok, err := path.Match(c.cfg.NamePattern, base)
	if err != nil {
		// Pattern was validated in New; treat a failure here as no
		// match.
		return false, ""
	}
	if ok {
		return true, fmt.Sprintf("name %q matches %q", base, c.cfg.NamePattern)
	}
	return false, ""
}
