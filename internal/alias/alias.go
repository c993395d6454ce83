// Package alias resolves stable logical filenames (such as default.epub) to
// a physical file chosen once at startup.
package alias

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/dreschagin/reader-server/internal/assets"
)

// Strategy records how an alias target was chosen.
type Strategy string

const (
	StrategyFixed Strategy = "fixed"
	StrategyGlob  Strategy = "glob"
	StrategyNone  Strategy = "none"
)

// Rule describes one alias: prefer Fixed, else the first lexical match of Pattern.
type Rule struct {
	Name    string
	Fixed   string
	Pattern string
}

// Entry is the resolved form of a Rule.
type Entry struct {
	Name     string
	Target   string
	Strategy Strategy
}

// Map is immutable after Build and safe for concurrent lookups.
type Map struct {
	entries map[string]Entry
	builtAt time.Time
}

// Build evaluates every rule against root exactly once. Candidates that do
// not confine to the root or are not regular files are skipped.
func Build(root *assets.Root, rules ...Rule) (*Map, error) {
	resolver := assets.NewResolver(root)
	m := &Map{entries: make(map[string]Entry, len(rules))}

	for _, rule := range rules {
		if err := rule.validate(); err != nil {
			return nil, err
		}
		if _, dup := m.entries[rule.Name]; dup {
			return nil, fmt.Errorf("alias %q defined twice", rule.Name)
		}

		entry, err := resolve(root, resolver, rule)
		if err != nil {
			return nil, err
		}
		m.entries[rule.Name] = entry
	}

	m.builtAt = time.Now().UTC()
	return m, nil
}

func resolve(root *assets.Root, resolver *assets.Resolver, rule Rule) (Entry, error) {
	entry := Entry{Name: rule.Name, Strategy: StrategyNone}

	if rule.Fixed != "" {
		if _, err := resolver.Resolve(rule.Fixed); err == nil {
			entry.Target = rule.Fixed
			entry.Strategy = StrategyFixed
			return entry, nil
		}
	}

	if rule.Pattern == "" {
		return entry, nil
	}

	matches, err := fs.Glob(root.FS(), rule.Pattern)
	if err != nil {
		return Entry{}, fmt.Errorf("alias %q: glob %q: %w", rule.Name, rule.Pattern, err)
	}
	slices.Sort(matches)

	for _, match := range matches {
		if _, err := resolver.Resolve(match); err != nil {
			continue
		}
		entry.Target = match
		entry.Strategy = StrategyGlob
		return entry, nil
	}

	return entry, nil
}

func (r Rule) validate() error {
	if r.Name == "" {
		return fmt.Errorf("alias name is empty")
	}
	if strings.ContainsAny(r.Name, `/\`) {
		return fmt.Errorf("alias %q must not contain path separators", r.Name)
	}
	if r.Pattern != "" {
		if _, err := path.Match(r.Pattern, ""); err != nil {
			return fmt.Errorf("alias %q: invalid pattern %q: %w", r.Name, r.Pattern, err)
		}
	}
	return nil
}

// Lookup reports whether name is an alias and, if so, its target. The
// target is empty when the alias could not be resolved at startup.
func (m *Map) Lookup(name string) (string, bool) {
	entry, ok := m.entries[name]
	if !ok {
		return "", false
	}
	return entry.Target, true
}

// Entries returns the resolved aliases ordered by name.
func (m *Map) Entries() []Entry {
	out := make([]Entry, 0, len(m.entries))
	for _, entry := range m.entries {
		out = append(out, entry)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func (m *Map) BuiltAt() time.Time {
	return m.builtAt
}
