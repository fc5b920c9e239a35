// Package regions maps Russian region names onto federal districts.
//
// The membership table is a data asset (regions.yml, embedded) so district
// changes never touch the tree-selection logic.
package regions

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed regions.yml
var embedded []byte

type District struct {
	Name    string   `yaml:"name" json:"name"`
	Short   string   `yaml:"short" json:"short"`
	Abbr    string   `yaml:"abbr" json:"abbr"`
	Regions []string `yaml:"regions" json:"regions"`
}

type file struct {
	DefaultDistrict string            `yaml:"default_district"`
	Districts       []District        `yaml:"districts"`
	Aliases         map[string]string `yaml:"aliases"`
}

// Table is an immutable region lookup. Safe for concurrent use.
type Table struct {
	defaultDistrict string
	districts       []District
	byRegion        map[string]string // normalized region -> district
	canonical       map[string]string // normalized region/alias -> table spelling
	byDistrict      map[string]string // normalized district name or variant -> district
}

// Group is one district with the requested regions that fall into it.
type Group struct {
	District string   `json:"district"`
	Regions  []string `json:"regions"`
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the embedded table.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(bytes.NewReader(embedded))
		if err != nil {
			panic(fmt.Sprintf("regions: embedded table invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Load parses and checks a region table.
func Load(r io.Reader) (*Table, error) {
	var f file
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode region table: %w", err)
	}
	if len(f.Districts) == 0 {
		return nil, errors.New("region table has no districts")
	}

	t := &Table{
		defaultDistrict: strings.TrimSpace(f.DefaultDistrict),
		districts:       f.Districts,
		byRegion:        make(map[string]string),
		canonical:       make(map[string]string),
		byDistrict:      make(map[string]string),
	}

	for _, d := range f.Districts {
		if strings.TrimSpace(d.Name) == "" {
			return nil, errors.New("district with empty name")
		}
		for _, v := range []string{d.Name, d.Short, d.Abbr} {
			if v = norm(v); v != "" {
				t.byDistrict[v] = d.Name
			}
		}
		for _, r := range d.Regions {
			k := norm(r)
			if k == "" {
				continue
			}
			if prev, ok := t.byRegion[k]; ok && prev != d.Name {
				return nil, fmt.Errorf("region %q listed in both %q and %q", r, prev, d.Name)
			}
			t.byRegion[k] = d.Name
			t.canonical[k] = r
		}
	}

	for alias, target := range f.Aliases {
		k := norm(target)
		if _, ok := t.byRegion[k]; !ok {
			return nil, fmt.Errorf("alias %q points at unknown region %q", alias, target)
		}
		t.canonical[norm(alias)] = t.canonical[k]
	}

	if t.defaultDistrict == "" {
		t.defaultDistrict = f.Districts[0].Name
	}
	if _, ok := t.byDistrict[norm(t.defaultDistrict)]; !ok {
		return nil, fmt.Errorf("default district %q is not in the table", t.defaultDistrict)
	}
	return t, nil
}

func (t *Table) DefaultDistrict() string { return t.defaultDistrict }

// Districts returns the districts in table order.
func (t *Table) Districts() []District {
	out := make([]District, len(t.districts))
	copy(out, t.districts)
	return out
}

// IsDistrict reports whether name is a district name or one of its variants.
func (t *Table) IsDistrict(name string) bool {
	_, ok := t.byDistrict[norm(name)]
	return ok
}

// Known reports whether name is a district or matches a region of the table.
// Unknown names are still searched, under the default district.
func (t *Table) Known(name string) bool {
	if t.IsDistrict(name) {
		return true
	}
	_, ok := t.lookupRegion(name)
	return ok
}

// Canonical returns the table spelling of a region name, or the trimmed input
// when nothing matches.
func (t *Table) Canonical(name string) string {
	if c, ok := t.lookupRegion(name); ok {
		return c
	}
	return strings.TrimSpace(name)
}

// Resolve maps a region (or district) name to its federal district.
// District names resolve to themselves; unknown names resolve to the default.
func (t *Table) Resolve(name string) string {
	if d, ok := t.byDistrict[norm(name)]; ok {
		return d
	}
	if c, ok := t.lookupRegion(name); ok {
		return t.byRegion[norm(c)]
	}
	return t.defaultDistrict
}

// Variants lists the labels a district may carry in the tree widget, most
// specific first.
func (t *Table) Variants(district string) []string {
	name, ok := t.byDistrict[norm(district)]
	if !ok {
		return []string{strings.TrimSpace(district)}
	}
	for _, d := range t.districts {
		if d.Name != name {
			continue
		}
		out := []string{d.Name}
		if d.Short != "" {
			out = append(out, d.Short)
		}
		if d.Abbr != "" {
			out = append(out, d.Abbr)
		}
		return out
	}
	return []string{name}
}

// GroupByDistrict partitions the input: every distinct input region lands in
// exactly one district group.
func (t *Table) GroupByDistrict(regions []string) map[string][]string {
	out := make(map[string][]string)
	for _, g := range t.Groups(regions) {
		out[g.District] = g.Regions
	}
	return out
}

// Groups is GroupByDistrict ordered by table order, with input order kept
// inside each group.
func (t *Table) Groups(regions []string) []Group {
	byDistrict := make(map[string][]string)
	seen := make(map[string]bool)
	for _, r := range regions {
		r = strings.TrimSpace(r)
		if r == "" || seen[norm(r)] {
			continue
		}
		seen[norm(r)] = true
		d := t.Resolve(r)
		byDistrict[d] = append(byDistrict[d], r)
	}

	var out []Group
	for _, d := range t.districts {
		if rs, ok := byDistrict[d.Name]; ok {
			out = append(out, Group{District: d.Name, Regions: rs})
		}
	}
	return out
}

// AllRegions lists every region of the table in table order.
func (t *Table) AllRegions() []string {
	var out []string
	for _, d := range t.districts {
		out = append(out, d.Regions...)
	}
	return out
}

func (t *Table) lookupRegion(name string) (string, bool) {
	k := norm(name)
	if k == "" {
		return "", false
	}
	if c, ok := t.canonical[k]; ok {
		return c, true
	}

	// "Калмыкия" -> "Республика Калмыкия": accept a unique whole-word match.
	var found string
	for rk, c := range t.canonical {
		if _, isRegion := t.byRegion[rk]; !isRegion {
			continue
		}
		if containsWord(rk, k) {
			if found != "" && found != c {
				return "", false
			}
			found = c
		}
	}
	return found, found != ""
}

func containsWord(haystack, needle string) bool {
	for _, w := range strings.FieldsFunc(haystack, func(r rune) bool {
		return r == ' ' || r == '(' || r == ')'
	}) {
		if w == needle {
			return true
		}
	}
	return strings.HasPrefix(haystack, needle+" ") || strings.HasSuffix(haystack, " "+needle) ||
		strings.Contains(haystack, " "+needle+" ")
}

func norm(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.ReplaceAll(s, "ё", "е")
}
