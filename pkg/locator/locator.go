// Package locator models a cross-platform UI element as ordered lists of
// backend locator strings and resolves the best one for the active platform.
package locator

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Platform identifies the automation backend a locator targets.
// The empty string means the platform is not yet known (no session).
type Platform string

// Platform values
const (
	Android Platform = "android"
	IOS     Platform = "ios"
)

// Known returns true if the platform has been established.
func (p Platform) Known() bool {
	return p == Android || p == IOS
}

// Buckets carries locator candidates per platform bucket, each in
// canonical string form. In YAML a bucket may be a single string or a
// list of strings.
type Buckets struct {
	Android   []string `yaml:"android"`
	IOS       []string `yaml:"ios"`
	Universal []string `yaml:"universal"`
}

// bucketsRaw mirrors Buckets with scalar-or-list fields for parsing.
type bucketsRaw struct {
	Android   stringList `yaml:"android"`
	IOS       stringList `yaml:"ios"`
	Universal stringList `yaml:"universal"`
}

// stringList unmarshals from a YAML scalar or sequence.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*l = []string{node.Value}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*l = list
	return nil
}

// UnmarshalYAML allows each bucket to be written as a string or a list.
func (b *Buckets) UnmarshalYAML(node *yaml.Node) error {
	var raw bucketsRaw
	if err := node.Decode(&raw); err != nil {
		return err
	}
	b.Android = raw.Android
	b.IOS = raw.IOS
	b.Universal = raw.Universal
	return nil
}

// Element represents one logical UI target. Locators are stored in
// canonical form, platform-specific candidates tried before universal
// ones, insertion order preserved within each bucket.
type Element struct {
	android   []string
	ios       []string
	universal []string
}

// New creates an Element from canonical locator buckets.
func New(b Buckets) *Element {
	e := &Element{}
	e.android = append(e.android, b.Android...)
	e.ios = append(e.ios, b.IOS...)
	e.universal = append(e.universal, b.Universal...)
	return e
}

// AddFallbacks appends candidates to the existing buckets. Entries are
// never replaced or reordered. Returns the element for chaining.
func (e *Element) AddFallbacks(b Buckets) *Element {
	e.android = append(e.android, b.Android...)
	e.ios = append(e.ios, b.IOS...)
	e.universal = append(e.universal, b.Universal...)
	return e
}

// ResolveBest returns the first locator for the platform: the head of
// the platform bucket, else the head of the universal bucket. With an
// unknown platform it falls back android, then ios, then universal.
// ok is false when no bucket has a candidate.
func (e *Element) ResolveBest(p Platform) (locator string, ok bool) {
	if !p.Known() {
		for _, bucket := range [][]string{e.android, e.ios, e.universal} {
			if len(bucket) > 0 {
				return bucket[0], true
			}
		}
		return "", false
	}
	if all := e.ResolveAll(p); len(all) > 0 {
		return all[0], true
	}
	return "", false
}

// ResolveAll returns the full candidate order for the platform: the
// platform bucket followed by the universal bucket. With an unknown
// platform only the universal bucket applies.
func (e *Element) ResolveAll(p Platform) []string {
	var all []string
	switch p {
	case Android:
		all = append(all, e.android...)
	case IOS:
		all = append(all, e.ios...)
	}
	all = append(all, e.universal...)
	return all
}

// IsEmpty returns true if no bucket has a candidate.
func (e *Element) IsEmpty() bool {
	return len(e.android) == 0 && len(e.ios) == 0 && len(e.universal) == 0
}

// Describe returns a human-readable description for logs.
func (e *Element) Describe() string {
	if loc, ok := e.ResolveBest(""); ok {
		return loc
	}
	return "<no locator>"
}

// String implements fmt.Stringer.
func (e *Element) String() string {
	return fmt.Sprintf("Element(android=%d ios=%d universal=%d)",
		len(e.android), len(e.ios), len(e.universal))
}
