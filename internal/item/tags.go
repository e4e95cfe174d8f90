package item

import (
	"encoding/json"
	"sort"
	"strings"
)

// Tag is a dotted hierarchical state tag such as "Status.Armed.Sword".
type Tag string

// MatchesTag reports whether t equals q or is a descendant of q
// ("Status.Armed.Sword" matches "Status.Armed").
func (t Tag) MatchesTag(q Tag) bool {
	if t == q {
		return true
	}
	return strings.HasPrefix(string(t), string(q)+".")
}

// TagSet is an unordered set of tags. The nil TagSet is empty and usable for
// reads; use NewTagSet or Add on a non-nil set for writes.
type TagSet map[Tag]struct{}

// NewTagSet builds a set from the given tags, skipping empty ones.
func NewTagSet(tags ...Tag) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		if t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

func (s TagSet) Len() int { return len(s) }

// Has reports exact membership.
func (s TagSet) Has(t Tag) bool {
	_, ok := s[t]
	return ok
}

// Matches reports whether any tag in s matches q hierarchically.
func (s TagSet) Matches(q Tag) bool {
	if _, ok := s[q]; ok {
		return true
	}
	for t := range s {
		if t.MatchesTag(q) {
			return true
		}
	}
	return false
}

// HasAll reports whether every tag of other is matched by s. An empty other
// is always satisfied.
func (s TagSet) HasAll(other TagSet) bool {
	for q := range other {
		if !s.Matches(q) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one tag of other is matched by s. An empty
// other never matches.
func (s TagSet) HasAny(other TagSet) bool {
	for q := range other {
		if s.Matches(q) {
			return true
		}
	}
	return false
}

// Add inserts tags into s.
func (s TagSet) Add(tags ...Tag) {
	for _, t := range tags {
		if t != "" {
			s[t] = struct{}{}
		}
	}
}

// Clone returns an independent copy. Cloning a nil set yields an empty set.
func (s TagSet) Clone() TagSet {
	out := make(TagSet, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	return out
}

// Slice returns the tags sorted lexically.
func (s TagSet) Slice() []Tag {
	out := make([]Tag, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *TagSet) UnmarshalJSON(data []byte) error {
	var tags []Tag
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*s = NewTagSet(tags...)
	return nil
}

// UnmarshalYAML decodes a YAML sequence of tag strings.
func (s *TagSet) UnmarshalYAML(unmarshal func(any) error) error {
	var tags []Tag
	if err := unmarshal(&tags); err != nil {
		return err
	}
	*s = NewTagSet(tags...)
	return nil
}
