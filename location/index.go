// Package location implements LocationIndex, the immutable path abstraction
// the actor tree uses to correlate sibling vertex emissions across nested
// scopes.
package location

import (
	"fmt"
	"strings"
)

// Segment is one path element of a LocationIndex: either a string key
// (descending into a named field) or an integer index (descending into a
// list element).
type Segment struct {
	Key   string
	Index int
	isKey bool
}

// Key builds a string-keyed segment.
func Key(k string) Segment { return Segment{Key: k, isKey: true} }

// Idx builds an integer-indexed segment.
func Idx(i int) Segment { return Segment{Index: i, isKey: false} }

// IsKey reports whether the segment is a string key rather than a list index.
func (s Segment) IsKey() bool { return s.isKey }

func (s Segment) String() string {
	if s.isKey {
		return s.Key
	}
	return fmt.Sprintf("%d", s.Index)
}

func (s Segment) equal(o Segment) bool {
	return s.isKey == o.isKey && s.Key == o.Key && s.Index == o.Index
}

// Index is an immutable tuple of path segments from the record root to the
// current actor's sub-document. Two VertexReps produced at congruent
// location-indices are treated as siblings sharing the same enclosing
// record scope, which is what makes them eligible for edge joining.
type Index struct {
	segments []Segment
}

// Root is the empty location, the record's own top level.
func Root() Index { return Index{} }

// New builds a location-index from a fixed list of segments.
func New(segs ...Segment) Index {
	cp := make([]Segment, len(segs))
	copy(cp, segs)
	return Index{segments: cp}
}

// Extend returns a new location-index with seg appended. The receiver is
// never mutated.
func (l Index) Extend(seg Segment) Index {
	next := make([]Segment, len(l.segments)+1)
	copy(next, l.segments)
	next[len(l.segments)] = seg
	return Index{segments: next}
}

// Depth is the number of segments in the path.
func (l Index) Depth() int { return len(l.segments) }

// Len is an alias for Depth, matching the original's __len__.
func (l Index) Len() int { return l.Depth() }

// At returns the segment at position i.
func (l Index) At(i int) Segment { return l.segments[i] }

// Parent returns the location with its last segment removed. Calling
// Parent on the root returns the root.
func (l Index) Parent() Index {
	if len(l.segments) == 0 {
		return l
	}
	return Index{segments: l.segments[:len(l.segments)-1]}
}

// CongruenceMeasure counts the number of equal leading segments shared
// between l and o — the core primitive the ancestor-scoped edge join is
// built on.
func (l Index) CongruenceMeasure(o Index) int {
	n := len(l.segments)
	if len(o.segments) < n {
		n = len(o.segments)
	}
	i := 0
	for i < n && l.segments[i].equal(o.segments[i]) {
		i++
	}
	return i
}

// Equal reports whether l and o are the same path. Index embeds a slice, so
// it is not comparable with ==; callers needing equality must use this.
func (l Index) Equal(o Index) bool {
	if len(l.segments) != len(o.segments) {
		return false
	}
	for i := range l.segments {
		if !l.segments[i].equal(o.segments[i]) {
			return false
		}
	}
	return true
}

// IsPrefixOf reports whether l is a prefix of (or equal to) o.
func (l Index) IsPrefixOf(o Index) bool {
	if len(l.segments) > len(o.segments) {
		return false
	}
	return l.CongruenceMeasure(o) == len(l.segments)
}

// Filter returns true if candidate is a descendant of (or equal to) l —
// i.e. l is a prefix of candidate. Used to restrict VertexRep lookups to a
// sub-tree rooted at a given location.
func (l Index) Filter(candidate Index) bool {
	return l.IsPrefixOf(candidate)
}

// Contains reports whether seg appears anywhere in the path.
func (l Index) Contains(seg Segment) bool {
	for _, s := range l.segments {
		if s.equal(seg) {
			return true
		}
	}
	return false
}

// Less defines a deterministic total order (shallower first, then
// lexicographic by rendered segment) usable as a tie-break when a stable
// ordering over locations is needed.
func (l Index) Less(o Index) bool {
	if len(l.segments) != len(o.segments) {
		return len(l.segments) < len(o.segments)
	}
	return l.String() < o.String()
}

// String renders the location as a dotted path, e.g. "0.referenced_works.3".
func (l Index) String() string {
	parts := make([]string, len(l.segments))
	for i, s := range l.segments {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Segments returns a defensive copy of the underlying path.
func (l Index) Segments() []Segment {
	cp := make([]Segment, len(l.segments))
	copy(cp, l.segments)
	return cp
}

// LastKeySegment returns the string key of the last segment and true, or
// ("", false) if the path is empty or its last segment is a list index.
// Used by relation-from-key edge resolution (spec §4.1 rule 6).
func (l Index) LastKeySegment() (string, bool) {
	if len(l.segments) == 0 {
		return "", false
	}
	last := l.segments[len(l.segments)-1]
	if !last.isKey {
		return "", false
	}
	return last.Key, true
}

// NearestKeySegment scans backward from the end of the path and returns the
// first string-key segment found, skipping any trailing list indices. A
// vertex emitted inside a list under a named key (e.g. "dependencies",
// "depends", 5) has that key as its last segment only up to the list index;
// NearestKeySegment recovers "depends" in that case. Used by relation-from-
// key edge resolution to label a pair by the key a target was found under,
// even when the target itself sits at a list element (spec §4.1 rule 6).
func (l Index) NearestKeySegment() (string, bool) {
	for i := len(l.segments) - 1; i >= 0; i-- {
		if l.segments[i].isKey {
			return l.segments[i].Key, true
		}
	}
	return "", false
}
