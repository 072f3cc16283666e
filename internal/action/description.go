// Package action defines the core identity and lifecycle types driven by
// the maintenance scheduler: ActionDescription and Action.
package action

import (
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/clusterops/maintenanced/pkg/actionerrors"
)

// NameKey is the reserved description key that selects the plugin factory.
const NameKey = "name"

// Description is an immutable, order-independent key/value identity for an
// action. Two descriptions are the same action iff their key/value sets are
// equal, regardless of the order pairs were supplied in.
type Description struct {
	pairs []Pair
	index map[string]string
	hash  uint64
}

// Pair is a single key/value entry supplied at construction time. Order
// matters only for round-tripping the original input; it has no bearing on
// identity.
type Pair struct {
	Key   string
	Value string
}

// NewDescription builds an immutable Description from an ordered list of
// pairs. Duplicate keys keep the last value, matching map-assignment
// semantics used by every other config surface in this repo.
func NewDescription(pairs ...Pair) *Description {
	index := make(map[string]string, len(pairs))
	ordered := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if _, exists := index[p.Key]; !exists {
			ordered = append(ordered, p)
		} else {
			for i := range ordered {
				if ordered[i].Key == p.Key {
					ordered[i].Value = p.Value
					break
				}
			}
		}
		index[p.Key] = p.Value
	}

	d := &Description{pairs: ordered, index: index}
	d.hash = computeHash(index)
	return d
}

// NewDescriptionFromMap is a convenience constructor for callers that
// already hold a map (e.g. decoded from YAML or JSON). Iteration order of
// the input map is irrelevant to the resulting identity.
func NewDescriptionFromMap(m map[string]string) *Description {
	pairs := make([]Pair, 0, len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pairs = append(pairs, Pair{Key: k, Value: m[k]})
	}
	return NewDescription(pairs...)
}

// Get returns the value for key and whether it was present.
func (d *Description) Get(key string) (string, bool) {
	v, ok := d.index[key]
	return v, ok
}

// Name returns the reserved "name" field, selecting which plugin factory
// will build the Action. It fails fast with CodeBadParameter if absent.
func (d *Description) Name() (string, error) {
	v, ok := d.index[NameKey]
	if !ok || v == "" {
		return "", actionerrors.BadParameter("description is missing required \"name\" field")
	}
	return v, nil
}

// Hash returns the 64-bit order-independent identity hash.
func (d *Description) Hash() uint64 {
	return d.hash
}

// Equals reports whether two descriptions carry the same key/value set.
func (d *Description) Equals(other *Description) bool {
	if d == nil || other == nil {
		return d == other
	}
	if len(d.index) != len(other.index) {
		return false
	}
	for k, v := range d.index {
		if ov, ok := other.index[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Pairs returns a defensive copy of the original ordered pairs, suitable
// for serialization or re-display.
func (d *Description) Pairs() []Pair {
	out := make([]Pair, len(d.pairs))
	copy(out, d.pairs)
	return out
}

// computeHash hashes the key/value set order-independently by hashing each
// "key\x00value\x00" pair separately and combining with XOR, which is
// commutative and therefore insensitive to iteration order.
func computeHash(index map[string]string) uint64 {
	var combined uint64
	for k, v := range index {
		h := xxhash.New()
		_, _ = h.WriteString(k)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(v)
		_, _ = h.WriteString("\x00")
		combined ^= h.Sum64()
	}
	return combined
}
