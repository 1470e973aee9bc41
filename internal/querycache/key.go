package querycache

import (
	"sort"
	"strings"
)

// Key identifies one logical read. Two keys built from the same family and the
// same argument set compare equal regardless of argument order.
type Key struct {
	family string
	args   []string // sorted "name=value" pairs
}

// NewKey builds a key from a family name and name=value argument pairs.
func NewKey(family string, args ...string) Key {
	sorted := make([]string, len(args))
	copy(sorted, args)
	sort.Strings(sorted)
	return Key{family: family, args: sorted}
}

// Family returns the key's family name.
func (k Key) Family() string { return k.family }

// String returns the canonical form used for storage and fetch deduplication.
func (k Key) String() string {
	if len(k.args) == 0 {
		return k.family
	}
	return k.family + "?" + strings.Join(k.args, "&")
}

// parseKey rebuilds a key from its canonical string form.
func parseKey(s string) Key {
	family, rest, ok := strings.Cut(s, "?")
	if !ok {
		return Key{family: s}
	}
	return Key{family: family, args: strings.Split(rest, "&")}
}

// Selector matches a family of keys: every key with the selector's family name
// whose arguments include all of the selector's arguments. A selector with no
// arguments matches the whole family, so one invalidation call covers every
// page and filter combination of a read.
type Selector struct {
	family string
	args   []string
}

// Family builds a selector for a key family, optionally narrowed by
// name=value argument pairs.
func Family(family string, args ...string) Selector {
	sorted := make([]string, len(args))
	copy(sorted, args)
	sort.Strings(sorted)
	return Selector{family: family, args: sorted}
}

// Matches reports whether k belongs to the selector's family.
func (s Selector) Matches(k Key) bool {
	if s.family != k.family {
		return false
	}
	for _, want := range s.args {
		found := false
		for _, have := range k.args {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s Selector) String() string {
	if len(s.args) == 0 {
		return s.family
	}
	return s.family + "?" + strings.Join(s.args, "&")
}
