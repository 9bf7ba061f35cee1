package query

import "strings"

// keySep cannot appear in ids or slugs, so joined keys never collide.
const keySep = "\x1f"

// Key identifies a cached read: the entity name followed by the parameters
// that select it, e.g. Key{"enrollments", userID}.
type Key []string

// K builds a Key from its parts.
func K(parts ...string) Key {
	return Key(parts)
}

func (k Key) String() string {
	return strings.Join(k, keySep)
}

// Entity is the first element, used as the metrics label.
func (k Key) Entity() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// HasPrefix reports whether p is an element-wise prefix of k.
// Key{"enrollments"} matches every per-user enrollments key.
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}

// Contains reports whether any element of k equals part.
func (k Key) Contains(part string) bool {
	for _, s := range k {
		if s == part {
			return true
		}
	}
	return false
}
