package loader

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Match reports whether the slash-separated name matches pattern, using
// doublestar syntax ("**" spans directories). A lower-case pattern also
// matches upper-case names, so "*.sql" matches "Orders.SQL".
func Match(pattern, name string) bool {
	pattern = strings.Trim(pattern, "/")
	name = strings.Trim(name, "/")
	if ok, err := doublestar.Match(pattern, name); err == nil && ok {
		return true
	}
	if pattern == strings.ToLower(pattern) {
		ok, err := doublestar.Match(pattern, strings.ToLower(name))
		return err == nil && ok
	}
	return false
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if Match(p, name) {
			return true
		}
	}
	return false
}
