package matching

import (
	"fmt"
	"regexp"
	"strings"
)

// paramName validates the identifier of a :name path parameter. The name
// doubles as a regexp capture group name, so it is restricted to what Go
// group names allow.
var paramName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CompileLiteral compiles a literal route URL into an anchored regular
// expression. Each :name segment becomes a named capture group matching
// exactly one path segment:
//
//	/users/:id/posts/:postId  ->  ^/users/(?P<id>[^/]+)/posts/(?P<postId>[^/]+)$
//
// All other characters match literally.
func CompileLiteral(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty URL pattern")
	}

	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if len(seg) > 1 && seg[0] == ':' {
			name := seg[1:]
			if !paramName.MatchString(name) {
				return nil, fmt.Errorf("invalid path parameter name %q", seg)
			}
			segments[i] = "(?P<" + name + ">[^/]+)"
			continue
		}
		segments[i] = regexp.QuoteMeta(seg)
	}

	return regexp.Compile("^" + strings.Join(segments, "/") + "$")
}

// CompileRegex compiles a regular-expression route URL as given. The
// pattern is tested against the path-only portion of the request URL
// (query already stripped) and is deliberately not anchored; authors
// control anchoring themselves.
func CompileRegex(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty URL pattern")
	}
	return regexp.Compile(pattern)
}

// MatchPath tests a request path against a compiled route pattern. On a
// match it binds named capture groups to their values; a pattern without
// named groups yields an empty, non-nil map.
func MatchPath(re *regexp.Regexp, path string) (map[string]string, bool) {
	match := re.FindStringSubmatch(path)
	if match == nil {
		return nil, false
	}

	params := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i > 0 && name != "" && i < len(match) {
			params[name] = match[i]
		}
	}
	return params, true
}
