package rest

import (
	"net/url"
	"strings"
)

// URLPathEscape escapes URL path the in string using URL escaping rules
//
// The result is always a relative path, even when the first segment
// contains a ":".
func URLPathEscape(in string) string {
	u := url.URL{Path: "/" + in}
	return u.EscapedPath()[1:]
}

// ConcatPath joins base and p with exactly one "/" between them,
// leaving any trailing "/" of p alone.
func ConcatPath(base, p string) string {
	if p == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(p, "/")
}
