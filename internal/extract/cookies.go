package extract

import "strings"

// CookieNames returns the names of the cookies in a Set-Cookie header value.
//
// The name=value pair of a cookie runs up to the first ';' and is never
// split, so a comma inside a value cannot introduce a name. Servers and
// proxies sometimes fold several cookies into one header line; a folded
// cookie is recognized only after a comma in the attribute section, and only
// when the following segment looks like name=value (an '=' before any ';'
// and no whitespace in the name). Commas inside Expires dates therefore stay
// attributes. Cookie values and attributes are discarded.
func CookieNames(header string) []string {
	var names []string
	for header != "" {
		pair, attrs := splitPair(header)
		if name, ok := cookieName(pair); ok {
			names = append(names, name)
		}
		header = nextFoldedCookie(attrs)
	}
	return names
}

// splitPair splits a cookie into its name=value pair and the attribute
// section. A ';' inside a double-quoted value does not end the pair.
func splitPair(cookie string) (pair, attrs string) {
	start := 0
	if eq := strings.IndexByte(cookie, '='); eq >= 0 {
		value := cookie[eq+1:]
		trimmed := strings.TrimLeft(value, " \t")
		if strings.HasPrefix(trimmed, `"`) {
			open := eq + 1 + len(value) - len(trimmed)
			if end := strings.IndexByte(cookie[open+1:], '"'); end >= 0 {
				start = open + 1 + end + 1
			}
		}
	}
	i := strings.IndexByte(cookie[start:], ';')
	if i < 0 {
		return cookie, ""
	}
	return cookie[:start+i], cookie[start+i+1:]
}

// nextFoldedCookie returns the remainder of attrs starting at the next
// folded cookie, or "" if there is none.
func nextFoldedCookie(attrs string) string {
	for {
		i := strings.IndexByte(attrs, ',')
		if i < 0 {
			return ""
		}
		attrs = attrs[i+1:]
		if _, ok := cookieName(attrs); ok {
			return attrs
		}
	}
}

// cookieName returns the cookie name if segment starts a cookie.
func cookieName(segment string) (string, bool) {
	segment = strings.TrimSpace(segment)
	eq := strings.IndexByte(segment, '=')
	if eq <= 0 {
		return "", false
	}
	if semi := strings.IndexByte(segment, ';'); semi >= 0 && semi < eq {
		return "", false
	}
	name := strings.TrimSpace(segment[:eq])
	if name == "" || strings.ContainsAny(name, " \t,") {
		return "", false
	}
	return name, true
}
