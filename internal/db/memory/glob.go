package memory

// globMatch implements the Redis MATCH subset used by the repositories:
// '*' matches any run of bytes, '?' one byte, and [...] a byte class with
// optional ranges and leading '^' negation.
func globMatch(pattern, s string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if pattern == "" {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if globMatch(pattern, s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if s == "" {
				return false
			}
			pattern, s = pattern[1:], s[1:]
		case '[':
			if s == "" {
				return false
			}
			rest, ok := matchClass(pattern[1:], s[0])
			if !ok {
				return false
			}
			pattern, s = rest, s[1:]
		default:
			if s == "" || pattern[0] != s[0] {
				return false
			}
			pattern, s = pattern[1:], s[1:]
		}
	}
	return s == ""
}

// matchClass matches c against the class body at the start of p (after '[')
// and returns the pattern following the closing ']'.
func matchClass(p string, c byte) (string, bool) {
	negate := false
	if p != "" && p[0] == '^' {
		negate, p = true, p[1:]
	}
	matched := false
	first := true
	for p != "" && (p[0] != ']' || first) {
		first = false
		lo := p[0]
		if len(p) >= 3 && p[1] == '-' && p[2] != ']' {
			if lo <= c && c <= p[2] {
				matched = true
			}
			p = p[3:]
			continue
		}
		if lo == c {
			matched = true
		}
		p = p[1:]
	}
	if p == "" {
		return "", false
	}
	return p[1:], matched != negate
}
