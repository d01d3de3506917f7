// Package exclude decides whether a path relative to the input root is
// excluded by any of a set of glob patterns.
//
// Patterns use shell filename-glob semantics applied to the whole path string:
//
//   - "*" matches any run of characters, including "/"
//   - "?" matches exactly one character
//   - "[abc]", "[a-z]" match one character from a class; "[!abc]" negates it
//   - an unterminated "[" is matched literally
//
// There is no special recursive meaning for "**": it is two "*" wildcards,
// which already cross directory separators. Matching is case-sensitive.
package exclude

// Matches reports whether rel, a forward-slash path relative to the input
// root, matches any of patterns.
func Matches(rel string, patterns []string) bool {
	for _, p := range patterns {
		if Match(p, rel) {
			return true
		}
	}
	return false
}

// Match reports whether name matches the glob pattern.
func Match(pattern, name string) bool {
	p := []rune(pattern)
	s := []rune(name)

	pi, si := 0, 0
	// Position to resume from after the most recent "*": the pattern index
	// just past the star and the name index the star currently extends to.
	starP, starS := -1, 0

	for si < len(s) {
		if pi < len(p) {
			switch p[pi] {
			case '*':
				for pi < len(p) && p[pi] == '*' {
					pi++
				}
				if pi == len(p) {
					return true
				}
				starP, starS = pi, si
				continue
			case '?':
				pi++
				si++
				continue
			case '[':
				if ok, next, valid := matchClass(p, pi, s[si]); valid {
					if ok {
						pi = next
						si++
						continue
					}
					break
				}
				// Unterminated class: literal '['.
				if s[si] == '[' {
					pi++
					si++
					continue
				}
			default:
				if p[pi] == s[si] {
					pi++
					si++
					continue
				}
			}
		}

		if starP < 0 {
			return false
		}
		// Let the last star absorb one more character and retry.
		starS++
		pi, si = starP, starS
	}

	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}

// matchClass evaluates the bracket expression starting at p[start] == '['
// against c. valid is false when the expression has no closing ']'.
func matchClass(p []rune, start int, c rune) (matched bool, next int, valid bool) {
	i := start + 1
	negate := false
	if i < len(p) && p[i] == '!' {
		negate = true
		i++
	}

	first := true
	for i < len(p) {
		if p[i] == ']' && !first {
			return matched != negate, i + 1, true
		}
		first = false

		lo := p[i]
		if i+2 < len(p) && p[i+1] == '-' && p[i+2] != ']' {
			hi := p[i+2]
			if lo <= c && c <= hi {
				matched = true
			}
			i += 3
			continue
		}
		if lo == c {
			matched = true
		}
		i++
	}
	return false, 0, false
}
