package parser

// ExtractObjects returns every top-level balanced {...} span of s in order.
// Braces inside JSON string literals do not count. If an opening brace is
// never closed, scanning resumes right after it so a stray brace in prose does
// not swallow the objects that follow.
func ExtractObjects(s string) []string {
	var out []string

	for len(s) > 0 {
		depth, start := 0, -1
		inString, escaped := false, false

		for i := 0; i < len(s); i++ {
			c := s[i]
			if depth == 0 {
				if c == '{' {
					depth, start = 1, i
				}
				continue
			}
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					out = append(out, s[start:i+1])
				}
			}
		}

		if depth == 0 {
			break
		}
		s = s[start+1:]
	}
	return out
}
