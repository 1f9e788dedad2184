package sku

// MaxScan bounds how far BalancedJSON walks from the opening bracket.
const MaxScan = 50000

// BalancedJSON returns the first complete [...] or {...} structure starting at
// start, after optional whitespace. Brackets inside double-quoted strings,
// including escaped quotes, are ignored. Only the opening bracket kind is
// counted. It reports false when the text at start is not an opening bracket or
// the structure does not close within MaxScan bytes.
func BalancedJSON(text string, start int) (string, bool) {
	if start < 0 {
		return "", false
	}

	i := start
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	if i >= len(text) {
		return "", false
	}

	open := text[i]
	var closer byte
	switch open {
	case '[':
		closer = ']'
	case '{':
		closer = '}'
	default:
		return "", false
	}

	limit := min(len(text), i+MaxScan)
	depth := 0
	inString := false
	escaped := false

	for j := i; j < limit; j++ {
		c := text[j]
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
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return text[i : j+1], true
			}
		}
	}

	return "", false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
