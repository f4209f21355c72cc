package validation

import "strings"

// blank replaces JavaScript comments, and string literals too when
// withStrings is set, by spaces. Newlines are kept so offsets and line
// numbers still line up with the source.
func blank(src string, withStrings bool) string {
	b := []byte(src)
	out := make([]byte, len(b))
	copy(out, b)
	erase := func(from, to int) {
		for k := from; k < to && k < len(out); k++ {
			if out[k] != '\n' {
				out[k] = ' '
			}
		}
	}
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == '/' && i+1 < len(b) && b[i+1] == '/':
			j := i
			for j < len(b) && b[j] != '\n' {
				j++
			}
			erase(i, j)
			i = j
		case c == '/' && i+1 < len(b) && b[i+1] == '*':
			j := strings.Index(src[i+2:], "*/")
			end := len(b)
			if j >= 0 {
				end = i + 2 + j + 2
			}
			erase(i, end)
			i = end
		case c == '\'' || c == '"' || c == '`':
			j := i + 1
			for j < len(b) && b[j] != c {
				if b[j] == '\\' {
					j++
				} else if b[j] == '\n' && c != '`' {
					break
				}
				j++
			}
			end := j + 1
			if end > len(b) {
				end = len(b)
			}
			if withStrings {
				// keep the quotes so "x" stays a token
				erase(i+1, end-1)
			}
			i = end
		default:
			i++
		}
	}
	return string(out)
}

// lineAt returns the 1-based line of offset off in s, plus base-1.
func lineAt(s string, off, base int) int {
	if off > len(s) {
		off = len(s)
	}
	return base + strings.Count(s[:off], "\n")
}
