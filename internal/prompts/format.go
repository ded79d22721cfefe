package prompts

import (
	"fmt"
	"strings"
)

// Format replaces {name} placeholders in tmpl with values from subs.
// Unknown names become MissingValue. {{ and }} produce literal braces;
// any other lone brace is an error.
func Format(tmpl string, subs map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("unmatched '{' at offset %d", i)
			}
			key := tmpl[i+1 : i+1+end]
			if strings.ContainsRune(key, '{') {
				return "", fmt.Errorf("unexpected '{' in field name at offset %d", i)
			}
			if v, ok := subs[key]; ok {
				b.WriteString(v)
			} else {
				b.WriteString(MissingValue)
			}
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("single '}' at offset %d", i)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
