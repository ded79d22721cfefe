package llm

import (
	"regexp"
	"strings"
)

// codeBlockRe matches a fenced markdown block, optionally tagged json.
var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?[ \\t]*\\n?(.*?)\\n?[ \\t]*```")

// CleanJSON strips a surrounding markdown code fence and whitespace from a
// model response. Text without a fence is only trimmed.
func CleanJSON(raw string) string {
	if m := codeBlockRe.FindStringSubmatch(raw); len(m) > 1 {
		raw = m[1]
	}
	return strings.TrimSpace(raw)
}
