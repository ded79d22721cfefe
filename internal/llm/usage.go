package llm

import (
	"encoding/json"

	"github.com/raphaelgruber/textgraph/internal/stream"
	"github.com/tmc/langchaingo/llms"
)

// Providers report token counts in GenerationInfo under different keys.
var (
	promptKeys     = []string{"PromptTokens", "InputTokens", "prompt_tokens", "input_tokens"}
	completionKeys = []string{"CompletionTokens", "OutputTokens", "completion_tokens", "output_tokens"}
	totalKeys      = []string{"TotalTokens", "total_tokens"}
)

// usageFromResponse extracts token usage from the first choice, or nil if
// the provider reported none.
func usageFromResponse(resp *llms.ContentResponse) *stream.Usage {
	if resp == nil || len(resp.Choices) == 0 {
		return nil
	}
	info := resp.Choices[0].GenerationInfo
	u := stream.Usage{
		PromptTokens:     firstInt(info, promptKeys),
		CompletionTokens: firstInt(info, completionKeys),
		TotalTokens:      firstInt(info, totalKeys),
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	if u.TotalTokens == 0 {
		return nil
	}
	return &u
}

func firstInt(info map[string]any, keys []string) int64 {
	for _, k := range keys {
		if n, ok := toInt64(info[k]); ok {
			return n
		}
	}
	return 0
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
