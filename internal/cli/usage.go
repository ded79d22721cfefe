package cli

import (
	"fmt"
	"io"

	"github.com/raphaelgruber/textgraph/internal/metrics"
)

var opTitles = map[string]string{
	metrics.OpExtraction:  "Extraction",
	metrics.OpSample:      "Sample Graph",
	metrics.OpLLMGenerate: "LLM Generate",
	metrics.OpLLMStream:   "LLM Stream",
	metrics.OpDBQuery:     "DB Query",
}

// printStats displays the call timings and token usage of this process.
func printStats(w io.Writer, snap metrics.Snapshot, t Theme) {
	fmt.Fprintln(w, t.status("Statistics"))
	fmt.Fprintf(w, "═══════════════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", snap.UptimeSeconds)

	for _, name := range snap.Names() {
		title := opTitles[name]
		if title == "" {
			title = name
		}
		op := snap.Operations[name]
		fmt.Fprintf(w, "\n%s:\n", title)
		printOpStats(w, op)
		printTokenStats(w, op)
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Failed: %d, Total: %dms\n", op.Count, op.Failures, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

// printTokenStats displays token statistics if available.
func printTokenStats(w io.Writer, op metrics.OperationSnapshot) {
	if op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Fprintf(w, "  Tokens In:  %d total", *op.TotalInputTokens)
	if op.AvgInputTokens != nil {
		fmt.Fprintf(w, ", avg %.0f", *op.AvgInputTokens)
	}
	if op.MinInputTokens != nil && op.MaxInputTokens != nil {
		fmt.Fprintf(w, ", min %d, max %d", *op.MinInputTokens, *op.MaxInputTokens)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Tokens Out: %d total", *op.TotalOutputTokens)
	if op.AvgOutputTokens != nil {
		fmt.Fprintf(w, ", avg %.0f", *op.AvgOutputTokens)
	}
	if op.MinOutputTokens != nil && op.MaxOutputTokens != nil {
		fmt.Fprintf(w, ", min %d, max %d", *op.MinOutputTokens, *op.MaxOutputTokens)
	}
	fmt.Fprintln(w)
}
