package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raphaelgruber/textgraph/internal/models"
	"github.com/spf13/cobra"
)

var extractFile string

// ErrRunFailed is returned after a failed report has been printed.
var ErrRunFailed = errors.New("run failed")

var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Extract a knowledge graph from text",
	Long: `Extract a knowledge graph from text and store it, replacing the current graph.

The text is taken from the arguments, from --file, or from stdin.
Nodes stored before a later stage fails stay in the graph.

Examples:
  textgraph extract "Alice met Bob at the office."
  textgraph extract --file chapter1.txt
  cat notes.txt | textgraph extract --json`,
	RunE: runExtract,
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Replace the graph with a small sample dataset",
	Long: `Replace the graph with a fixed sample from Alice in Wonderland.

No model calls are made, so this checks database connectivity and output
rendering on their own.`,
	Args: cobra.NoArgs,
	RunE: runSample,
}

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "read text from file ('-' for stdin)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := readInput(args, extractFile, os.Stdin)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	extractor, err := newExtractor(ctx, true)
	if err != nil {
		return err
	}
	return outputReport(cmd.OutOrStdout(), extractor.ExtractGraph(ctx, text))
}

func runSample(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	extractor, err := newExtractor(ctx, false)
	if err != nil {
		return err
	}
	return outputReport(cmd.OutOrStdout(), extractor.ExtractSampleGraph(ctx))
}

// readInput picks the text from args, a file, or stdin, in that order.
func readInput(args []string, file string, stdin io.Reader) (string, error) {
	var text string
	switch {
	case len(args) > 0:
		text = strings.Join(args, " ")
	case file == "-" || (file == "" && stdin != nil && !isTerminal(stdin)):
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no input text: pass it as an argument, with --file, or on stdin")
	}
	return text, nil
}

func outputReport(w io.Writer, report models.ExtractionReport) error {
	var err error
	if wantJSON(w) {
		err = printJSON(w, report)
	} else {
		printReport(w, report, newTheme(w))
	}
	if err != nil {
		return err
	}
	if !report.Status.Success {
		return ErrRunFailed
	}
	return nil
}

// printReport renders a report for humans.
func printReport(w io.Writer, report models.ExtractionReport, t Theme) {
	if !report.Status.Success {
		fmt.Fprintf(w, "%s %s\n", t.failure("✗"), report.Status.Message)
		return
	}

	fmt.Fprintf(w, "%s %s\n", t.success("✓"), report.Status.Message)
	meta := report.Metadata
	if meta == nil || report.GraphData == nil {
		return
	}
	fmt.Fprintln(w, t.hint(fmt.Sprintf("run %s, format %s", meta.RunID, meta.Version)))

	names := make(map[string]string, len(report.GraphData.Nodes))
	fmt.Fprintf(w, "\n%s (%d): %s\n", t.status("Nodes"), meta.NodeCount, strings.Join(meta.NodeTypes, ", "))
	for _, n := range report.GraphData.Nodes {
		names[n.ID] = n.Name()
		fmt.Fprintf(w, "  %s %s %s\n", n.Name(), t.label("["+n.Label+"]"), t.hint(n.ID))
	}

	fmt.Fprintf(w, "\n%s (%d): %s\n", t.status("Relationships"), meta.RelationshipCount, strings.Join(meta.RelationshipTypes, ", "))
	for _, r := range report.GraphData.Relationships {
		fmt.Fprintf(w, "  %s -%s-> %s\n", nameOr(names, r.Source), t.label(r.Type), nameOr(names, r.Target))
	}

	if meta.SkippedNodes > 0 {
		fmt.Fprintf(w, "\n%s %d node candidates without a usable name\n", t.hint("Skipped"), meta.SkippedNodes)
	}
	if len(meta.RelationshipFailures) > 0 {
		fmt.Fprintf(w, "\n%s\n", t.failure("Relationship failures"))
		for _, f := range meta.RelationshipFailures {
			fmt.Fprintf(w, "  %s -%s-> %s: %s\n", f.Source, f.Type, f.Target, f.Error)
		}
	}
}

func nameOr(names map[string]string, id string) string {
	if n := names[id]; n != "" {
		return n
	}
	return id
}
