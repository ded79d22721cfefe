package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/raphaelgruber/textgraph/internal/prompts"
	"github.com/raphaelgruber/textgraph/internal/service"
	"github.com/raphaelgruber/textgraph/internal/stream"
	"github.com/spf13/cobra"
)

var (
	streamMode        string
	streamFile        string
	streamPrompt      string
	streamTemperature float64
	streamMaxTokens   int
)

var streamCmd = &cobra.Command{
	Use:   "stream [text]",
	Short: "Stream a generation as sentences or JSON objects",
	Long: `Stream a model generation and print it as it arrives.

In text mode each complete sentence is printed on its own line. In json mode
each flat JSON object is printed as soon as it is complete. The prompt pair
named by --prompt is rendered with the input as {text}.

Press Ctrl+C to stop the stream at the next fragment.

Examples:
  textgraph stream "Tell me about Alice in Wonderland."
  textgraph stream --mode json --prompt node_extraction --file story.txt
  textgraph stream --json "Describe SurrealDB."`,
	Annotations: map[string]string{skipDB: "true"},
	RunE:        runStream,
}

func init() {
	streamCmd.Flags().StringVarP(&streamMode, "mode", "m", "text", "decode mode: text or json")
	streamCmd.Flags().StringVarP(&streamPrompt, "prompt", "p", "narration", "prompt template name")
	streamCmd.Flags().StringVarP(&streamFile, "file", "f", "", "read text from file ('-' for stdin)")
	streamCmd.Flags().Float64Var(&streamTemperature, "temperature", -1, "sampling temperature (default depends on mode)")
	streamCmd.Flags().IntVar(&streamMaxTokens, "max-tokens", 0, "token limit (default depends on mode)")
}

func runStream(cmd *cobra.Command, args []string) error {
	text, err := readInput(args, streamFile, os.Stdin)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	extractor, err := newExtractor(ctx, true)
	if err != nil {
		return err
	}

	store, err := prompts.NewStore(promptFS())
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}
	system, err := store.Render(prompts.KindSystem, streamPrompt, nil)
	if err != nil {
		return fmt.Errorf("render system prompt: %w", err)
	}
	user, err := store.Render(prompts.KindUser, streamPrompt, map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("render user prompt: %w", err)
	}

	params, err := streamParams(streamMode, streamTemperature, streamMaxTokens)
	if err != nil {
		return err
	}

	// Ctrl+C stops the stream through the cancel signal so the decoder can
	// report the cancellation.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for range interrupts {
			slog.Info("cancelling stream")
			extractor.Cancel()
		}
	}()

	var events iter.Seq[stream.Event]
	if streamMode == "json" {
		events = extractor.StreamJSON(ctx, system, user, params)
	} else {
		events = extractor.StreamText(ctx, system, user, params)
	}

	out := cmd.OutOrStdout()
	asJSON := wantJSON(out)
	t := newTheme(out)
	var failed error
	for ev := range events {
		if ev.Kind == stream.KindError {
			failed = ev.Err
		}
		if asJSON {
			if err := writeEventLine(out, ev); err != nil {
				return err
			}
			continue
		}
		printEvent(out, ev, t)
	}
	if failed != nil {
		return fmt.Errorf("stream: %w", failed)
	}
	return nil
}

// streamParams applies the mode defaults to unset flags.
func streamParams(mode string, temperature float64, maxTokens int) (service.Params, error) {
	var p service.Params
	switch mode {
	case "text":
		p = service.TextStreamParams
	case "json":
		p = service.JSONStreamParams
	default:
		return service.Params{}, fmt.Errorf("unknown mode %q: use text or json", mode)
	}
	if temperature >= 0 {
		p.Temperature = temperature
	}
	if maxTokens > 0 {
		p.MaxTokens = maxTokens
	}
	return p, nil
}

func writeEventLine(w io.Writer, ev stream.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printEvent renders one decode event for humans.
func printEvent(w io.Writer, ev stream.Event, t Theme) {
	switch ev.Kind {
	case stream.KindText:
		fmt.Fprintln(w, strings.ReplaceAll(ev.Text, `\n\n`, "\n\n"))
	case stream.KindObject:
		data, err := json.Marshal(ev.Object)
		if err != nil {
			fmt.Fprintf(w, "%v\n", ev.Object)
			return
		}
		fmt.Fprintln(w, string(data))
	case stream.KindUsage:
		fmt.Fprintln(w, t.hint(fmt.Sprintf("tokens: %d prompt, %d completion, %d total",
			ev.Usage.PromptTokens, ev.Usage.CompletionTokens, ev.Usage.TotalTokens)))
	case stream.KindCancelled:
		fmt.Fprintln(w, t.status("cancelled"))
	case stream.KindError:
		fmt.Fprintf(w, "%s %v\n", t.failure("error:"), ev.Err)
	case stream.KindDone:
	}
}
