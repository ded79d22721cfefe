package stream

import (
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"strings"
)

// JSONDecoder recovers JSON objects from a fragment stream as soon as they
// are complete.
type JSONDecoder struct {
	// Scanner finds object candidates. Defaults to FlatScanner.
	Scanner ObjectScanner
	// Refusal is checked against the whole buffer after every fragment.
	// Defaults to DefaultRefusal.
	Refusal RefusalFunc
	// Signal, when set, is checked before each fragment.
	Signal *CancelSignal
}

// NewJSONDecoder returns a decoder with the default scanner and refusal check.
func NewJSONDecoder(signal *CancelSignal) *JSONDecoder {
	return &JSONDecoder{
		Scanner: FlatScanner{},
		Refusal: DefaultRefusal,
		Signal:  signal,
	}
}

// Decode consumes src and yields one KindObject event per recovered object,
// followed by KindDone. A refusal or source error ends the sequence with a
// single KindError event instead.
func (d *JSONDecoder) Decode(src iter.Seq2[Chunk, error]) iter.Seq[Event] {
	scanner := d.Scanner
	if scanner == nil {
		scanner = FlatScanner{}
	}
	refusal := d.Refusal
	if refusal == nil {
		refusal = DefaultRefusal
	}

	return func(yield func(Event) bool) {
		if d.Signal.Cancelled() {
			yield(Event{Kind: KindCancelled})
			return
		}

		var buf string
		for chunk, err := range src {
			if err != nil {
				slog.Warn("json stream failed", "error", err, "buffer_len", len(buf))
				yield(Event{Kind: KindError, Err: fmt.Errorf("read stream: %w", err)})
				return
			}
			if d.Signal.Cancelled() {
				yield(Event{Kind: KindCancelled})
				return
			}
			if chunk.Text == "" {
				continue
			}

			buf += chunk.Text
			if refusal(buf) {
				yield(Event{Kind: KindError, Err: refusalError(buf)})
				return
			}

			for {
				start, end, ok := scanner.Next(buf)
				if !ok {
					break
				}
				var obj map[string]any
				if err := json.Unmarshal([]byte(buf[start:end]), &obj); err != nil {
					// Balanced text but not yet valid JSON; wait for more input.
					break
				}
				if !yield(Event{Kind: KindObject, Object: obj}) {
					return
				}
				buf = buf[end:]
			}
		}

		if strings.TrimSpace(buf) != "" {
			var v any
			if err := json.Unmarshal([]byte(buf), &v); err != nil {
				slog.Warn("dropping unparsable stream remainder", "remainder", buf, "error", err)
			} else if !yield(Event{Kind: KindObject, Object: v}) {
				return
			}
		}

		yield(Event{Kind: KindDone})
	}
}
