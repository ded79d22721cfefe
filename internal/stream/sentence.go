package stream

import (
	"fmt"
	"iter"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// paragraphToken replaces blank-line breaks in the accumulator so they
// survive sentence splitting. It is the two characters backslash-n, twice.
const paragraphToken = `\n\n`

var adjacentObjectsRe = regexp.MustCompile(`}\s*{`)

// SentenceDecoder emits complete sentences from a fragment stream.
type SentenceDecoder struct {
	// Refusal is checked against the left-trimmed first fragment.
	// Defaults to DefaultRefusal.
	Refusal RefusalFunc
	// Signal, when set, is checked before each fragment.
	Signal *CancelSignal
}

// NewSentenceDecoder returns a decoder with the default refusal check.
func NewSentenceDecoder(signal *CancelSignal) *SentenceDecoder {
	return &SentenceDecoder{Refusal: DefaultRefusal, Signal: signal}
}

// Decode consumes src and yields KindText events for each completed
// sentence, then the remainder, then at most one KindUsage, then KindDone.
// Cancellation ends the sequence with KindCancelled; a refusal or source
// error ends it with KindError.
func (d *SentenceDecoder) Decode(src iter.Seq2[Chunk, error]) iter.Seq[Event] {
	refusal := d.Refusal
	if refusal == nil {
		refusal = DefaultRefusal
	}

	return func(yield func(Event) bool) {
		if d.Signal.Cancelled() {
			yield(Event{Kind: KindCancelled})
			return
		}

		var (
			current string
			usage   Usage
			full    strings.Builder
		)

		fail := func(err error) {
			slog.Warn("sentence stream failed",
				"error", err,
				"response", full.String(),
				"buffer", current,
			)
			yield(Event{Kind: KindError, Err: err})
		}

		for chunk, err := range src {
			if d.Signal.Cancelled() {
				yield(Event{Kind: KindCancelled})
				return
			}
			if err != nil {
				fail(fmt.Errorf("read stream: %w", err))
				return
			}

			if chunk.Text == "" && chunk.Usage == nil {
				slog.Warn("skipping empty stream fragment")
				continue
			}

			if chunk.Text != "" {
				full.WriteString(chunk.Text)
				msg := strings.ReplaceAll(chunk.Text, "}{", "} {")
				msg = adjacentObjectsRe.ReplaceAllString(msg, "} {")

				if current == "" {
					if trimmed := strings.TrimLeftFunc(msg, unicode.IsSpace); refusal(trimmed) {
						fail(refusalError(trimmed))
						return
					}
				}

				current += msg
				current = strings.ReplaceAll(current, "\n\n", paragraphToken)

				segments := splitSentences(current)
				if len(segments) > 1 {
					for _, s := range segments[:len(segments)-1] {
						if clean := cleanSentence(s); clean != "" {
							if !yield(Event{Kind: KindText, Text: clean}) {
								return
							}
						}
					}
					current = segments[len(segments)-1]
				}
			}

			if chunk.Usage != nil {
				usage = *chunk.Usage
			}
		}

		if clean := cleanSentence(current); clean != "" {
			if !yield(Event{Kind: KindText, Text: clean}) {
				return
			}
		}
		if usage.TotalTokens > 0 {
			if !yield(Event{Kind: KindUsage, Usage: usage}) {
				return
			}
		}
		yield(Event{Kind: KindDone})
	}
}

// splitSentences splits s wherever one of . ! ? is followed by a run of
// whitespace and then an ASCII uppercase letter. The whitespace run is
// dropped; the punctuation stays with the preceding sentence.
func splitSentences(s string) []string {
	var out []string
	start := 0
	prev := rune(-1)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) && (prev == '.' || prev == '!' || prev == '?') {
			j := i
			for j < len(s) {
				wr, wsize := utf8.DecodeRuneInString(s[j:])
				if !unicode.IsSpace(wr) {
					break
				}
				j += wsize
			}
			if j < len(s) && s[j] >= 'A' && s[j] <= 'Z' {
				out = append(out, s[start:i])
				start = j
			}
			prev = ' '
			i = j
			continue
		}
		prev = r
		i += size
	}
	return append(out, s[start:])
}

// cleanSentence removes structural bracket characters and trims whitespace.
func cleanSentence(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '{', '}', '[', ']':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
