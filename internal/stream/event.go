// Package stream turns incremental model output into structured decode events.
//
// Two decoders are provided. JSONDecoder recovers flat JSON objects from a
// growing buffer. SentenceDecoder re-derives sentence boundaries from
// punctuation and capitalization, since providers do not align fragments
// with sentences. Both are driven by an iter.Seq2 of Chunk values and
// produce a lazy iter.Seq of Event values.
package stream

import (
	"encoding/json"
	"fmt"
	"iter"
)

// Kind identifies the type of a decode event.
type Kind int

// Event kinds.
const (
	KindObject Kind = iota
	KindText
	KindUsage
	KindDone
	KindCancelled
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindText:
		return "text"
	case KindUsage:
		return "usage"
	case KindDone:
		return "done"
	case KindCancelled:
		return "cancelled"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Usage is the token accounting reported by a provider for one call.
// Later reports overwrite earlier ones.
type Usage struct {
	CompletionTokens int64 `json:"completion_tokens"`
	PromptTokens     int64 `json:"prompt_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Chunk is one fragment delivered by a generation stream.
// A chunk may carry text, usage, or both.
type Chunk struct {
	Text  string
	Usage *Usage
}

// Event is a single decode result.
type Event struct {
	Kind Kind
	// Object holds the decoded JSON value for KindObject.
	Object any
	// Text holds a complete sentence for KindText.
	Text  string
	Usage Usage
	Err   error
}

// Terminal reports whether no further events follow e.
func (e Event) Terminal() bool {
	return e.Kind == KindDone || e.Kind == KindCancelled || e.Kind == KindError
}

// MarshalJSON renders the event as a single-key object such as
// {"text": "..."} or {"done": true}.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindObject:
		return json.Marshal(map[string]any{"object": e.Object})
	case KindText:
		return json.Marshal(map[string]string{"text": e.Text})
	case KindUsage:
		return json.Marshal(map[string]Usage{"usage": e.Usage})
	case KindDone:
		return []byte(`{"done":true}`), nil
	case KindCancelled:
		return []byte(`{"cancelled":true}`), nil
	case KindError:
		msg := "unknown error"
		if e.Err != nil {
			msg = e.Err.Error()
		}
		return json.Marshal(map[string]string{"error": msg})
	default:
		return nil, fmt.Errorf("marshal event: unknown kind %d", int(e.Kind))
	}
}

// Fragments returns a source that yields each text as one chunk.
// Useful for decoding a payload that was received in full.
func Fragments(texts ...string) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		for _, t := range texts {
			if !yield(Chunk{Text: t}, nil) {
				return
			}
		}
	}
}
